package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"cocktail-recommender/internal/core/cocktail"
	"cocktail-recommender/internal/infrastructure/config"
	"cocktail-recommender/internal/infrastructure/metrics"
	"cocktail-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrClosed 隊列已關閉
var ErrClosed = errors.New("queue manager is closed")

// Job 一次配方生成工作
type Job func(ctx context.Context) (*cocktail.Recipe, error)

// Request 隊列請求
type Request struct {
	Context    context.Context
	Job        Job
	Result     chan Result
	enqueuedAt time.Time
}

// Result 處理結果
type Result struct {
	Recipe *cocktail.Recipe
	Error  error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager 固定數量的 worker 處理生成工作，每個工作只由一個 worker 執行
type Manager struct {
	config    config.QueueConfig
	queue     chan *Request
	done      chan struct{}
	closed    bool
	mu        sync.RWMutex // 保護 closed 與送入 queue，Close 之後不會再有請求入列
	processed int64
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewManager 創建新的隊列管理器
func NewManager(cfg config.QueueConfig) *Manager {
	return &Manager{
		config: cfg,
		queue:  make(chan *Request, cfg.MaxSize),
		done:   make(chan struct{}),
	}
}

// Start 啟動 worker
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		for i := 0; i < m.config.Workers; i++ {
			m.wg.Add(1)
			go m.worker(i)
		}
		common.LogInfo("生成隊列已啟動",
			zap.Int("workers", m.config.Workers),
			zap.Int("max_queue_size", m.config.MaxSize),
		)
	})
}

// Enqueue 將工作加入隊列；隊列已滿時立即回傳 common.ErrQueueFull
func (m *Manager) Enqueue(ctx context.Context, job Job) (<-chan Result, error) {
	req := &Request{
		Context:    ctx,
		Job:        job,
		Result:     make(chan Result, 1),
		enqueuedAt: time.Now(),
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	select {
	case m.queue <- req:
		metrics.QueueLength.Set(float64(len(m.queue)))
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.config.MaxSize),
		)
		return req.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		common.LogWarn("生成隊列已滿", zap.Int("max_queue_size", m.config.MaxSize))
		return nil, common.ErrQueueFull
	}
}

// Submit 加入隊列並等待結果
func (m *Manager) Submit(ctx context.Context, job Job) (*cocktail.Recipe, error) {
	resultCh, err := m.Enqueue(ctx, job)
	if err != nil {
		return nil, err
	}

	select {
	case result := <-resultCh:
		return result.Recipe, result.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()

	for {
		select {
		case req := <-m.queue:
			metrics.QueueLength.Set(float64(len(m.queue)))
			m.process(id, req)
		case <-m.done:
			return
		}
	}
}

func (m *Manager) process(workerID int, req *Request) {
	defer atomic.AddInt64(&m.processed, 1)

	// 呼叫端已放棄等待
	if err := req.Context.Err(); err != nil {
		req.Result <- Result{Error: err}
		return
	}

	common.LogDebug("開始處理生成工作",
		zap.Int("worker", workerID),
		zap.Duration("等待時間", time.Since(req.enqueuedAt)),
	)

	recipe, err := req.Job(req.Context)
	req.Result <- Result{Recipe: recipe, Error: err}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		MaxQueueSize:   m.config.MaxSize,
		Workers:        m.config.Workers,
	}
}

// Close 停止 worker，尚未處理的工作回傳 ErrClosed
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		close(m.done)
		m.mu.Unlock()
		m.wg.Wait()

		for {
			select {
			case req := <-m.queue:
				req.Result <- Result{Error: ErrClosed}
			default:
				metrics.QueueLength.Set(0)
				common.LogInfo("生成隊列已關閉",
					zap.Int64("processed", atomic.LoadInt64(&m.processed)),
				)
				return
			}
		}
	})
}
