// Package worker 后台入库队列：有界、非阻塞投递，任务上下文与请求解耦。
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"DirectorySync/internal/config"
	"DirectorySync/internal/interfaces"
	"DirectorySync/internal/model"

	"github.com/sirupsen/logrus"
)

// Handler 处理单个入库任务
type Handler func(ctx context.Context, job model.SyncJob) model.SyncStats

var _ interfaces.SyncDispatcher = (*SyncPool)(nil)

// SyncPool 固定数量 worker 消费有界队列
type SyncPool struct {
	handler    Handler
	jobs       chan model.SyncJob
	workers    int
	jobTimeout time.Duration
	logger     *logrus.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup

	// 累计统计，仅用于日志
	statsMu sync.Mutex
	total   model.SyncStats
}

func NewSyncPool(cfg *config.SyncConfig, handler Handler, logger *logrus.Logger) *SyncPool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = 1
	}
	return &SyncPool{
		handler:    handler,
		jobs:       make(chan model.SyncJob, queue),
		workers:    workers,
		jobTimeout: cfg.JobTimeout,
		logger:     logger,
	}
}

// Start 启动 worker，重复调用无效
func (p *SyncPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	p.logger.WithField("workers", p.workers).Info("后台入库队列已启动")
}

// Enqueue 非阻塞投递：队列满或已关闭时返回 false
func (p *SyncPool) Enqueue(job model.SyncJob) bool {
	if len(job.Places) == 0 {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Shutdown 停止接收新任务并等待队列排空；ctx 到期时返回 ctx.Err()
func (p *SyncPool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	started := p.started
	p.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.statsMu.Lock()
		total := p.total
		p.statsMu.Unlock()
		p.logger.WithFields(logrus.Fields{
			"saved":   total.Saved,
			"skipped": total.Skipped,
			"errors":  total.Errors,
		}).Info("后台入库队列已排空")
		return nil
	case <-ctx.Done():
		p.logger.WithField("pending", len(p.jobs)).Warn("等待入库队列排空超时")
		return ctx.Err()
	}
}

func (p *SyncPool) run(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		stats := p.process(id, job)
		p.statsMu.Lock()
		p.total.Add(stats)
		p.statsMu.Unlock()
	}
}

// process 每个任务使用独立上下文，与发起请求的生命周期无关
func (p *SyncPool) process(id int, job model.SyncJob) (stats model.SyncStats) {
	ctx := context.Background()
	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(logrus.Fields{
				"worker": id,
				"source": job.Source,
				"panic":  fmt.Sprint(r),
			}).Error("入库任务 panic，已恢复")
			stats = model.SyncStats{Errors: len(job.Places)}
		}
	}()

	return p.handler(ctx, job)
}
