package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PriceRefresher 按 cron 表达式定时刷新持仓现价
type PriceRefresher struct {
	logger       *zap.Logger
	tradeService *TradeService
	spec         string
	timeout      time.Duration

	mu        sync.Mutex
	cron      *cron.Cron
	isRunning bool
}

// NewPriceRefresher 创建定时刷新任务，spec 为空时 Start 不做任何事
func NewPriceRefresher(logger *zap.Logger, tradeService *TradeService, spec string, timeout time.Duration) *PriceRefresher {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &PriceRefresher{
		logger:       logger,
		tradeService: tradeService,
		spec:         spec,
		timeout:      timeout,
	}
}

// Start 启动调度器
func (r *PriceRefresher) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.spec == "" {
		r.logger.Info("price refresher disabled")
		return nil
	}
	if r.isRunning {
		return fmt.Errorf("price refresher is already running")
	}

	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.spec, r.RunOnce); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	r.cron.Start()
	r.isRunning = true

	r.logger.Info("price refresher started", zap.String("cron_expression", r.spec))
	return nil
}

// RunOnce 执行一次刷新，错误只记录日志
func (r *PriceRefresher) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	updated, err := r.tradeService.RefreshPrices(ctx)
	if err != nil {
		r.logger.Warn("price refresh failed", zap.Error(err))
		return
	}
	r.logger.Info("price refresh finished",
		zap.Int("updated", updated),
		zap.Duration("elapsed", time.Since(start)))
}

// Running 调度器是否在运行
func (r *PriceRefresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRunning
}

// Stop 停止调度器并等待正在执行的任务
func (r *PriceRefresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning {
		return
	}
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.isRunning = false
	r.logger.Info("price refresher stopped")
}
