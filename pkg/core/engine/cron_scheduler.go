package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// CronScheduler 定时调度器（对外导出）
// 按cron表达式周期触发批处理运行；每次运行自限且可安全重跑，
// 等价于外部cron定时调用process命令
type CronScheduler struct {
	cron   *cron.Cron
	engine *Engine
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCronScheduler 创建定时调度器
// cronExpr: 标准5字段cron表达式（建议5-15分钟间隔）
func NewCronScheduler(eng *Engine, cronExpr string, opts Options) (*CronScheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cs := &CronScheduler{
		cron:   cron.New(),
		engine: eng,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}

	if _, err := cron.ParseStandard(cronExpr); err != nil {
		cancel()
		return nil, fmt.Errorf("Cron表达式无效: %w", err)
	}
	if _, err := cs.cron.AddFunc(cronExpr, cs.runBatch); err != nil {
		cancel()
		return nil, fmt.Errorf("添加Cron任务失败: %w", err)
	}

	log.Printf("✅ [Cron调度器] 已注册批处理任务: CronExpr=%s", cronExpr)
	return cs, nil
}

// runBatch 触发一次批处理运行（内部方法）
func (cs *CronScheduler) runBatch() {
	log.Printf("🕐 [Cron调度器] 触发批处理运行")

	report := cs.engine.Run(cs.ctx, cs.opts)
	if report.HasErrors() {
		log.Printf("❌ [Cron调度器] 批处理运行有错误: Errors=%v", report.Errors)
		return
	}
	log.Printf("✅ [Cron调度器] 批处理运行完成: Duration=%s", report.FinishedAt.Sub(report.StartedAt))
}

// Start 启动定时调度器
func (cs *CronScheduler) Start() {
	cs.cron.Start()
	log.Println("✅ [Cron调度器] 已启动")
}

// Stop 停止定时调度器
func (cs *CronScheduler) Stop() {
	cs.cron.Stop()
	cs.cancel()
	log.Println("✅ [Cron调度器] 已停止")
}
