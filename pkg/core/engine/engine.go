// Package engine 实现批处理编排器
// 每次调用处理一个有界批次后返回，不自行循环或常驻；由外部调度器周期触发
package engine

import (
	"context"
	"log"
	"time"

	istorage "github.com/LENAX/workflow-engine/internal/storage"
	"github.com/LENAX/workflow-engine/pkg/core/escalation"
	"github.com/LENAX/workflow-engine/pkg/core/events"
	"github.com/LENAX/workflow-engine/pkg/core/notification"
	"github.com/LENAX/workflow-engine/pkg/core/retention"
	"github.com/LENAX/workflow-engine/pkg/core/statemachine"
	"github.com/LENAX/workflow-engine/pkg/core/workflow"
)

// Options 单次批处理运行选项
// 三个阶段开关都未指定时默认运行通知+升级；清理阶段有破坏性，必须显式开启
type Options struct {
	Notifications bool `json:"notifications"`
	Escalate      bool `json:"escalate"`
	Cleanup       bool `json:"cleanup"`
	Days          int  `json:"days"`  // 清理阶段的全局保留天数（0时取配置默认值）
	Limit         int  `json:"limit"` // 各阶段处理行数上限（0时取配置默认值）
}

// RunReport 单次批处理运行结果（对外导出）
type RunReport struct {
	StartedAt     time.Time            `json:"started_at"`
	FinishedAt    time.Time            `json:"finished_at"`
	Escalation    *escalation.Report   `json:"escalation,omitempty"`
	Notifications *notification.Report `json:"notifications,omitempty"`
	Archive       *retention.Report    `json:"archive,omitempty"`
	Errors        []string             `json:"errors,omitempty"`
}

// HasErrors 是否有阶段记录了错误
func (r *RunReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// Dependencies 引擎依赖集合
type Dependencies struct {
	Repos           *istorage.Repositories
	Bus             *events.Bus                 // 可选
	Notifier        notification.Notifier
	NotifyStatuses  []workflow.TaskStatus       // 触发通知入队的目标状态
	RetryFailed     bool                        // 失败通知是否重试
	NotifyEscalated bool                        // 升级后是否通知新审批人
	PhaseTimeout    time.Duration               // 单阶段墙钟超时
	DefaultLimit    int                         // 默认批次行数上限
	DefaultDays     int                         // 默认全局保留天数
}

// Engine 批处理编排器（对外导出）
type Engine struct {
	repos      *istorage.Repositories
	bus        *events.Bus
	machine    *statemachine.Machine
	escalator  *escalation.Engine
	dispatcher *notification.Dispatcher
	archiver   *retention.Archiver

	phaseTimeout time.Duration
	defaultLimit int
	defaultDays  int
}

// New 创建批处理编排器
func New(deps Dependencies) *Engine {
	if deps.PhaseTimeout <= 0 {
		deps.PhaseTimeout = 2 * time.Minute
	}
	if deps.DefaultLimit <= 0 {
		deps.DefaultLimit = 100
	}
	return &Engine{
		repos:   deps.Repos,
		bus:     deps.Bus,
		machine: statemachine.New(deps.Repos.Tasks, deps.Bus, deps.NotifyStatuses),
		escalator: escalation.NewEngine(deps.Repos.Tasks, escalation.Options{
			NotifyEscalated: deps.NotifyEscalated,
		}),
		dispatcher: notification.NewDispatcher(deps.Repos.Notifications, deps.Notifier, notification.Options{
			RetryFailed: deps.RetryFailed,
		}),
		archiver:     retention.NewArchiver(deps.Repos.Tasks, deps.Repos.Workflows),
		phaseTimeout: deps.PhaseTimeout,
		defaultLimit: deps.DefaultLimit,
		defaultDays:  deps.DefaultDays,
	}
}

// Machine 返回任务状态机（API与外部触发器使用）
func (e *Engine) Machine() *statemachine.Machine {
	return e.machine
}

// Repos 返回存储Repository集合
func (e *Engine) Repos() *istorage.Repositories {
	return e.repos
}

// Run 执行一次批处理
// 阶段顺序固定：升级 → 通知 →（可选）清理；阶段之间互相隔离，
// 一个阶段的错误记入报告但不阻止后续阶段运行
func (e *Engine) Run(ctx context.Context, opts Options) *RunReport {
	// 无显式阶段开关时默认通知+升级（清理需显式开启）
	if !opts.Notifications && !opts.Escalate && !opts.Cleanup {
		opts.Notifications = true
		opts.Escalate = true
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}
	days := opts.Days
	if days <= 0 {
		days = e.defaultDays
	}

	report := &RunReport{StartedAt: time.Now()}

	if opts.Escalate {
		e.runPhase(ctx, report, "escalation", func(phaseCtx context.Context) error {
			result, err := e.escalator.EscalateOverdue(phaseCtx, limit)
			report.Escalation = result
			return err
		})
	}

	if opts.Notifications {
		e.runPhase(ctx, report, "notifications", func(phaseCtx context.Context) error {
			result, err := e.dispatcher.ProcessPending(phaseCtx, limit)
			report.Notifications = result
			return err
		})
	}

	if opts.Cleanup {
		e.runPhase(ctx, report, "cleanup", func(phaseCtx context.Context) error {
			result, err := e.archiver.ArchiveOlderThan(phaseCtx, days)
			report.Archive = result
			return err
		})
	}

	report.FinishedAt = time.Now()
	e.publishCompleted(report)
	return report
}

// runPhase 执行单个阶段（内部方法）
// 每个阶段有独立的墙钟超时，错误记入报告后继续
func (e *Engine) runPhase(ctx context.Context, report *RunReport, name string, fn func(context.Context) error) {
	phaseCtx, cancel := context.WithTimeout(ctx, e.phaseTimeout)
	defer cancel()

	if err := fn(phaseCtx); err != nil {
		log.Printf("❌ [批处理] 阶段执行失败: Phase=%s, Error=%v", name, err)
		report.Errors = append(report.Errors, name+": "+err.Error())
		return
	}
	log.Printf("✅ [批处理] 阶段执行完成: Phase=%s", name)
}

// publishCompleted 发布批处理完成事件（尽力而为）
func (e *Engine) publishCompleted(report *RunReport) {
	if e.bus == nil {
		return
	}
	event := &events.BatchCompletedEvent{
		ErrorCount: len(report.Errors),
		FinishedAt: report.FinishedAt,
	}
	if report.Notifications != nil {
		event.Sent = report.Notifications.Sent
		event.Failed = report.Notifications.Failed
	}
	if report.Escalation != nil {
		event.Escalated = report.Escalation.Escalated
		event.Skipped = report.Escalation.Skipped
	}
	if report.Archive != nil {
		event.Archived = report.Archive.Archived
	}
	if err := e.bus.PublishBatchCompleted(event); err != nil {
		log.Printf("⚠️ [批处理] 发布完成事件失败: %v", err)
	}
}
