// Package retention 实现终态任务的保留与归档删除
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/LENAX/workflow-engine/pkg/storage"
)

// Report 归档批次结果（对外导出）
type Report struct {
	Archived int `json:"archived"` // 删除的终态任务数量
}

// Archiver 保留归档器（对外导出）
// 仅硬删除终态任务行，历史记录永不删除
type Archiver struct {
	tasks     storage.TaskRepository
	workflows storage.WorkflowRepository
}

// NewArchiver 创建保留归档器
func NewArchiver(tasks storage.TaskRepository, workflows storage.WorkflowRepository) *Archiver {
	return &Archiver{tasks: tasks, workflows: workflows}
}

// ArchiveOlderThan 删除超过保留期的终态任务
// 两级截止时间：先按各工作流的auto_archive_days，再按全局globalDays兜底
// 工作流级截止先执行，可早于全局截止删除该工作流的任务
func (a *Archiver) ArchiveOlderThan(ctx context.Context, globalDays int) (*Report, error) {
	report := &Report{}
	now := time.Now()

	workflows, err := a.workflows.ListWorkflows(ctx)
	if err != nil {
		return report, fmt.Errorf("查询工作流定义失败: %w", err)
	}

	// 工作流级保留期
	for _, wf := range workflows {
		if wf.AutoArchiveDays == nil || *wf.AutoArchiveDays <= 0 {
			continue
		}
		cutoff := now.AddDate(0, 0, -*wf.AutoArchiveDays)
		deleted, err := a.tasks.DeleteTerminalBefore(ctx, wf.ID, cutoff)
		if err != nil {
			return report, err
		}
		report.Archived += int(deleted)
	}

	// 全局保留期兜底
	if globalDays > 0 {
		cutoff := now.AddDate(0, 0, -globalDays)
		deleted, err := a.tasks.DeleteTerminalBefore(ctx, "", cutoff)
		if err != nil {
			return report, err
		}
		report.Archived += int(deleted)
	}

	return report, nil
}
