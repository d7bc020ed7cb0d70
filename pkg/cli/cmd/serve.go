package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LENAX/workflow-engine/pkg/api"
	"github.com/LENAX/workflow-engine/pkg/cli/output"
	"github.com/LENAX/workflow-engine/pkg/core/engine"
	"github.com/LENAX/workflow-engine/pkg/core/events"
)

var (
	servePort int
	serveHost string
)

// serveCmd 常驻服务命令
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "以常驻模式运行引擎",
	Long: `以常驻模式运行引擎：内置定时调度器按cron表达式周期触发批处理，
同时提供HTTP API供UI查询任务与执行人工转换。

示例：
  # 默认端口启动
  workflow serve

  # 指定端口启动
  workflow serve --port 9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		// 未指定--port时使用配置的端口
		if !cmd.Flags().Changed("port") && cfg.HTTPPort > 0 {
			servePort = cfg.HTTPPort
		}

		bus := events.NewBus()
		eng, cleanup, err := buildEngine(cfg, bus)
		if err != nil {
			output.Error("创建引擎失败: %v", err)
			return err
		}
		defer cleanup()

		// 订阅事件总线，记录转换与批处理事件
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		startEventLogger(ctx, bus)

		// 定时调度器：周期触发默认批处理（通知+升级；清理需cron外显式运行process --cleanup）
		scheduler, err := engine.NewCronScheduler(eng, cfg.Engine.CronExpr, engine.Options{})
		if err != nil {
			output.Error("创建调度器失败: %v", err)
			return err
		}
		scheduler.Start()

		// API服务器
		serverConfig := api.ServerConfig{
			Host:         serveHost,
			Port:         servePort,
			ReadTimeout:  api.DefaultServerConfig().ReadTimeout,
			WriteTimeout: api.DefaultServerConfig().WriteTimeout,
		}
		apiServer := api.NewAPIServer(eng, serverConfig, Version)

		go func() {
			if err := apiServer.Start(); err != nil {
				log.Printf("API服务器错误: %v", err)
			}
		}()

		output.Success("Workflow Engine started on %s:%d (cron=%s)", serveHost, servePort, cfg.Engine.CronExpr)

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		output.Info("正在关闭服务...")

		scheduler.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), api.DefaultServerConfig().WriteTimeout)
		defer shutdownCancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			output.Error("关闭API服务器失败: %v", err)
		}

		output.Success("服务已停止")
		return nil
	},
}

// startEventLogger 订阅事件总线并写日志（内部方法）
func startEventLogger(ctx context.Context, bus *events.Bus) {
	transitions, err := bus.Subscribe(ctx, events.TopicTaskTransitioned)
	if err != nil {
		log.Printf("⚠️ [事件日志] 订阅转换事件失败: %v", err)
		return
	}
	batches, err := bus.Subscribe(ctx, events.TopicBatchCompleted)
	if err != nil {
		log.Printf("⚠️ [事件日志] 订阅批处理事件失败: %v", err)
		return
	}

	go func() {
		for msg := range transitions {
			log.Printf("📌 [事件日志] 任务转换: %s", string(msg.Payload))
			msg.Ack()
		}
	}()
	go func() {
		for msg := range batches {
			log.Printf("📌 [事件日志] 批处理完成: %s", string(msg.Payload))
			msg.Ack()
		}
	}()
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "监听端口")
	serveCmd.Flags().StringVarP(&serveHost, "host", "H", "0.0.0.0", "监听地址")
}
