package plugin

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/LENAX/workflow-engine/pkg/core/notification"
	"github.com/LENAX/workflow-engine/pkg/core/workflow"
)

// EmailConfig 邮件通知器配置
type EmailConfig struct {
	SMTPHost string
	SMTPPort int
	Username string
	Password string
	From     string
}

// EmailNotifier 邮件通知器（对外导出）
// 通知的Target作为收件地址，TemplateRef决定主题
type EmailNotifier struct {
	cfg EmailConfig
}

// NewEmailNotifier 创建邮件通知器
func NewEmailNotifier(cfg EmailConfig) (*EmailNotifier, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("smtp_host不能为空")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("from不能为空")
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 25
	}
	return &EmailNotifier{cfg: cfg}, nil
}

// Name 投递器名称（实现Notifier接口）
func (e *EmailNotifier) Name() string {
	return "email"
}

// Send 投递通知（实现Notifier接口）
func (e *EmailNotifier) Send(ctx context.Context, n *workflow.WorkflowNotification) error {
	if n.Target == "" {
		return fmt.Errorf("通知缺少收件目标")
	}

	subject := e.buildSubject(n)
	body := e.buildBody(n)
	message := e.buildMessage(n.Target, subject, body)
	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPHost, e.cfg.SMTPPort)

	// 如果配置了用户名和密码，使用认证
	if e.cfg.Username != "" && e.cfg.Password != "" {
		auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.SMTPHost)

		// 465端口需要先建立TLS连接
		if e.cfg.SMTPPort == 465 {
			return e.sendTLS(addr, auth, n.Target, message)
		}

		return smtp.SendMail(addr, auth, e.cfg.From, []string{n.Target}, []byte(message))
	}

	// 无认证发送（仅用于测试环境）
	return smtp.SendMail(addr, nil, e.cfg.From, []string{n.Target}, []byte(message))
}

// buildSubject 构建邮件主题
func (e *EmailNotifier) buildSubject(n *workflow.WorkflowNotification) string {
	switch n.TemplateRef {
	case "task_approved":
		return fmt.Sprintf("[审批通过] 任务 %s", n.TaskID)
	case "task_rejected":
		return fmt.Sprintf("[审批拒绝] 任务 %s", n.TaskID)
	case "task_cancelled":
		return fmt.Sprintf("[任务取消] 任务 %s", n.TaskID)
	case "task_escalated":
		return fmt.Sprintf("[任务升级] 任务 %s", n.TaskID)
	default:
		return fmt.Sprintf("[工作流通知] 任务 %s", n.TaskID)
	}
}

// buildBody 构建邮件正文
func (e *EmailNotifier) buildBody(n *workflow.WorkflowNotification) string {
	var body strings.Builder
	body.WriteString(fmt.Sprintf("通知ID: %s\n", n.ID))
	body.WriteString(fmt.Sprintf("任务ID: %s\n", n.TaskID))
	body.WriteString(fmt.Sprintf("模板: %s\n", n.TemplateRef))
	body.WriteString(fmt.Sprintf("创建时间: %s\n", n.CreatedAt.Format("2006-01-02 15:04:05")))
	return body.String()
}

// buildMessage 构建邮件消息
func (e *EmailNotifier) buildMessage(to, subject, body string) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s\r\n", e.cfg.From))
	message.WriteString(fmt.Sprintf("To: %s\r\n", to))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)
	return message.String()
}

// sendTLS 通过TLS发送邮件（用于465端口）
func (e *EmailNotifier) sendTLS(addr string, auth smtp.Auth, to string, message string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName: e.cfg.SMTPHost,
	})
	if err != nil {
		return fmt.Errorf("TLS连接失败: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.cfg.SMTPHost)
	if err != nil {
		return fmt.Errorf("创建SMTP客户端失败: %w", err)
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP认证失败: %w", err)
	}
	if err := client.Mail(e.cfg.From); err != nil {
		return fmt.Errorf("设置发件人失败: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("设置收件人失败: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("获取数据写入器失败: %w", err)
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		return fmt.Errorf("写入邮件内容失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("关闭数据写入器失败: %w", err)
	}

	return client.Quit()
}

// 确保实现接口
var _ notification.Notifier = (*EmailNotifier)(nil)
