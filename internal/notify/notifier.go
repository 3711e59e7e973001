package notify

import (
	"context"
	"fmt"

	"github.com/mautops/practica-gin/internal/config"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -destination=mock_notify/mock_notifier.go -package=mock_notify github.com/mautops/practica-gin/internal/notify Notifier

// 通知受众
const (
	AudienceStudent     = "alumno"
	AudienceCompany     = "empresa"
	AudienceCoordinator = "coordinador"
)

// Message 一条待发送的通知
type Message struct {
	PracticeID string `json:"practice_id"`
	Event      string `json:"event"`
	Audience   string `json:"audience"`
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
}

// Notifier 通知发送接口
type Notifier interface {
	Send(ctx context.Context, msg *Message) error
}

// New 根据配置创建发送器
func New(cfg config.NotifyConfig, logger *logrus.Logger) (Notifier, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogNotifier(logger), nil
	case "smtp":
		return NewSMTPNotifier(cfg.SMTP)
	case "webhook":
		return NewWebhookNotifier(cfg.Webhook)
	}
	return nil, fmt.Errorf("unsupported notify driver %q", cfg.Driver)
}

// LogNotifier 只把通知写入日志,用于开发环境
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier 创建日志发送器
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg *Message) error {
	n.logger.WithContext(ctx).WithFields(logrus.Fields{
		"practice_id": msg.PracticeID,
		"event":       msg.Event,
		"audience":    msg.Audience,
		"to":          msg.To,
		"subject":     msg.Subject,
	}).Info("notification")
	return nil
}
