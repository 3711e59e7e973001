package model

import (
	"errors"
	"time"
)

// 通知状态
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationDropped = "dropped"
)

// NotificationModel 通知发送记录
// 不与实习建立外键,实习删除后记录仍保留
type NotificationModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	PracticeID string    `gorm:"type:varchar(64);not null;index" json:"practice_id"`
	Event      string    `gorm:"type:varchar(64);not null" json:"event"`
	Audience   string    `gorm:"type:varchar(16);not null" json:"audience"` // alumno/empresa/coordinador
	Recipient  string    `gorm:"type:varchar(255)" json:"recipient"`
	Subject    string    `gorm:"type:varchar(255)" json:"subject"`
	Status     string    `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Error      string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (NotificationModel) TableName() string {
	return "notifications"
}

// Validate 验证通知模型
func (n *NotificationModel) Validate() error {
	if n.ID == "" {
		return errors.New("notification ID is required")
	}
	if n.PracticeID == "" {
		return errors.New("practice ID is required")
	}
	if n.Event == "" {
		return errors.New("notification event is required")
	}
	if n.Status == "" {
		n.Status = NotificationPending
	}
	return nil
}
