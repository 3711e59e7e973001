package repository

import (
	"github.com/mautops/practica-gin/internal/model"
	"gorm.io/gorm"
)

// NotificationRepository 通知记录仓储接口
type NotificationRepository interface {
	Save(notification *model.NotificationModel) error
	UpdateStatus(id string, status string, errMsg string) error
	FindByPracticeID(practiceID string) ([]*model.NotificationModel, error)
	CountByStatus() (map[string]int64, error)
}

// notificationRepository 通知记录仓储实现
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知记录仓储
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Save 保存通知记录
func (r *notificationRepository) Save(notification *model.NotificationModel) error {
	return r.db.Save(notification).Error
}

// UpdateStatus 更新发送状态
func (r *notificationRepository) UpdateStatus(id string, status string, errMsg string) error {
	return r.db.Model(&model.NotificationModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "error": errMsg}).Error
}

// FindByPracticeID 查找实习的通知记录
func (r *notificationRepository) FindByPracticeID(practiceID string) ([]*model.NotificationModel, error) {
	var notifications []*model.NotificationModel
	err := r.db.Where("practice_id = ?", practiceID).Order("created_at ASC").Find(&notifications).Error
	return notifications, err
}

// CountByStatus 按状态统计通知数量
func (r *notificationRepository) CountByStatus() (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.Model(&model.NotificationModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
