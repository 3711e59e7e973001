package repository

import (
	"github.com/mautops/practica-gin/internal/model"
	"gorm.io/gorm"
)

// AccessGrantRepository 访问授权仓储接口
type AccessGrantRepository interface {
	Save(grant *model.AccessGrantModel) error
	FindByToken(token string) (*model.AccessGrantModel, error)
	FindByPracticeID(practiceID string) (*model.AccessGrantModel, error)
}

// accessGrantRepository 访问授权仓储实现
type accessGrantRepository struct {
	db *gorm.DB
}

// NewAccessGrantRepository 创建访问授权仓储
func NewAccessGrantRepository(db *gorm.DB) AccessGrantRepository {
	return &accessGrantRepository{db: db}
}

// Save 保存访问授权
func (r *accessGrantRepository) Save(grant *model.AccessGrantModel) error {
	return r.db.Omit("Practice").Save(grant).Error
}

// FindByToken 根据令牌查找授权
func (r *accessGrantRepository) FindByToken(token string) (*model.AccessGrantModel, error) {
	var grant model.AccessGrantModel
	if err := r.db.Where("token = ?", token).First(&grant).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

// FindByPracticeID 根据实习查找授权
func (r *accessGrantRepository) FindByPracticeID(practiceID string) (*model.AccessGrantModel, error) {
	var grant model.AccessGrantModel
	if err := r.db.Where("practice_id = ?", practiceID).First(&grant).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}
