package repository

import (
	"github.com/mautops/practica-gin/internal/model"
	"gorm.io/gorm"
)

// FormTemplateRepository 表单模板仓储接口
type FormTemplateRepository interface {
	Create(template *model.FormTemplateModel) error
	Save(template *model.FormTemplateModel) error
	FindByID(id string) (*model.FormTemplateModel, error)
	FindByKind(kind string) (*model.FormTemplateModel, error)
	ExistsByKind(kind string) (bool, error)
	FindAll() ([]*model.FormTemplateModel, error)
	Delete(id string) error
}

// formTemplateRepository 表单模板仓储实现
type formTemplateRepository struct {
	db *gorm.DB
}

// NewFormTemplateRepository 创建表单模板仓储
func NewFormTemplateRepository(db *gorm.DB) FormTemplateRepository {
	return &formTemplateRepository{db: db}
}

// Create 创建模板
func (r *formTemplateRepository) Create(template *model.FormTemplateModel) error {
	return r.db.Create(template).Error
}

// Save 保存模板
func (r *formTemplateRepository) Save(template *model.FormTemplateModel) error {
	return r.db.Save(template).Error
}

// FindByID 根据 ID 查找模板
func (r *formTemplateRepository) FindByID(id string) (*model.FormTemplateModel, error) {
	var template model.FormTemplateModel
	if err := r.db.Where("id = ?", id).First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

// FindByKind 根据类型查找模板
func (r *formTemplateRepository) FindByKind(kind string) (*model.FormTemplateModel, error) {
	var template model.FormTemplateModel
	if err := r.db.Where("kind = ?", kind).First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

// ExistsByKind 判断类型是否已存在
func (r *formTemplateRepository) ExistsByKind(kind string) (bool, error) {
	var count int64
	err := r.db.Model(&model.FormTemplateModel{}).Where("kind = ?", kind).Count(&count).Error
	return count > 0, err
}

// FindAll 查找所有模板
func (r *formTemplateRepository) FindAll() ([]*model.FormTemplateModel, error) {
	var templates []*model.FormTemplateModel
	err := r.db.Order("kind ASC").Find(&templates).Error
	return templates, err
}

// Delete 删除模板
func (r *formTemplateRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.FormTemplateModel{}).Error
}
