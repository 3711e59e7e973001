package repository

import (
	"github.com/mautops/practica-gin/internal/model"
	"gorm.io/gorm"
)

// AnswerDocumentRepository 答案文档仓储接口
type AnswerDocumentRepository interface {
	Create(doc *model.AnswerDocumentModel) error
	Save(doc *model.AnswerDocumentModel) error
	FindByPracticeAndTemplate(practiceID, templateID string) (*model.AnswerDocumentModel, error)
	FindByPracticeID(practiceID string) ([]*model.AnswerDocumentModel, error)
	CountByTemplateID(templateID string) (int64, error)
}

// answerDocumentRepository 答案文档仓储实现
type answerDocumentRepository struct {
	db *gorm.DB
}

// NewAnswerDocumentRepository 创建答案文档仓储
func NewAnswerDocumentRepository(db *gorm.DB) AnswerDocumentRepository {
	return &answerDocumentRepository{db: db}
}

// Create 创建答案文档
func (r *answerDocumentRepository) Create(doc *model.AnswerDocumentModel) error {
	return r.db.Create(doc).Error
}

// Save 保存答案文档
func (r *answerDocumentRepository) Save(doc *model.AnswerDocumentModel) error {
	return r.db.Omit("Practice", "Template").Save(doc).Error
}

// FindByPracticeAndTemplate 查找实习在某个模板下的答案文档
func (r *answerDocumentRepository) FindByPracticeAndTemplate(practiceID, templateID string) (*model.AnswerDocumentModel, error) {
	var doc model.AnswerDocumentModel
	if err := r.db.Where("practice_id = ? AND template_id = ?", practiceID, templateID).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByPracticeID 查找实习的所有答案文档
func (r *answerDocumentRepository) FindByPracticeID(practiceID string) ([]*model.AnswerDocumentModel, error) {
	var docs []*model.AnswerDocumentModel
	err := r.db.Where("practice_id = ?", practiceID).Order("created_at ASC").Find(&docs).Error
	return docs, err
}

// CountByTemplateID 统计引用模板的答案文档数量
func (r *answerDocumentRepository) CountByTemplateID(templateID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.AnswerDocumentModel{}).Where("template_id = ?", templateID).Count(&count).Error
	return count, err
}
