package model

import (
	"errors"
	"time"

	"github.com/mautops/practica-gin/internal/form"
	"gorm.io/datatypes"
)

// 答案文档状态
const (
	DocumentDraft     = "draft"
	DocumentSubmitted = "submitted"
	DocumentApproved  = "approved"
	DocumentRejected  = "rejected"
)

// AnswerDocumentModel 答案文档数据模型
// 每个 (实习, 模板) 组合最多一份
type AnswerDocumentModel struct {
	ID                 string             `gorm:"primaryKey;type:varchar(64)" json:"id"`
	PracticeID         string             `gorm:"type:varchar(64);not null;uniqueIndex:idx_answer_documents_practice_template" json:"practice_id"`
	TemplateID         string             `gorm:"type:varchar(64);not null;uniqueIndex:idx_answer_documents_practice_template;index" json:"template_id"`
	TemplateKind       string             `gorm:"type:varchar(64);not null" json:"template_kind"`
	Answers            datatypes.JSON     `gorm:"not null" json:"answers" swaggertype:"object"`
	Status             string             `gorm:"type:varchar(16);not null;default:'draft'" json:"status"`
	SubmittedAt        *time.Time         `json:"submitted_at,omitempty"`
	CoordinatorComment string             `gorm:"type:text" json:"coordinator_comment,omitempty"`
	LastAuthor         string             `gorm:"type:varchar(16)" json:"last_author,omitempty"`
	CreatedAt          time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"not null" json:"updated_at"`
	Practice           *PracticeModel     `gorm:"foreignKey:PracticeID;constraint:OnDelete:CASCADE" json:"-"`
	Template           *FormTemplateModel `gorm:"foreignKey:TemplateID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName 指定表名
func (AnswerDocumentModel) TableName() string {
	return "answer_documents"
}

// DecodeAnswers 解析答案
func (d *AnswerDocumentModel) DecodeAnswers() (form.Answers, error) {
	return form.Decode(d.Answers)
}

// SetAnswers 写入答案
func (d *AnswerDocumentModel) SetAnswers(a form.Answers) error {
	data, err := a.Encode()
	if err != nil {
		return err
	}
	d.Answers = datatypes.JSON(data)
	return nil
}

// Validate 验证答案文档模型
func (d *AnswerDocumentModel) Validate() error {
	if d.ID == "" {
		return errors.New("document ID is required")
	}
	if d.PracticeID == "" {
		return errors.New("practice ID is required")
	}
	if d.TemplateID == "" {
		return errors.New("template ID is required")
	}
	switch d.Status {
	case DocumentDraft, DocumentSubmitted, DocumentApproved, DocumentRejected:
	default:
		return errors.New("document status is invalid")
	}
	return nil
}
