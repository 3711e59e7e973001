package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mautops/practica-gin/internal/form"
	"gorm.io/datatypes"
)

// FormTemplateModel 表单模板数据模型
type FormTemplateModel struct {
	ID          string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Kind        string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"kind"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Fields      datatypes.JSON `gorm:"not null" json:"fields" swaggertype:"array,object"` // 有序的 []form.Field
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	CreatedBy   string         `gorm:"type:varchar(64)" json:"created_by,omitempty"`
	UpdatedBy   string         `gorm:"type:varchar(64)" json:"updated_by,omitempty"`
}

// TableName 指定表名
func (FormTemplateModel) TableName() string {
	return "form_templates"
}

// Schema 解析字段定义
func (m *FormTemplateModel) Schema() (*form.Schema, error) {
	var fields []form.Field
	if len(m.Fields) > 0 {
		if err := json.Unmarshal(m.Fields, &fields); err != nil {
			return nil, fmt.Errorf("failed to decode fields of template %q: %w", m.Kind, err)
		}
	}
	return form.NewSchema(m.Kind, fields), nil
}

// SetFields 序列化字段定义
func (m *FormTemplateModel) SetFields(fields []form.Field) error {
	if fields == nil {
		fields = []form.Field{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}
	m.Fields = datatypes.JSON(data)
	return nil
}

// Validate 验证模板模型
func (m *FormTemplateModel) Validate() error {
	if m.ID == "" {
		return errors.New("template ID is required")
	}
	if m.Kind == "" {
		return errors.New("template kind is required")
	}
	if m.Name == "" {
		return errors.New("template name is required")
	}
	return nil
}
