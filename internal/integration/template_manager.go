package integration

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/practica-gin/internal/apperror"
	"github.com/mautops/practica-gin/internal/database"
	"github.com/mautops/practica-gin/internal/form"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/repository"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed seed/templates.yaml
var defaultSeed []byte

// SeedTemplate 种子文件中的模板定义
type SeedTemplate struct {
	Kind        string       `yaml:"kind"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Fields      []form.Field `yaml:"fields"`
}

// CreateTemplateInput 创建模板参数
type CreateTemplateInput struct {
	Kind        string
	Name        string
	Description string
	Fields      []form.Field
	Actor       string
}

// UpdateTemplateInput 更新模板参数,nil 表示不修改
// Fields 非 nil 时整体替换
type UpdateTemplateInput struct {
	Name        *string
	Description *string
	Fields      *[]form.Field
	Actor       string
}

// TemplateManager 表单模板注册表
type TemplateManager struct {
	db *gorm.DB
}

// NewTemplateManager 创建模板管理器
func NewTemplateManager(db *gorm.DB) *TemplateManager {
	return &TemplateManager{db: db}
}

// WithTx 返回绑定到事务的副本
func (m *TemplateManager) WithTx(tx *gorm.DB) *TemplateManager {
	return &TemplateManager{db: tx}
}

func (m *TemplateManager) repo(ctx context.Context) repository.FormTemplateRepository {
	return repository.NewFormTemplateRepository(m.db.WithContext(ctx))
}

// GetByKind 按类型获取模板
func (m *TemplateManager) GetByKind(ctx context.Context, kind string) (*model.FormTemplateModel, error) {
	tpl, err := m.repo(ctx).FindByKind(kind)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound(fmt.Sprintf("template %q", kind))
		}
		return nil, fmt.Errorf("failed to get template %q: %w", kind, err)
	}
	return tpl, nil
}

// SchemaFor 按类型获取模板及其字段结构
func (m *TemplateManager) SchemaFor(ctx context.Context, kind string) (*model.FormTemplateModel, *form.Schema, error) {
	tpl, err := m.GetByKind(ctx, kind)
	if err != nil {
		return nil, nil, err
	}
	schema, err := tpl.Schema()
	if err != nil {
		return nil, nil, err
	}
	return tpl, schema, nil
}

// Get 按 ID 获取模板
func (m *TemplateManager) Get(ctx context.Context, id string) (*model.FormTemplateModel, error) {
	tpl, err := m.repo(ctx).FindByID(id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("template")
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tpl, nil
}

// List 列出所有模板
func (m *TemplateManager) List(ctx context.Context) ([]*model.FormTemplateModel, error) {
	templates, err := m.repo(ctx).FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// Create 创建模板
func (m *TemplateManager) Create(ctx context.Context, in CreateTemplateInput) (*model.FormTemplateModel, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperror.Validation("template name is required", "name")
	}
	schema := form.NewSchema(in.Kind, in.Fields)
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	repo := m.repo(ctx)
	exists, err := repo.ExistsByKind(in.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to check template kind: %w", err)
	}
	if exists {
		return nil, apperror.Duplicate(fmt.Sprintf("template kind %q already exists", in.Kind))
	}

	now := time.Now()
	tpl := &model.FormTemplateModel{
		ID:          uuid.New().String(),
		Kind:        in.Kind,
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   in.Actor,
		UpdatedBy:   in.Actor,
	}
	if err := tpl.SetFields(in.Fields); err != nil {
		return nil, err
	}

	if err := repo.Create(tpl); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Duplicate(fmt.Sprintf("template kind %q already exists", in.Kind))
		}
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return tpl, nil
}

// Update 更新模板,不保留历史版本
// 已删除字段在答案文档中的值保持不变
func (m *TemplateManager) Update(ctx context.Context, id string, in UpdateTemplateInput) (*model.FormTemplateModel, error) {
	tpl, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperror.Validation("template name is required", "name")
		}
		tpl.Name = *in.Name
	}
	if in.Description != nil {
		tpl.Description = *in.Description
	}
	if in.Fields != nil {
		if err := form.NewSchema(tpl.Kind, *in.Fields).Validate(); err != nil {
			return nil, err
		}
		if err := tpl.SetFields(*in.Fields); err != nil {
			return nil, err
		}
	}
	tpl.UpdatedBy = in.Actor
	tpl.UpdatedAt = time.Now()

	if err := m.repo(ctx).Save(tpl); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return tpl, nil
}

// Delete 删除模板
// 受保护的类型和仍被答案文档引用的模板不可删除
func (m *TemplateManager) Delete(ctx context.Context, id string) (*model.FormTemplateModel, error) {
	tpl, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if form.IsProtectedKind(tpl.Kind) {
		return nil, apperror.Permission(fmt.Sprintf("template %q is protected", tpl.Kind))
	}

	count, err := repository.NewAnswerDocumentRepository(m.db.WithContext(ctx)).CountByTemplateID(tpl.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count answer documents: %w", err)
	}
	if count > 0 {
		return nil, apperror.Validation(fmt.Sprintf("template %q is referenced by %d answer documents", tpl.Kind, count), "id")
	}

	if err := m.repo(ctx).Delete(tpl.ID); err != nil {
		return nil, fmt.Errorf("failed to delete template: %w", err)
	}
	return tpl, nil
}

// LoadSeedTemplates 读取种子模板,path 为空时使用内置定义
func LoadSeedTemplates(path string) ([]SeedTemplate, error) {
	data := defaultSeed
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
		data = raw
	}

	var seeds []SeedTemplate
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse seed templates: %w", err)
	}
	return seeds, nil
}

// Seed 创建缺失的模板,已存在的类型保持不变
func (m *TemplateManager) Seed(ctx context.Context, seeds []SeedTemplate) (int, error) {
	created := 0
	for _, s := range seeds {
		exists, err := m.repo(ctx).ExistsByKind(s.Kind)
		if err != nil {
			return created, fmt.Errorf("failed to check template kind: %w", err)
		}
		if exists {
			continue
		}
		if _, err := m.Create(ctx, CreateTemplateInput{
			Kind:        s.Kind,
			Name:        s.Name,
			Description: s.Description,
			Fields:      s.Fields,
			Actor:       "sistema",
		}); err != nil {
			return created, fmt.Errorf("failed to seed template %q: %w", s.Kind, err)
		}
		created++
	}
	return created, nil
}
