package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mautops/practica-gin/internal/apperror"
	"github.com/mautops/practica-gin/internal/form"
	"github.com/mautops/practica-gin/internal/integration"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/utils"
	"gorm.io/gorm"
)

// TemplateService 模板服务接口
type TemplateService interface {
	Create(ctx context.Context, req *CreateTemplateRequest) (*model.FormTemplateModel, error)
	GetByKind(ctx context.Context, kind string) (*model.FormTemplateModel, error)
	Update(ctx context.Context, id string, req *UpdateTemplateRequest) (*model.FormTemplateModel, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *TemplateListFilter) (*TemplateListResponse, error)
}

// CreateTemplateRequest 创建模板请求
// @Description 创建表单模板的请求参数
type CreateTemplateRequest struct {
	Kind        string       `json:"kind" example:"informe_final" binding:"required"` // 表单类型
	Name        string       `json:"name" example:"Informe final" binding:"required"` // 模板名称
	Description string       `json:"description" example:"Informe final del alumno"`  // 模板描述
	Fields      []form.Field `json:"fields" binding:"required,dive"`                   // 有序的字段定义
}

// UpdateTemplateRequest 更新模板请求
// @Description 更新表单模板的请求参数,省略的属性保持不变,fields 整体替换
type UpdateTemplateRequest struct {
	Name        *string       `json:"name" example:"Informe final"` // 模板名称
	Description *string       `json:"description"`                  // 模板描述
	Fields      *[]form.Field `json:"fields"`                       // 字段定义
}

// TemplateListFilter 模板列表查询过滤器
type TemplateListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	SortBy   string `form:"sort_by"`
	Order    string `form:"order"` // asc/desc
}

// TemplateListResponse 模板列表响应
type TemplateListResponse struct {
	Data       []*model.FormTemplateModel `json:"data"`
	Pagination PaginationInfo             `json:"pagination"`
}

// PaginationInfo 分页信息
type PaginationInfo struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int   `json:"total_page"`
}

func newPagination(page, pageSize int, total int64) PaginationInfo {
	totalPage := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPage++
	}
	return PaginationInfo{Page: page, PageSize: pageSize, Total: total, TotalPage: totalPage}
}

var templateSortFields = []string{"created_at", "updated_at", "kind", "name"}

// templateCacheEntry 模板缓存条目
type templateCacheEntry struct {
	template  *model.FormTemplateModel
	expiresAt time.Time
}

// templateService 模板服务实现
type templateService struct {
	templateMgr *integration.TemplateManager
	db          *gorm.DB
	auditLogSvc AuditLogService
	cache       *sync.Map
	cacheTTL    time.Duration
}

// NewTemplateService 创建模板服务
func NewTemplateService(templateMgr *integration.TemplateManager, db *gorm.DB, auditLogSvc AuditLogService) TemplateService {
	return &templateService{
		templateMgr: templateMgr,
		db:          db,
		auditLogSvc: auditLogSvc,
		cache:       &sync.Map{},
		cacheTTL:    5 * time.Minute, // 默认缓存 5 分钟
	}
}

func validateName(name string) error {
	if err := utils.ValidateTemplateName(name); err != nil {
		return apperror.Validation(err.Error(), "name")
	}
	return nil
}

// Create 创建模板
func (s *templateService) Create(ctx context.Context, req *CreateTemplateRequest) (*model.FormTemplateModel, error) {
	if err := validateName(req.Name); err != nil {
		return nil, err
	}

	tpl, err := s.templateMgr.Create(ctx, integration.CreateTemplateInput{
		Kind:        req.Kind,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Fields:      req.Fields,
		Actor:       getUserIDFromContext(ctx),
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, "create", tpl)
	return tpl, nil
}

// GetByKind 按类型获取模板（带缓存）
func (s *templateService) GetByKind(ctx context.Context, kind string) (*model.FormTemplateModel, error) {
	if val, found := s.cache.Load(kind); found {
		entry := val.(*templateCacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return entry.template, nil
		}
		s.cache.Delete(kind)
	}

	tpl, err := s.templateMgr.GetByKind(ctx, kind)
	if err != nil {
		return nil, err
	}

	s.cache.Store(kind, &templateCacheEntry{
		template:  tpl,
		expiresAt: time.Now().Add(s.cacheTTL),
	})
	return tpl, nil
}

// Update 更新模板
func (s *templateService) Update(ctx context.Context, id string, req *UpdateTemplateRequest) (*model.FormTemplateModel, error) {
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return nil, err
		}
	}

	tpl, err := s.templateMgr.Update(ctx, id, integration.UpdateTemplateInput{
		Name:        req.Name,
		Description: req.Description,
		Fields:      req.Fields,
		Actor:       getUserIDFromContext(ctx),
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(tpl.Kind)
	s.record(ctx, "update", tpl)
	return tpl, nil
}

// Delete 删除模板
func (s *templateService) Delete(ctx context.Context, id string) error {
	tpl, err := s.templateMgr.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.cache.Delete(tpl.Kind)
	s.record(ctx, "delete", tpl)
	return nil
}

// List 查询模板列表
func (s *templateService) List(ctx context.Context, filter *TemplateListFilter) (*TemplateListResponse, error) {
	if filter == nil {
		filter = &TemplateListFilter{}
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if filter.SortBy == "" {
		filter.SortBy = "kind"
	}
	if filter.Order == "" {
		filter.Order = "asc"
	}
	if err := utils.ValidateSortField(filter.SortBy, templateSortFields...); err != nil {
		return nil, apperror.Validation(err.Error(), "sort_by")
	}
	if err := utils.ValidateSortOrder(filter.Order); err != nil {
		return nil, apperror.Validation(err.Error(), "order")
	}

	query := s.db.WithContext(ctx).Model(&model.FormTemplateModel{})
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ? OR kind LIKE ?", searchPattern, searchPattern, searchPattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count templates: %w", err)
	}

	var templates []*model.FormTemplateModel
	if err := query.
		Order(fmt.Sprintf("%s %s", filter.SortBy, utils.SanitizeSortOrder(filter.Order))).
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to find templates: %w", err)
	}

	return &TemplateListResponse{
		Data:       templates,
		Pagination: newPagination(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *templateService) record(ctx context.Context, action string, tpl *model.FormTemplateModel) {
	if s.auditLogSvc == nil {
		return
	}
	userID := getUserIDFromContext(ctx)
	if userID == "" {
		return
	}
	details := map[string]interface{}{"kind": tpl.Kind, "name": tpl.Name}
	_ = s.auditLogSvc.RecordAction(ctx, userID, action, "template", tpl.ID, details)
}
