package service

import (
	"context"
	"fmt"

	"github.com/mautops/practica-gin/internal/apperror"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/repository"
	"github.com/mautops/practica-gin/internal/statemachine"
	"github.com/mautops/practica-gin/internal/utils"
	"gorm.io/gorm"
)

// QueryService 查询服务接口
type QueryService interface {
	ListPractices(ctx context.Context, filter *ListPracticesFilter) ([]*model.PracticeModel, int64, error)
	ListByStudent(ctx context.Context, studentID string) ([]*model.PracticeModel, error)
	GetHistory(ctx context.Context, practiceID string) ([]*StateHistory, error)
	GetDocuments(ctx context.Context, practiceID string) ([]*model.AnswerDocumentModel, error)
	GetNotifications(ctx context.Context, practiceID string) ([]*model.NotificationModel, error)
}

// ListPracticesFilter 实习列表查询过滤器
type ListPracticesFilter struct {
	State     *string
	StudentID *string
	Level     *int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	Order     string
}

// StateHistory 状态历史
type StateHistory struct {
	ID           string `json:"id"`
	PracticeID   string `json:"practice_id"`
	FromState    string `json:"from_state"`
	ToState      string `json:"to_state"`
	Action       string `json:"action"`
	Reason       string `json:"reason,omitempty"`
	Operator     string `json:"operator"`
	OperatorRole string `json:"operator_role"`
	CreatedAt    string `json:"created_at"`
}

var practiceSortFields = []string{"created_at", "updated_at", "state", "end_date", "student_name", "company_name"}

// queryService 查询服务实现
type queryService struct {
	db *gorm.DB
}

// NewQueryService 创建查询服务
func NewQueryService(db *gorm.DB) QueryService {
	return &queryService{db: db}
}

// ListPractices 列出实习
func (s *queryService) ListPractices(ctx context.Context, filter *ListPracticesFilter) ([]*model.PracticeModel, int64, error) {
	if filter == nil {
		filter = &ListPracticesFilter{}
	}
	query := s.db.WithContext(ctx).Model(&model.PracticeModel{})

	if filter.State != nil {
		if !statemachine.IsValid(statemachine.State(*filter.State)) {
			return nil, 0, apperror.Validation(fmt.Sprintf("unknown state %q", *filter.State), "state")
		}
		query = query.Where("state = ?", *filter.State)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Level != nil {
		query = query.Where("level = ?", *filter.Level)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("student_name LIKE ? OR company_name LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count practices: %w", err)
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	if err := utils.ValidateSortField(sortBy, practiceSortFields...); err != nil {
		return nil, 0, apperror.Validation(err.Error(), "sort_by")
	}
	order := filter.Order
	if order == "" {
		order = "desc"
	}
	if err := utils.ValidateSortOrder(order); err != nil {
		return nil, 0, apperror.Validation(err.Error(), "order")
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, utils.SanitizeSortOrder(order)))

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	var practices []*model.PracticeModel
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&practices).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to query practices: %w", err)
	}
	return practices, total, nil
}

// ListByStudent 学生的所有实习
func (s *queryService) ListByStudent(ctx context.Context, studentID string) ([]*model.PracticeModel, error) {
	practices, err := repository.NewPracticeRepository(s.db.WithContext(ctx)).FindByStudentID(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list practices: %w", err)
	}
	return practices, nil
}

// GetHistory 获取状态历史
func (s *queryService) GetHistory(ctx context.Context, practiceID string) ([]*StateHistory, error) {
	models, err := repository.NewStateHistoryRepository(s.db.WithContext(ctx)).FindByPracticeID(practiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	histories := make([]*StateHistory, 0, len(models))
	for _, m := range models {
		histories = append(histories, &StateHistory{
			ID:           m.ID,
			PracticeID:   m.PracticeID,
			FromState:    m.FromState,
			ToState:      m.ToState,
			Action:       m.Action,
			Reason:       m.Reason,
			Operator:     m.Operator,
			OperatorRole: m.OperatorRole,
			CreatedAt:    m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return histories, nil
}

// GetDocuments 获取实习的答案文档
func (s *queryService) GetDocuments(ctx context.Context, practiceID string) ([]*model.AnswerDocumentModel, error) {
	docs, err := repository.NewAnswerDocumentRepository(s.db.WithContext(ctx)).FindByPracticeID(practiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}
	return docs, nil
}

// GetNotifications 获取实习的通知记录
func (s *queryService) GetNotifications(ctx context.Context, practiceID string) ([]*model.NotificationModel, error) {
	records, err := repository.NewNotificationRepository(s.db.WithContext(ctx)).FindByPracticeID(practiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	return records, nil
}
