package service

import (
	"context"
	"fmt"

	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/repository"
	"github.com/mautops/practica-gin/internal/statemachine"
	"gorm.io/gorm"
)

// StatisticsService 统计服务接口
type StatisticsService interface {
	PracticesByState(ctx context.Context) ([]*PracticeStatisticsByState, error)
	PracticesByLevel(ctx context.Context) ([]*PracticeStatisticsByLevel, error)
	Summary(ctx context.Context) (*PracticeSummary, error)
}

// PracticeStatisticsByState 按状态统计
type PracticeStatisticsByState struct {
	State string `json:"state"`
	Count int64  `json:"count"`
}

// PracticeStatisticsByLevel 按级别统计
type PracticeStatisticsByLevel struct {
	Level int   `json:"level"`
	Count int64 `json:"count"`
}

// PracticeSummary 实习概览
type PracticeSummary struct {
	Total             int64                        `json:"total"`
	Active            int64                        `json:"active"`
	PendingEvaluation int64                        `json:"pending_evaluation"`
	ByState           []*PracticeStatisticsByState `json:"by_state"`
	ByLevel           []*PracticeStatisticsByLevel `json:"by_level"`
	Notifications     map[string]int64             `json:"notifications"`
}

// statisticsService 统计服务实现
type statisticsService struct {
	db *gorm.DB
}

// NewStatisticsService 创建统计服务
func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// PracticesByState 按状态统计实习,按流程顺序输出所有状态
func (s *statisticsService) PracticesByState(ctx context.Context) ([]*PracticeStatisticsByState, error) {
	counts, err := repository.NewPracticeRepository(s.db.WithContext(ctx)).CountByState()
	if err != nil {
		return nil, fmt.Errorf("failed to get practice statistics by state: %w", err)
	}

	stats := make([]*PracticeStatisticsByState, 0, len(counts))
	for _, state := range statemachine.AllStates() {
		stats = append(stats, &PracticeStatisticsByState{State: string(state), Count: counts[string(state)]})
	}
	return stats, nil
}

// PracticesByLevel 按级别统计实习
func (s *statisticsService) PracticesByLevel(ctx context.Context) ([]*PracticeStatisticsByLevel, error) {
	var results []struct {
		Level int
		Count int64
	}
	err := s.db.WithContext(ctx).Model(&model.PracticeModel{}).
		Select("level, COUNT(*) as count").
		Group("level").
		Order("level").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get practice statistics by level: %w", err)
	}

	stats := make([]*PracticeStatisticsByLevel, 0, len(results))
	for _, r := range results {
		stats = append(stats, &PracticeStatisticsByLevel{Level: r.Level, Count: r.Count})
	}
	return stats, nil
}

// Summary 实习概览
func (s *statisticsService) Summary(ctx context.Context) (*PracticeSummary, error) {
	byState, err := s.PracticesByState(ctx)
	if err != nil {
		return nil, err
	}
	byLevel, err := s.PracticesByLevel(ctx)
	if err != nil {
		return nil, err
	}

	summary := &PracticeSummary{ByState: byState, ByLevel: byLevel}
	for _, st := range byState {
		summary.Total += st.Count
		if statemachine.State(st.State) != statemachine.StateClosed {
			summary.Active += st.Count
		}
	}

	if err := s.db.WithContext(ctx).Model(&model.PracticeModel{}).
		Where("evaluation_pending = ?", true).
		Count(&summary.PendingEvaluation).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending evaluations: %w", err)
	}

	summary.Notifications, err = repository.NewNotificationRepository(s.db.WithContext(ctx)).CountByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	return summary, nil
}
