package repository

import (
	"time"

	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/statemachine"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PracticeRepository 实习仓储接口
type PracticeRepository interface {
	Create(practice *model.PracticeModel) error
	FindByID(id string) (*model.PracticeModel, error)
	FindByIDForUpdate(id string) (*model.PracticeModel, error)
	UpdateVersioned(practice *model.PracticeModel) (bool, error)
	CountActiveByStudent(studentID string) (int64, error)
	FindByStudentID(studentID string) ([]*model.PracticeModel, error)
	FindDueForFinish(now time.Time) ([]*model.PracticeModel, error)
	CountByState() (map[string]int64, error)
	Delete(id string) error
}

// PracticeFilter 实习查询过滤器
type PracticeFilter struct {
	State     *string
	StudentID *string
}

// practiceRepository 实习仓储实现
type practiceRepository struct {
	db *gorm.DB
}

// NewPracticeRepository 创建实习仓储
func NewPracticeRepository(db *gorm.DB) PracticeRepository {
	return &practiceRepository{db: db}
}

// Create 创建实习
func (r *practiceRepository) Create(practice *model.PracticeModel) error {
	return r.db.Create(practice).Error
}

// FindByID 根据 ID 查找实习
func (r *practiceRepository) FindByID(id string) (*model.PracticeModel, error) {
	var practice model.PracticeModel
	if err := r.db.Where("id = ?", id).First(&practice).Error; err != nil {
		return nil, err
	}
	return &practice, nil
}

// FindByIDForUpdate 加行锁读取实习,需在事务中调用
func (r *practiceRepository) FindByIDForUpdate(id string) (*model.PracticeModel, error) {
	var practice model.PracticeModel
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&practice).Error; err != nil {
		return nil, err
	}
	return &practice, nil
}

// UpdateVersioned 以版本号为条件更新实习,成功后版本号加一
// 返回 false 表示记录已被其他请求修改
func (r *practiceRepository) UpdateVersioned(practice *model.PracticeModel) (bool, error) {
	expected := practice.Version
	practice.Version = expected + 1
	result := r.db.Model(&model.PracticeModel{}).
		Where("id = ? AND version = ?", practice.ID, expected).
		Select("*").
		Omit("id", "created_at").
		Updates(practice)
	if result.Error != nil {
		practice.Version = expected
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		practice.Version = expected
		return false, nil
	}
	return true, nil
}

// CountActiveByStudent 统计学生未关闭的实习数量
func (r *practiceRepository) CountActiveByStudent(studentID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.PracticeModel{}).
		Where("student_id = ? AND state IN ?", studentID, activeStates()).
		Count(&count).Error
	return count, err
}

// FindByStudentID 查找学生的所有实习
func (r *practiceRepository) FindByStudentID(studentID string) ([]*model.PracticeModel, error) {
	var practices []*model.PracticeModel
	err := r.db.Where("student_id = ?", studentID).Order("created_at DESC").Find(&practices).Error
	return practices, err
}

// FindDueForFinish 查找结束日期已过但仍在进行中的实习
func (r *practiceRepository) FindDueForFinish(now time.Time) ([]*model.PracticeModel, error) {
	var practices []*model.PracticeModel
	err := r.db.Where("state = ? AND end_date IS NOT NULL AND end_date < ?", string(statemachine.StateInProgress), now).
		Order("end_date ASC").
		Find(&practices).Error
	return practices, err
}

// CountByState 按状态统计实习数量
func (r *practiceRepository) CountByState() (map[string]int64, error) {
	var rows []struct {
		State string
		Count int64
	}
	if err := r.db.Model(&model.PracticeModel{}).
		Select("state, COUNT(*) AS count").
		Group("state").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Count
	}
	return counts, nil
}

// Delete 删除实习,关联的文档、授权和历史由外键级联删除
func (r *practiceRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.PracticeModel{}).Error
}

func activeStates() []string {
	states := statemachine.ActiveStates()
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}
