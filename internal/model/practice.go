package model

import (
	"errors"
	"time"

	"github.com/mautops/practica-gin/internal/form"
	"github.com/mautops/practica-gin/internal/statemachine"
)

// PracticeModel 实习记录数据模型
type PracticeModel struct {
	ID                  string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	StudentID           string     `gorm:"type:varchar(64);not null;index" json:"student_id"`
	StudentName         string     `gorm:"type:varchar(255)" json:"student_name"`
	StudentEmail        string     `gorm:"type:varchar(255)" json:"student_email"`
	CompanyRef          string     `gorm:"type:varchar(128)" json:"company_ref,omitempty"`
	CompanyName         string     `gorm:"type:varchar(255)" json:"company_name"`
	State               string     `gorm:"type:varchar(32);not null;index" json:"state"`
	Level               int        `gorm:"type:int;not null;default:1" json:"level"` // 1 或 2,决定评估表单
	StartDate           *time.Time `json:"start_date,omitempty"`
	EndDate             *time.Time `gorm:"index" json:"end_date,omitempty"`
	ClosedAt            *time.Time `json:"closed_at,omitempty"`
	ClosedBy            string     `gorm:"type:varchar(64)" json:"closed_by,omitempty"`
	EvaluationPending   bool       `gorm:"not null;default:false" json:"evaluation_pending"`
	EvaluationCompleted bool       `gorm:"not null;default:false" json:"evaluation_completed"`
	CorrectionTarget    string     `gorm:"type:varchar(16)" json:"correction_target,omitempty"` // alumno/empresa/ambos
	StudentCorrected    bool       `gorm:"not null;default:false" json:"student_corrected"`
	CompanyCorrected    bool       `gorm:"not null;default:false" json:"company_corrected"`
	Version             int        `gorm:"type:int;not null;default:1" json:"version"`
	CreatedAt           time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (PracticeModel) TableName() string {
	return "practices"
}

// CurrentState 当前状态
func (p *PracticeModel) CurrentState() statemachine.State {
	return statemachine.State(p.State)
}

// EvaluationKind 该实习使用的评估表单类型
func (p *PracticeModel) EvaluationKind() string {
	return form.EvaluationKind(p.Level)
}

// Validate 验证实习模型
func (p *PracticeModel) Validate() error {
	if p.ID == "" {
		return errors.New("practice ID is required")
	}
	if p.StudentID == "" {
		return errors.New("student ID is required")
	}
	if !statemachine.IsValid(p.CurrentState()) {
		return errors.New("practice state is invalid")
	}
	if p.Level != 1 && p.Level != 2 {
		return errors.New("practice level must be 1 or 2")
	}
	return nil
}
