package model

import (
	"errors"
	"time"
)

// StateHistoryModel 状态变更历史数据模型
type StateHistoryModel struct {
	ID           string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	PracticeID   string         `gorm:"type:varchar(64);not null;index" json:"practice_id"`
	FromState    string         `gorm:"type:varchar(32)" json:"from_state"`
	ToState      string         `gorm:"type:varchar(32);not null" json:"to_state"`
	Action       string         `gorm:"type:varchar(32);not null" json:"action"`
	Reason       string         `gorm:"type:text" json:"reason,omitempty"`
	Operator     string         `gorm:"type:varchar(64);not null" json:"operator"`
	OperatorRole string         `gorm:"type:varchar(16);not null" json:"operator_role"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
	Practice     *PracticeModel `gorm:"foreignKey:PracticeID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (StateHistoryModel) TableName() string {
	return "state_history"
}

// Validate 验证状态历史模型
func (shm *StateHistoryModel) Validate() error {
	if shm.ID == "" {
		return errors.New("history ID is required")
	}
	if shm.PracticeID == "" {
		return errors.New("practice ID is required")
	}
	if shm.ToState == "" {
		return errors.New("to state is required")
	}
	if shm.Operator == "" {
		return errors.New("operator is required")
	}
	return nil
}
