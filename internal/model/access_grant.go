package model

import (
	"errors"
	"time"
)

// AccessGrantModel 企业访问授权
// 每个实习最多一条,重新签发时原地替换令牌
type AccessGrantModel struct {
	ID           string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	PracticeID   string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"practice_id"`
	Token        string         `gorm:"type:varchar(128);not null;uniqueIndex" json:"-"`
	CompanyName  string         `gorm:"type:varchar(255)" json:"company_name"`
	CompanyEmail string         `gorm:"type:varchar(255)" json:"company_email"`
	ExpiresAt    time.Time      `gorm:"not null;index" json:"expires_at"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	Practice     *PracticeModel `gorm:"foreignKey:PracticeID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (AccessGrantModel) TableName() string {
	return "access_grants"
}

// Expired 判断授权在 now 时刻是否已过期
func (g *AccessGrantModel) Expired(now time.Time) bool {
	return g.ExpiresAt.Before(now)
}

// Validate 验证访问授权模型
func (g *AccessGrantModel) Validate() error {
	if g.ID == "" {
		return errors.New("access grant ID is required")
	}
	if g.PracticeID == "" {
		return errors.New("practice ID is required")
	}
	if g.Token == "" {
		return errors.New("access token is required")
	}
	return nil
}
