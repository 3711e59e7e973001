package integration

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/practica-gin/internal/apperror"
	"github.com/mautops/practica-gin/internal/database"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/repository"
	"gorm.io/gorm"
)

// tokenBytes 访问令牌的随机字节数
const tokenBytes = 32

// AccessGrantManager 企业访问令牌的签发与校验
type AccessGrantManager struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewAccessGrantManager 创建访问授权管理器
func NewAccessGrantManager(db *gorm.DB, ttl time.Duration) *AccessGrantManager {
	return &AccessGrantManager{db: db, ttl: ttl, now: time.Now}
}

// WithTx 返回绑定到事务的副本
func (m *AccessGrantManager) WithTx(tx *gorm.DB) *AccessGrantManager {
	clone := *m
	clone.db = tx
	return &clone
}

// WithClock 替换时钟,用于测试
func (m *AccessGrantManager) WithClock(now func() time.Time) *AccessGrantManager {
	clone := *m
	clone.now = now
	return &clone
}

func (m *AccessGrantManager) repo(ctx context.Context) repository.AccessGrantRepository {
	return repository.NewAccessGrantRepository(m.db.WithContext(ctx))
}

// GenerateToken 生成 URL 安全的随机令牌
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Issue 为实习签发令牌,已有授权时原地替换令牌和有效期
func (m *AccessGrantManager) Issue(ctx context.Context, practiceID, companyName, companyEmail string) (*model.AccessGrantModel, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	repo := m.repo(ctx)
	grant, err := repo.FindByPracticeID(practiceID)
	if err != nil {
		if !database.IsNotFound(err) {
			return nil, fmt.Errorf("failed to find access grant: %w", err)
		}
		grant = &model.AccessGrantModel{
			ID:         uuid.New().String(),
			PracticeID: practiceID,
		}
	}

	grant.Token = token
	grant.CompanyName = companyName
	grant.CompanyEmail = companyEmail
	grant.ExpiresAt = m.now().Add(m.ttl)

	if err := grant.Validate(); err != nil {
		return nil, err
	}
	if err := repo.Save(grant); err != nil {
		return nil, fmt.Errorf("failed to save access grant: %w", err)
	}
	return grant, nil
}

// Validate 校验令牌,任何失败都返回同一个权限错误
func (m *AccessGrantManager) Validate(ctx context.Context, token string) (*model.AccessGrantModel, error) {
	denied := apperror.Permission("invalid or expired access token")
	if token == "" {
		return nil, denied
	}

	grant, err := m.repo(ctx).FindByToken(token)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, denied
		}
		return nil, fmt.Errorf("failed to find access grant: %w", err)
	}
	if grant.Expired(m.now()) {
		return nil, denied
	}

	var count int64
	if err := m.db.WithContext(ctx).Model(&model.PracticeModel{}).Where("id = ?", grant.PracticeID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check practice: %w", err)
	}
	if count == 0 {
		return nil, denied
	}
	return grant, nil
}

// FindByPractice 查找实习的授权
func (m *AccessGrantManager) FindByPractice(ctx context.Context, practiceID string) (*model.AccessGrantModel, error) {
	grant, err := m.repo(ctx).FindByPracticeID(practiceID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("access grant")
		}
		return nil, fmt.Errorf("failed to find access grant: %w", err)
	}
	return grant, nil
}

// Extend 延长有效期,新的到期时间为 now + ttl,不会提前已有的到期时间
func (m *AccessGrantManager) Extend(ctx context.Context, practiceID string, ttl time.Duration) (*model.AccessGrantModel, error) {
	if ttl <= 0 {
		return nil, apperror.Validation("ttl_hours must be positive", "ttl_hours")
	}

	grant, err := m.FindByPractice(ctx, practiceID)
	if err != nil {
		return nil, err
	}

	if expiry := m.now().Add(ttl); expiry.After(grant.ExpiresAt) {
		grant.ExpiresAt = expiry
	}
	if err := m.repo(ctx).Save(grant); err != nil {
		return nil, fmt.Errorf("failed to save access grant: %w", err)
	}
	return grant, nil
}

// Reissue 为同一企业重新签发令牌,旧令牌立即失效
func (m *AccessGrantManager) Reissue(ctx context.Context, practiceID string) (*model.AccessGrantModel, error) {
	grant, err := m.FindByPractice(ctx, practiceID)
	if err != nil {
		return nil, err
	}
	return m.Issue(ctx, practiceID, grant.CompanyName, grant.CompanyEmail)
}
