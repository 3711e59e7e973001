package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mautops/practica-gin/internal/config"
	"github.com/mautops/practica-gin/internal/integration"
	"github.com/mautops/practica-gin/internal/statemachine"
)

// ContextKeyActor gin 上下文中保存当前操作者的键
const ContextKeyActor = "actor"

// SessionClaims 会话令牌声明
type SessionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SessionValidator HS256 会话令牌验证器
type SessionValidator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionValidator 创建会话验证器
func NewSessionValidator(cfg config.AuthConfig) *SessionValidator {
	ttl := time.Duration(cfg.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionValidator{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issuer 返回签发者
func (v *SessionValidator) Issuer() string {
	return v.issuer
}

// IssueToken 为操作者签发会话令牌
// 仅学生和协调员持有会话,企业使用访问令牌
func (v *SessionValidator) IssueToken(actor integration.Actor, ttl time.Duration) (string, error) {
	if actor.ID == "" {
		return "", errors.New("subject is required")
	}
	if actor.Role != statemachine.RoleStudent && actor.Role != statemachine.RoleCoordinator {
		return "", fmt.Errorf("role %q cannot hold a session", actor.Role)
	}
	if ttl <= 0 {
		ttl = v.ttl
	}

	now := v.now()
	claims := SessionClaims{
		Name:  actor.Name,
		Email: actor.Email,
		Role:  string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// ValidateToken 验证会话令牌并返回操作者
func (v *SessionValidator) ValidateToken(tokenString string) (integration.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return integration.Actor{}, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return integration.Actor{}, errors.New("invalid token")
	}

	role := statemachine.Role(claims.Role)
	if role != statemachine.RoleStudent && role != statemachine.RoleCoordinator {
		return integration.Actor{}, fmt.Errorf("unsupported role %q", claims.Role)
	}
	if claims.Subject == "" {
		return integration.Actor{}, errors.New("missing subject")
	}

	return integration.Actor{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  role,
	}, nil
}

// BearerToken 从 Authorization 头提取令牌
func BearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// SessionMiddleware 会话认证中间件
func SessionMiddleware(validator *SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "missing authorization header",
			})
			return
		}

		actor, err := validator.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "invalid token",
			})
			return
		}

		c.Set(ContextKeyActor, actor)
		c.Set("user_id", actor.ID)
		c.Next()
	}
}

// ActorFromContext 从 gin 上下文获取当前操作者
func ActorFromContext(c *gin.Context) (integration.Actor, bool) {
	v, ok := c.Get(ContextKeyActor)
	if !ok {
		return integration.Actor{}, false
	}
	actor, ok := v.(integration.Actor)
	return actor, ok
}
