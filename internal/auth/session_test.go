package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mautops/practica-gin/internal/config"
	"github.com/mautops/practica-gin/internal/integration"
	"github.com/mautops/practica-gin/internal/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var coordinador = integration.Actor{ID: "coord-1", Name: "Coordinación", Email: "coord@uni.cl", Role: statemachine.RoleCoordinator}

func newValidator() *SessionValidator {
	return NewSessionValidator(config.AuthConfig{JWTSecret: "test-secret", Issuer: "practicas", TokenTTLHours: 1})
}

func TestSessionValidator_RoundTrip(t *testing.T) {
	v := newValidator()
	token, err := v.IssueToken(coordinador, 0)
	require.NoError(t, err)

	actor, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, coordinador, actor)
}

func TestSessionValidator_RejectsCompanyRole(t *testing.T) {
	v := newValidator()
	_, err := v.IssueToken(integration.Actor{ID: "acme", Role: statemachine.RoleCompany}, time.Hour)
	assert.Error(t, err)

	_, err = v.IssueToken(integration.Actor{Role: statemachine.RoleStudent}, time.Hour)
	assert.Error(t, err)
}

func TestSessionValidator_Expired(t *testing.T) {
	v := newValidator()
	token, err := v.IssueToken(coordinador, time.Minute)
	require.NoError(t, err)

	v.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = v.ValidateToken(token)
	assert.Error(t, err)
}

func TestSessionValidator_WrongSecretOrIssuer(t *testing.T) {
	token, err := newValidator().IssueToken(coordinador, time.Hour)
	require.NoError(t, err)

	other := NewSessionValidator(config.AuthConfig{JWTSecret: "other", Issuer: "practicas"})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	otherIssuer := NewSessionValidator(config.AuthConfig{JWTSecret: "test-secret", Issuer: "otro"})
	_, err = otherIssuer.ValidateToken(token)
	assert.Error(t, err)
}

func TestSessionValidator_RejectsUnknownRoleAndNone(t *testing.T) {
	claims := SessionClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "x",
			Issuer:    "practicas",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = newValidator().ValidateToken(signed)
	assert.Error(t, err)

	claims.Role = string(statemachine.RoleCoordinator)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = newValidator().ValidateToken(unsigned)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc"))
	assert.Empty(t, BearerToken("abc"))
	assert.Empty(t, BearerToken(""))
}

func newRouter(v *SessionValidator, roles ...statemachine.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", SessionMiddleware(v), RequireRole(roles...), func(c *gin.Context) {
		actor, _ := ActorFromContext(c)
		c.String(http.StatusOK, actor.ID)
	})
	return r
}

func TestSessionMiddleware(t *testing.T) {
	v := newValidator()
	r := newRouter(v, statemachine.RoleCoordinator)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := v.IssueToken(coordinador, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, coordinador.ID, w.Body.String())
}

func TestRequireRole_Forbidden(t *testing.T) {
	v := newValidator()
	r := newRouter(v, statemachine.RoleCoordinator)

	token, err := v.IssueToken(integration.Actor{ID: "stu-1", Role: statemachine.RoleStudent}, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "coordinador")
}
