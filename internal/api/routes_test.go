package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mautops/practica-gin/internal/api"
	"github.com/mautops/practica-gin/internal/auth"
	"github.com/mautops/practica-gin/internal/config"
	"github.com/mautops/practica-gin/internal/database"
	"github.com/mautops/practica-gin/internal/form"
	"github.com/mautops/practica-gin/internal/integration"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/notify"
	"github.com/mautops/practica-gin/internal/repository"
	"github.com/mautops/practica-gin/internal/service"
	"github.com/mautops/practica-gin/internal/statemachine"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	alumno      = integration.Actor{ID: "stu-1", Name: "Ana Pérez", Email: "ana@alumnos.cl", Role: statemachine.RoleStudent}
	otroAlumno  = integration.Actor{ID: "stu-2", Name: "Luis Soto", Email: "luis@alumnos.cl", Role: statemachine.RoleStudent}
	coordinador = integration.Actor{ID: "coord-1", Name: "Coordinación", Email: "coord@uni.cl", Role: statemachine.RoleCoordinator}
)

type apiFixture struct {
	t         *testing.T
	router    *gin.Engine
	db        *gorm.DB
	validator *auth.SessionValidator
}

// envelope 统一响应,data 延迟解析
type envelope struct {
	Code       int                `json:"code"`
	Message    string             `json:"message"`
	Data       json.RawMessage    `json:"data"`
	Pagination api.PaginationInfo `json:"pagination"`
}

type transitionBody struct {
	Practice    model.PracticeModel `json:"practice"`
	Waiting     bool                `json:"waiting"`
	AccessToken string              `json:"access_token"`
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db, err := database.OpenInMemory(uuid.New().String())
	require.NoError(t, err)

	ctx := context.Background()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	templates := integration.NewTemplateManager(db)
	seeds, err := integration.LoadSeedTemplates("")
	require.NoError(t, err)
	_, err = templates.Seed(ctx, seeds)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.RateLimit.Enabled = false

	dispatcher := integration.NewNotificationDispatcher(db, notify.NewLogNotifier(logger), logger, integration.DispatcherOptions{Workers: 1})
	t.Cleanup(dispatcher.Close)

	grants := integration.NewAccessGrantManager(db, 72*time.Hour)
	composer := integration.NewNotificationComposer(config.NotifyConfig{CoordinatorEmail: "coord@uni.cl"})
	manager := integration.NewPracticeManager(db, templates, grants, dispatcher, composer, logger)

	auditSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	validator := auth.NewSessionValidator(cfg.Auth)

	router := api.SetupRoutes(api.RouterDeps{
		Config:            cfg,
		DB:                db,
		Validator:         validator,
		PracticeService:   service.NewPracticeService(manager, auditSvc),
		TemplateService:   service.NewTemplateService(templates, db, auditSvc),
		QueryService:      service.NewQueryService(db),
		StatisticsService: service.NewStatisticsService(db),
	})

	return &apiFixture{t: t, router: router, db: db, validator: validator}
}

func (f *apiFixture) token(actor integration.Actor) string {
	f.t.Helper()
	token, err := f.validator.IssueToken(actor, time.Hour)
	require.NoError(f.t, err)
	return token
}

// do 发送请求,actor 为零值时不带会话
func (f *apiFixture) do(method, path string, actor integration.Actor, body interface{}) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor.ID != "" {
		req.Header.Set("Authorization", "Bearer "+f.token(actor))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) decode(w *httptest.ResponseRecorder, out interface{}) envelope {
	f.t.Helper()
	var env envelope
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil {
		require.NoError(f.t, json.Unmarshal(env.Data, out))
	}
	return env
}

// transition 请求状态转换并断言成功
func (f *apiFixture) transition(method, path string, actor integration.Actor, body interface{}) (transitionBody, string) {
	f.t.Helper()
	w := f.do(method, path, actor, body)
	require.Equal(f.t, http.StatusOK, w.Code, w.Body.String())
	var out transitionBody
	env := f.decode(w, &out)
	return out, env.Message
}

func (f *apiFixture) grantToken(practiceID string) string {
	f.t.Helper()
	var grant model.AccessGrantModel
	require.NoError(f.t, f.db.Where("practice_id = ?", practiceID).First(&grant).Error)
	return grant.Token
}

func applyBody() service.ApplyRequest {
	return service.ApplyRequest{
		EmpresaNombre: "Acme SpA",
		EmpresaCorreo: "rrhh@acme.cl",
		Respuestas: form.Answers{
			"nombre_alumno": "Ana Pérez",
			"rut_alumno":    "11.111.111-1",
			"carrera":       "Ingeniería Informática",
			"correo_alumno": "ana@alumnos.cl",
			"tareas":        "Desarrollo backend",
		},
	}
}

func confirmBody(token string) service.ConfirmStartRequest {
	return service.ConfirmStartRequest{
		Token:        token,
		Confirmacion: true,
		Respuestas: form.Answers{
			"razon_social":      "Acme SpA",
			"supervisor_nombre": "Juan Rojas",
			"supervisor_correo": "juan@acme.cl",
			"fecha_inicio":      "2026-03-02",
			"fecha_termino":     "2026-06-30",
			"horario":           map[string]interface{}{"lunes": "09:00-18:00"},
			"firma_supervisor":  "data:image/png;base64,AAAA",
		},
	}
}

// TestRoutes_FullLifecycle 从申请到结案的完整流程
func TestRoutes_FullLifecycle(t *testing.T) {
	f := newAPIFixture(t)

	// 1. 学生申请
	applied, _ := f.transition(http.MethodPost, "/api/v1/practicas/postular", alumno, applyBody())
	id := applied.Practice.ID
	require.NotEmpty(t, id)
	assert.Equal(t, string(statemachine.StatePendingReview), applied.Practice.State)

	// 申请响应携带企业令牌,详情接口不暴露
	token := f.grantToken(id)
	assert.Equal(t, token, applied.AccessToken)
	w := f.do(http.MethodGet, "/api/v1/practicas/"+id, alumno, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), token)

	// 2. 转交企业
	sent, _ := f.transition(http.MethodPost, "/api/v1/coordinador/practicas/"+id+"/enviar-empresa", coordinador, nil)
	assert.Equal(t, string(statemachine.StateSentToCompany), sent.Practice.State)

	// 3. 企业查看并确认
	w = f.do(http.MethodGet, "/api/v1/empresa/practica?token="+token, integration.Actor{}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view api.CompanyViewResponse
	f.decode(w, &view)
	assert.Equal(t, id, view.Practice.ID)
	assert.NotEmpty(t, view.Postulation)

	confirmed, _ := f.transition(http.MethodPost, "/api/v1/empresa/confirmar-inicio-practica", integration.Actor{}, confirmBody(token))
	assert.Equal(t, string(statemachine.StatePendingValidation), confirmed.Practice.State)

	// 4. 审核通过,重复请求按已处理返回
	approve := service.EvaluateRequest{Decision: "aprobar"}
	approved, message := f.transition(http.MethodPut, "/api/v1/coordinador/evaluar/"+id, coordinador, approve)
	assert.Equal(t, string(statemachine.StateInProgress), approved.Practice.State)
	assert.Equal(t, "success", message)

	replayed, message := f.transition(http.MethodPut, "/api/v1/coordinador/evaluar/"+id, coordinador, approve)
	assert.Equal(t, string(statemachine.StateInProgress), replayed.Practice.State)
	assert.Equal(t, api.MessageAlreadyProcessed, message)

	// 5. 日志
	logbook := service.AnswersRequest{Respuestas: form.Answers{"semana": 1, "actividades": "Onboarding", "horas": 40}}
	f.transition(http.MethodPost, "/api/v1/practicas/"+id+"/bitacora", alumno, logbook)

	// 6. 结束并由企业评估
	finished, _ := f.transition(http.MethodPost, "/api/v1/coordinador/practicas/"+id+"/finalizar", coordinador, nil)
	assert.Equal(t, string(statemachine.StateFinished), finished.Practice.State)
	assert.True(t, finished.Practice.EvaluationPending)

	evaluation := service.SubmitEvaluationRequest{
		Token: token,
		Respuestas: form.Answers{
			"puntualidad":       "excelente",
			"trabajo_en_equipo": "bueno",
			"nota":              6.5,
			"firma_supervisor":  "data:image/png;base64,BBBB",
		},
	}
	evaluated, _ := f.transition(http.MethodPost, "/api/v1/empresa/enviar-evaluacion", integration.Actor{}, evaluation)
	assert.Equal(t, string(statemachine.StateEvaluated), evaluated.Practice.State)
	_, message = f.transition(http.MethodPost, "/api/v1/empresa/enviar-evaluacion", integration.Actor{}, evaluation)
	assert.Equal(t, api.MessageAlreadyProcessed, message)

	// 7. 结案
	closed, _ := f.transition(http.MethodPatch, "/api/v1/practicas/"+id+"/cerrar", coordinador, nil)
	assert.Equal(t, string(statemachine.StateClosed), closed.Practice.State)

	// 历史只记录状态变化
	w = f.do(http.MethodGet, "/api/v1/practicas/"+id+"/historial", alumno, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []service.StateHistory
	f.decode(w, &history)
	states := make([]string, 0, len(history))
	for _, h := range history {
		states = append(states, h.ToState)
	}
	assert.Equal(t, []string{
		string(statemachine.StatePendingReview),
		string(statemachine.StateSentToCompany),
		string(statemachine.StatePendingValidation),
		string(statemachine.StateInProgress),
		string(statemachine.StateFinished),
		string(statemachine.StateEvaluated),
		string(statemachine.StateClosed),
	}, states)

	w = f.do(http.MethodGet, "/api/v1/practicas/"+id+"/documentos", alumno, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var docs []model.AnswerDocumentModel
	f.decode(w, &docs)
	assert.Len(t, docs, 3)

	// 通知记录由后台 worker 写入
	require.Eventually(t, func() bool {
		w := f.do(http.MethodGet, "/api/v1/coordinador/practicas/"+id+"/notificaciones", coordinador, nil)
		if w.Code != http.StatusOK {
			return false
		}
		var env envelope
		var notifications []model.NotificationModel
		if json.Unmarshal(w.Body.Bytes(), &env) != nil || json.Unmarshal(env.Data, &notifications) != nil {
			return false
		}
		return len(notifications) > 0
	}, time.Second, 10*time.Millisecond)
}

// TestRoutes_Authentication 会话与角色检查
func TestRoutes_Authentication(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/api/v1/practicas/mias", integration.Actor{}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/practicas/mias", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 协调员不能申请,学生不能审核
	w = f.do(http.MethodPost, "/api/v1/practicas/postular", coordinador, applyBody())
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(http.MethodPut, "/api/v1/coordinador/evaluar/any", alumno, service.EvaluateRequest{Decision: "aprobar"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(http.MethodGet, "/api/v1/practicas", alumno, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// TestRoutes_ErrorMapping 领域错误映射为 HTTP 状态码
func TestRoutes_ErrorMapping(t *testing.T) {
	f := newAPIFixture(t)

	applied, _ := f.transition(http.MethodPost, "/api/v1/practicas/postular", alumno, applyBody())
	id := applied.Practice.ID

	// 已有进行中的实习
	w := f.do(http.MethodPost, "/api/v1/practicas/postular", alumno, applyBody())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate", decodeError(t, w).Message)

	// 缺少必填字段
	body := applyBody()
	delete(body.Respuestas, "rut_alumno")
	w = f.do(http.MethodPost, "/api/v1/practicas/postular", otroAlumno, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Fields, "rut_alumno")

	// 请求体绑定失败
	w = f.do(http.MethodPost, "/api/v1/practicas/postular", otroAlumno, map[string]string{"empresa_correo": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 他人的实习,无论当前状态都按无权限处理
	w = f.do(http.MethodGet, "/api/v1/practicas/"+id, otroAlumno, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(http.MethodPost, "/api/v1/practicas/"+id+"/corregir", otroAlumno, service.AnswersRequest{Respuestas: form.Answers{"tareas": "QA"}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), string(statemachine.StatePendingReview))

	// 状态不允许
	w = f.do(http.MethodPut, "/api/v1/coordinador/evaluar/"+id, coordinador, service.EvaluateRequest{Decision: "aprobar"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "state conflict", decodeError(t, w).Message)

	// 不存在的实习
	w = f.do(http.MethodGet, "/api/v1/practicas/"+uuid.New().String(), coordinador, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 无效的企业令牌
	w = f.do(http.MethodGet, "/api/v1/empresa/practica?token=bogus", integration.Actor{}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(http.MethodPost, "/api/v1/empresa/confirmar-inicio-practica", integration.Actor{}, confirmBody("bogus"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// TestRoutes_ReissueAccess 重新签发后旧令牌失效,响应携带新令牌
func TestRoutes_ReissueAccess(t *testing.T) {
	f := newAPIFixture(t)

	applied, _ := f.transition(http.MethodPost, "/api/v1/practicas/postular", alumno, applyBody())
	id := applied.Practice.ID
	old := applied.AccessToken
	require.NotEmpty(t, old)

	w := f.do(http.MethodPost, "/api/v1/coordinador/practicas/"+id+"/acceso", coordinador, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var grant api.AccessGrantResponse
	f.decode(w, &grant)
	assert.Equal(t, id, grant.PracticeID)
	assert.NotEmpty(t, grant.AccessToken)
	assert.NotEqual(t, old, grant.AccessToken)
	assert.Equal(t, f.grantToken(id), grant.AccessToken)

	w = f.do(http.MethodGet, "/api/v1/empresa/practica?token="+old, integration.Actor{}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(http.MethodGet, "/api/v1/empresa/practica?token="+grant.AccessToken, integration.Actor{}, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

// TestRoutes_RejectAndCorrect 驳回给学生后由学生修正
func TestRoutes_RejectAndCorrect(t *testing.T) {
	f := newAPIFixture(t)

	applied, _ := f.transition(http.MethodPost, "/api/v1/practicas/postular", alumno, applyBody())
	id := applied.Practice.ID
	f.transition(http.MethodPost, "/api/v1/coordinador/practicas/"+id+"/enviar-empresa", coordinador, nil)
	f.transition(http.MethodPost, "/api/v1/empresa/confirmar-inicio-practica", integration.Actor{}, confirmBody(f.grantToken(id)))

	// 驳回必须填写意见
	w := f.do(http.MethodPut, "/api/v1/coordinador/evaluar/"+id, coordinador, service.EvaluateRequest{Decision: "rechazar"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Fields, "observaciones")

	rejected, _ := f.transition(http.MethodPut, "/api/v1/coordinador/evaluar/"+id, coordinador, service.EvaluateRequest{
		Decision:      "rechazar",
		Observaciones: "Falta detallar las tareas",
		Destinatario:  string(statemachine.RecipientStudent),
	})
	assert.Equal(t, string(statemachine.StateRejected), rejected.Practice.State)

	corrected, _ := f.transition(http.MethodPost, "/api/v1/practicas/"+id+"/corregir", alumno, service.AnswersRequest{
		Respuestas: form.Answers{"tareas": "Desarrollo de API REST y pruebas"},
	})
	assert.Equal(t, string(statemachine.StatePendingValidation), corrected.Practice.State)
	assert.False(t, corrected.Waiting)
}

// TestRoutes_ListAndStatistics 协调员查询与统计
func TestRoutes_ListAndStatistics(t *testing.T) {
	f := newAPIFixture(t)

	f.transition(http.MethodPost, "/api/v1/practicas/postular", alumno, applyBody())
	f.transition(http.MethodPost, "/api/v1/practicas/postular", otroAlumno, applyBody())

	w := f.do(http.MethodGet, "/api/v1/practicas?page=1&page_size=1&sort_by=student_name&order=asc", coordinador, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var practices []model.PracticeModel
	env := f.decode(w, &practices)
	require.Len(t, practices, 1)
	assert.Equal(t, "Ana Pérez", practices[0].StudentName)
	assert.Equal(t, int64(2), env.Pagination.Total)
	assert.Equal(t, 2, env.Pagination.TotalPage)

	w = f.do(http.MethodGet, "/api/v1/practicas?sort_by=password", coordinador, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(http.MethodGet, "/api/v1/practicas?state=unknown", coordinador, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/v1/practicas/estadisticas", coordinador, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary service.PracticeSummary
	f.decode(w, &summary)
	assert.Equal(t, int64(2), summary.Total)
	assert.Equal(t, int64(2), summary.Active)

	w = f.do(http.MethodGet, "/api/v1/practicas/mias", otroAlumno, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []model.PracticeModel
	f.decode(w, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, otroAlumno.ID, mine[0].StudentID)
}

// TestRoutes_Templates 表单模板接口
func TestRoutes_Templates(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/api/v1/formularios/"+form.KindLogbook, alumno, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodGet, "/api/v1/formularios/desconocido", alumno, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/v1/formularios?page_size=2", coordinador, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := f.decode(w, nil)
	assert.Equal(t, int64(4), env.Pagination.Total)

	w = f.do(http.MethodPost, "/api/v1/formularios", alumno, map[string]string{"kind": "otro"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// TestRoutes_Operational 健康检查与未知路由
func TestRoutes_Operational(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/health", integration.Actor{}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get(api.RequestIDHeader))

	w = f.do(http.MethodGet, "/metrics", integration.Actor{}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/v1/nada", integration.Actor{}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "route not found", decodeError(t, w).Message)
}
