package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/practica-gin/internal/config"
	"github.com/mautops/practica-gin/internal/database"
	"github.com/mautops/practica-gin/internal/form"
	"github.com/mautops/practica-gin/internal/integration"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/notify"
	"github.com/mautops/practica-gin/internal/repository"
	"github.com/mautops/practica-gin/internal/statemachine"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	alumno      = integration.Actor{ID: "stu-1", Name: "Ana Pérez", Email: "ana@alumnos.cl", Role: statemachine.RoleStudent}
	otroAlumno  = integration.Actor{ID: "stu-2", Name: "Luis Soto", Email: "luis@alumnos.cl", Role: statemachine.RoleStudent}
	coordinador = integration.Actor{ID: "coord-1", Name: "Coordinación", Email: "coord@uni.cl", Role: statemachine.RoleCoordinator}
)

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, []*notify.Message) {}

type serviceFixture struct {
	ctx       context.Context
	db        *gorm.DB
	manager   *integration.PracticeManager
	templates *integration.TemplateManager
	practices PracticeService
	audit     repository.AuditLogRepository
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db, err := database.OpenInMemory(uuid.New().String())
	require.NoError(t, err)

	ctx := context.Background()
	templates := integration.NewTemplateManager(db)
	seeds, err := integration.LoadSeedTemplates("")
	require.NoError(t, err)
	_, err = templates.Seed(ctx, seeds)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	grants := integration.NewAccessGrantManager(db, 72*time.Hour)
	composer := integration.NewNotificationComposer(config.NotifyConfig{CoordinatorEmail: "coord@uni.cl"})
	manager := integration.NewPracticeManager(db, templates, grants, nopDispatcher{}, composer, logger)

	auditRepo := repository.NewAuditLogRepository(db)
	return &serviceFixture{
		ctx:       ctx,
		db:        db,
		manager:   manager,
		templates: templates,
		practices: NewPracticeService(manager, NewAuditLogService(auditRepo)),
		audit:     auditRepo,
	}
}

func applyRequest() *ApplyRequest {
	return &ApplyRequest{
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

func companyAnswers() form.Answers {
	return form.Answers{
		"razon_social":      "Acme SpA",
		"supervisor_nombre": "Juan Rojas",
		"supervisor_correo": "juan@acme.cl",
		"fecha_inicio":      "2026-03-02",
		"fecha_termino":     "2026-06-30",
		"horario":           map[string]interface{}{"lunes": "09:00-18:00"},
		"firma_supervisor":  "data:image/png;base64,AAAA",
	}
}

// apply 以指定学生提交申请
func (f *serviceFixture) apply(t *testing.T, actor integration.Actor) *integration.TransitionResult {
	t.Helper()
	res, err := f.practices.Apply(f.ctx, actor, applyRequest())
	require.NoError(t, err)
	return res
}

// pendingValidation 推进到待审核
func (f *serviceFixture) pendingValidation(t *testing.T, actor integration.Actor) *model.PracticeModel {
	t.Helper()
	res := f.apply(t, actor)
	_, err := f.practices.SendToCompany(f.ctx, coordinador, res.Practice.ID)
	require.NoError(t, err)
	_, err = f.practices.ConfirmStart(f.ctx, &ConfirmStartRequest{Token: res.Grant.Token, Confirmacion: true, Respuestas: companyAnswers()})
	require.NoError(t, err)
	p, err := f.manager.Get(f.ctx, res.Practice.ID)
	require.NoError(t, err)
	return p
}
