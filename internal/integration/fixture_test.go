package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/practica-gin/internal/config"
	"github.com/mautops/practica-gin/internal/database"
	"github.com/mautops/practica-gin/internal/form"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/notify"
	"github.com/mautops/practica-gin/internal/repository"
	"github.com/mautops/practica-gin/internal/statemachine"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	student     = Actor{ID: "stu-1", Name: "Ana Pérez", Email: "ana@alumnos.cl", Role: statemachine.RoleStudent}
	otherStudent = Actor{ID: "stu-2", Name: "Luis Soto", Email: "luis@alumnos.cl", Role: statemachine.RoleStudent}
	coordinator = Actor{ID: "coord-1", Name: "Coordinación", Email: "coord@uni.cl", Role: statemachine.RoleCoordinator}
)

func studentAnswers() form.Answers {
	return form.Answers{
		"nombre_alumno": "Ana Pérez",
		"rut_alumno":    "11.111.111-1",
		"carrera":       "Ingeniería Informática",
		"correo_alumno": "ana@alumnos.cl",
		"tareas":        "Desarrollo de servicios backend",
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

func evaluationAnswers() form.Answers {
	return form.Answers{
		"puntualidad":       "excelente",
		"trabajo_en_equipo": "bueno",
		"nota":              6.5,
		"firma_supervisor":  "data:image/png;base64,BBBB",
	}
}

// recordingDispatcher 记录提交后产生的通知
type recordingDispatcher struct {
	mu   sync.Mutex
	msgs []*notify.Message
}

func (r *recordingDispatcher) Dispatch(_ context.Context, msgs []*notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msgs...)
}

// audiences 返回某事件的收件方
func (r *recordingDispatcher) audiences(event string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.msgs {
		if m.Event == event {
			out = append(out, m.Audience)
		}
	}
	return out
}

func (r *recordingDispatcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

type fixture struct {
	ctx        context.Context
	db         *gorm.DB
	templates  *TemplateManager
	grants     *AccessGrantManager
	manager    *PracticeManager
	dispatcher *recordingDispatcher
	clock      time.Time

	mu     sync.Mutex
	events []TransitionEvent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenInMemory(uuid.New().String())
	require.NoError(t, err)

	f := &fixture{
		ctx:        context.Background(),
		db:         db,
		dispatcher: &recordingDispatcher{},
		clock:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.clock }

	f.templates = NewTemplateManager(db)
	seeds, err := LoadSeedTemplates("")
	require.NoError(t, err)
	_, err = f.templates.Seed(f.ctx, seeds)
	require.NoError(t, err)

	f.grants = NewAccessGrantManager(db, 72*time.Hour).WithClock(now)
	composer := NewNotificationComposer(config.NotifyConfig{
		CoordinatorEmail: "coord@uni.cl",
		StudentPortalURL: "https://practicas.test/alumno",
		CompanyPortalURL: "https://practicas.test/empresa",
	})

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	f.manager = NewPracticeManager(db, f.templates, f.grants, f.dispatcher, composer, logger).WithClock(now)
	f.manager.AddObserver(TransitionObserverFunc(func(evt TransitionEvent) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.events = append(f.events, evt)
	}))
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) apply(t *testing.T, actor Actor) *TransitionResult {
	t.Helper()
	res, err := f.manager.Apply(f.ctx, ApplyCommand{
		Actor:        actor,
		CompanyName:  "Acme SpA",
		CompanyEmail: "rrhh@acme.cl",
		Level:        1,
		Answers:      studentAnswers(),
	})
	require.NoError(t, err)
	return res
}

// toPendingValidation 推进到待验证状态,返回实习 ID 和企业令牌
func (f *fixture) toPendingValidation(t *testing.T) (string, string) {
	t.Helper()
	res := f.apply(t, student)
	_, err := f.manager.SendToCompany(f.ctx, res.Practice.ID, coordinator)
	require.NoError(t, err)
	_, err = f.manager.ConfirmStart(f.ctx, res.Grant.Token, true, companyAnswers())
	require.NoError(t, err)
	return res.Practice.ID, res.Grant.Token
}

// toInProgress 推进到进行中状态
func (f *fixture) toInProgress(t *testing.T) (string, string) {
	t.Helper()
	id, token := f.toPendingValidation(t)
	_, err := f.manager.Evaluate(f.ctx, id, coordinator, EvaluateDecision{Decision: "aprobar"})
	require.NoError(t, err)
	return id, token
}

func (f *fixture) practice(t *testing.T, id string) *model.PracticeModel {
	t.Helper()
	p, err := repository.NewPracticeRepository(f.db).FindByID(id)
	require.NoError(t, err)
	return p
}

func (f *fixture) document(t *testing.T, practiceID, kind string) *model.AnswerDocumentModel {
	t.Helper()
	tpl, err := f.templates.GetByKind(f.ctx, kind)
	require.NoError(t, err)
	doc, err := repository.NewAnswerDocumentRepository(f.db).FindByPracticeAndTemplate(practiceID, tpl.ID)
	require.NoError(t, err)
	return doc
}

func (f *fixture) answers(t *testing.T, practiceID, kind string) form.Answers {
	t.Helper()
	a, err := f.document(t, practiceID, kind).DecodeAnswers()
	require.NoError(t, err)
	return form.Flatten(a)
}
