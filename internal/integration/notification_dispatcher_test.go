package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/mautops/practica-gin/internal/config"
	"github.com/mautops/practica-gin/internal/database"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/notify"
	"github.com/mautops/practica-gin/internal/notify/mock_notify"
	"github.com/mautops/practica-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDispatcherDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory(uuid.New().String())
	require.NoError(t, err)
	return db
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func statuses(t *testing.T, db *gorm.DB, practiceID string) map[string]string {
	t.Helper()
	records, err := repository.NewNotificationRepository(db).FindByPracticeID(practiceID)
	require.NoError(t, err)
	out := make(map[string]string, len(records))
	for _, r := range records {
		out[r.Audience] = r.Status
	}
	return out
}

func TestNotificationDispatcher_SendsOnlyTaggedParties(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := setupDispatcherDB(t)
	notifier := mock_notify.NewMockNotifier(ctrl)
	notifier.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg *notify.Message) error {
			assert.Equal(t, notify.AudienceStudent, msg.Audience)
			assert.Equal(t, "ana@alumnos.cl", msg.To)
			assert.Contains(t, msg.Body, "Corregir el RUT")
			return nil
		}).
		Times(1)

	d := NewNotificationDispatcher(db, notifier, quietLogger(), DispatcherOptions{Workers: 2, QueueSize: 8})
	composer := NewNotificationComposer(config.NotifyConfig{CoordinatorEmail: "coord@uni.cl"})
	practice := &model.PracticeModel{ID: "p-1", StudentID: "stu-1", StudentEmail: "ana@alumnos.cl", CompanyName: "Acme"}
	grant := &model.AccessGrantModel{PracticeID: "p-1", Token: "tok", CompanyEmail: "rrhh@acme.cl"}

	d.Dispatch(context.Background(), composer.Compose(NotificationInput{
		Event:    "rechazar",
		Practice: practice,
		Grant:    grant,
		Comment:  "Corregir el RUT",
		Target:   "alumno",
	}))
	d.Close()

	assert.Equal(t, map[string]string{notify.AudienceStudent: model.NotificationSent}, statuses(t, db, "p-1"))
}

func TestNotificationDispatcher_FailureIsRecordedNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := setupDispatcherDB(t)
	notifier := mock_notify.NewMockNotifier(ctrl)
	notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp unavailable")).Times(1)

	var mu sync.Mutex
	var results []string
	d := NewNotificationDispatcher(db, notifier, quietLogger(), DispatcherOptions{Workers: 1})
	d.OnResult(func(status string) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, status)
	})

	d.Dispatch(context.Background(), []*notify.Message{{PracticeID: "p-2", Event: "cerrar", Audience: notify.AudienceStudent, To: "ana@alumnos.cl"}})
	d.Close()

	records, err := repository.NewNotificationRepository(db).FindByPracticeID("p-2")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.NotificationFailed, records[0].Status)
	assert.Equal(t, "smtp unavailable", records[0].Error)
	assert.Equal(t, []string{model.NotificationFailed}, results)
}

func TestNotificationDispatcher_DropsWhenQueueFull(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := setupDispatcherDB(t)
	notifier := mock_notify.NewMockNotifier(ctrl)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	notifier.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ *notify.Message) error {
			started <- struct{}{}
			<-release
			return nil
		}).
		Times(2)

	d := NewNotificationDispatcher(db, notifier, quietLogger(), DispatcherOptions{Workers: 1, QueueSize: 1, SendTimeout: time.Minute})
	msg := func(audience string) *notify.Message {
		return &notify.Message{PracticeID: "p-3", Event: "aprobar", Audience: audience}
	}

	// 第一条占住 worker,第二条填满队列,第三条被丢弃
	d.Dispatch(context.Background(), []*notify.Message{msg(notify.AudienceStudent)})
	<-started
	d.Dispatch(context.Background(), []*notify.Message{msg(notify.AudienceCompany), msg(notify.AudienceCoordinator)})

	close(release)
	d.Close()

	assert.Equal(t, map[string]string{
		notify.AudienceStudent:     model.NotificationSent,
		notify.AudienceCompany:     model.NotificationSent,
		notify.AudienceCoordinator: model.NotificationDropped,
	}, statuses(t, db, "p-3"))
}

func TestNotificationDispatcher_DispatchAfterClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := setupDispatcherDB(t)
	d := NewNotificationDispatcher(db, mock_notify.NewMockNotifier(ctrl), quietLogger(), DispatcherOptions{})
	d.Close()
	d.Close()

	d.Dispatch(context.Background(), []*notify.Message{{PracticeID: "p-4", Event: "cerrar", Audience: notify.AudienceStudent}})
	assert.Equal(t, map[string]string{notify.AudienceStudent: model.NotificationDropped}, statuses(t, db, "p-4"))
}

func TestNotificationDispatcher_SendTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := setupDispatcherDB(t)
	notifier := mock_notify.NewMockNotifier(ctrl)
	notifier.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ *notify.Message) error {
			<-ctx.Done()
			return ctx.Err()
		})

	d := NewNotificationDispatcher(db, notifier, quietLogger(), DispatcherOptions{SendTimeout: 20 * time.Millisecond})
	d.Dispatch(context.Background(), []*notify.Message{{PracticeID: "p-5", Event: "finalizar", Audience: notify.AudienceCompany}})
	d.Close()

	assert.Equal(t, model.NotificationFailed, statuses(t, db, "p-5")[notify.AudienceCompany])
}

func TestNotificationDispatcher_PersistsOnWorker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := setupDispatcherDB(t)
	notifier := mock_notify.NewMockNotifier(ctrl)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	notifier.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ *notify.Message) error {
			started <- struct{}{}
			<-release
			return nil
		}).
		Times(2)

	d := NewNotificationDispatcher(db, notifier, quietLogger(), DispatcherOptions{Workers: 1, QueueSize: 4, SendTimeout: time.Minute})
	msg := func(audience string) *notify.Message {
		return &notify.Message{PracticeID: "p-6", Event: "aprobar", Audience: audience}
	}

	d.Dispatch(context.Background(), []*notify.Message{msg(notify.AudienceStudent)})
	<-started
	assert.Equal(t, map[string]string{notify.AudienceStudent: model.NotificationPending}, statuses(t, db, "p-6"))

	// worker 被占用时,排队中的通知尚未写库
	d.Dispatch(context.Background(), []*notify.Message{msg(notify.AudienceCompany)})
	assert.NotContains(t, statuses(t, db, "p-6"), notify.AudienceCompany)

	close(release)
	d.Close()

	assert.Equal(t, map[string]string{
		notify.AudienceStudent: model.NotificationSent,
		notify.AudienceCompany: model.NotificationSent,
	}, statuses(t, db, "p-6"))
}
