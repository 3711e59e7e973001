package integration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/practica-gin/internal/model"
	"github.com/mautops/practica-gin/internal/notify"
	"github.com/mautops/practica-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dispatcher 提交后的通知投递
type Dispatcher interface {
	Dispatch(ctx context.Context, msgs []*notify.Message)
}

// DispatcherOptions 投递器参数
type DispatcherOptions struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

type queuedMessage struct {
	record *model.NotificationModel
	msg    *notify.Message
}

// NotificationDispatcher 异步通知投递器
// 每条通知最多发送一次,失败只记录不重试
type NotificationDispatcher struct {
	repo     repository.NotificationRepository
	notifier notify.Notifier
	logger   *logrus.Logger
	queue    chan *queuedMessage
	timeout  time.Duration
	onResult func(status string)

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewNotificationDispatcher 创建投递器并启动 worker
func NewNotificationDispatcher(db *gorm.DB, notifier notify.Notifier, logger *logrus.Logger, opts DispatcherOptions) *NotificationDispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	d := &NotificationDispatcher{
		repo:     repository.NewNotificationRepository(db),
		notifier: notifier,
		logger:   logger,
		queue:    make(chan *queuedMessage, opts.QueueSize),
		timeout:  opts.SendTimeout,
	}

	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// OnResult 注册发送结果回调,用于指标统计
func (d *NotificationDispatcher) OnResult(fn func(status string)) {
	d.onResult = fn
}

// Dispatch 入队,记录由 worker 持久化,调用方不等待数据库
// 仅在队列已满或已关闭时同步写入 dropped 记录
func (d *NotificationDispatcher) Dispatch(ctx context.Context, msgs []*notify.Message) {
	for _, msg := range msgs {
		record := &model.NotificationModel{
			ID:         uuid.New().String(),
			PracticeID: msg.PracticeID,
			Event:      msg.Event,
			Audience:   msg.Audience,
			Recipient:  msg.To,
			Subject:    msg.Subject,
			Status:     model.NotificationPending,
		}

		if !d.enqueue(&queuedMessage{record: record, msg: msg}) {
			d.logger.WithContext(ctx).WithFields(logrus.Fields{
				"practice_id": msg.PracticeID,
				"event":       msg.Event,
				"audience":    msg.Audience,
			}).Warn("notification queue full, dropping message")
			record.Status = model.NotificationDropped
			record.Error = "queue full"
			d.persist(record)
			d.report(record.Status)
		}
	}
}

func (d *NotificationDispatcher) enqueue(q *queuedMessage) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- q:
		return true
	default:
		return false
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for q := range d.queue {
		d.send(q)
	}
}

func (d *NotificationDispatcher) send(q *queuedMessage) {
	d.persist(q.record)

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.notifier.Send(ctx, q.msg); err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"practice_id": q.msg.PracticeID,
			"event":       q.msg.Event,
			"to":          q.msg.To,
		}).Warn("notification delivery failed")
		d.finish(q.record.ID, model.NotificationFailed, err.Error())
		return
	}
	d.finish(q.record.ID, model.NotificationSent, "")
}

func (d *NotificationDispatcher) persist(record *model.NotificationModel) {
	if err := d.repo.Save(record); err != nil {
		d.logger.WithError(err).WithField("practice_id", record.PracticeID).Error("failed to persist notification")
	}
}

func (d *NotificationDispatcher) finish(id, status, errMsg string) {
	if err := d.repo.UpdateStatus(id, status, errMsg); err != nil {
		d.logger.WithError(err).WithField("notification_id", id).Error("failed to update notification status")
	}
	d.report(status)
}

func (d *NotificationDispatcher) report(status string) {
	if d.onResult != nil {
		d.onResult(status)
	}
}

// Close 停止接收新通知,等待队列中的通知发送完毕
func (d *NotificationDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}
