package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultFinalizeSchedule 默认每天凌晨一点检查到期实习
const DefaultFinalizeSchedule = "0 1 * * *"

// PracticeFinisher 结束到期实习
type PracticeFinisher interface {
	FinishDue(ctx context.Context) (int, error)
}

// FinalizationScheduler 定时结束已过结束日期的进行中实习
type FinalizationScheduler struct {
	finisher PracticeFinisher
	schedule string
	timeout  time.Duration
	logger   *logrus.Logger
	cron     *cron.Cron
}

// NewFinalizationScheduler 创建调度器
func NewFinalizationScheduler(finisher PracticeFinisher, schedule string, logger *logrus.Logger) *FinalizationScheduler {
	if schedule == "" {
		schedule = DefaultFinalizeSchedule
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FinalizationScheduler{
		finisher: finisher,
		schedule: schedule,
		timeout:  4 * time.Minute,
		logger:   logger,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start 注册任务并启动调度
func (s *FinalizationScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return err
	}
	s.logger.WithField("schedule", s.schedule).Info("finalization scheduler started")
	s.cron.Start()
	return nil
}

// Stop 停止调度并等待正在执行的任务
func (s *FinalizationScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *FinalizationScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, _ = s.RunOnce(ctx)
}

// RunOnce 立即执行一次
func (s *FinalizationScheduler) RunOnce(ctx context.Context) (int, error) {
	n, err := s.finisher.FinishDue(ctx)
	entry := s.logger.WithField("finished", n)
	if err != nil {
		entry.WithError(err).Error("finalization run completed with errors")
		return n, err
	}
	if n > 0 {
		entry.Info("finished due practices")
	}
	return n, nil
}
