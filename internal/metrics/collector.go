package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/mautops/practica-gin/internal/repository"
	"github.com/mautops/practica-gin/internal/statemachine"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Collector 指标收集器
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	logger   *logrus.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration, logger *logrus.Logger) *Collector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.CollectOnce(); err != nil {
				c.logger.WithError(err).Warn("failed to collect metrics")
			}
		}
	}
}

// CollectOnce 立即刷新一次连接池和状态分布指标
func (c *Collector) CollectOnce() error {
	if err := UpdateDatabaseConnections(c.db); err != nil {
		return err
	}

	counts, err := repository.NewPracticeRepository(c.db.WithContext(c.ctx)).CountByState()
	if err != nil {
		return fmt.Errorf("failed to count practices by state: %w", err)
	}
	// 没有记录的状态也输出 0
	for _, s := range statemachine.AllStates() {
		UpdatePracticesByState(string(s), float64(counts[string(s)]))
	}
	return nil
}
