// Package scheduler 周期任务：刷新候补名单人数、落盘钱包状态
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/betbot/hypiq/pkg/config"
)

const jobTimeout = 10 * time.Second

// WaitlistCounter 统计候补名单人数
type WaitlistCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Flusher 持久化未落盘的状态
type Flusher interface {
	Flush() error
}

// Scheduler 管理所有 cron 任务
type Scheduler struct {
	cron     *cron.Cron
	ctx      context.Context
	waitlist WaitlistCounter
	wallet   Flusher
	log      *logrus.Entry
}

// New 创建调度器；waitlist / wallet 为 nil 时跳过对应任务
func New(ctx context.Context, waitlist WaitlistCounter, wallet Flusher) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		ctx:      ctx,
		waitlist: waitlist,
		wallet:   wallet,
		log:      logrus.WithField("component", "scheduler"),
	}
}

// RegisterAll 按配置注册任务
func (s *Scheduler) RegisterAll(cfg config.SchedulerConfig) error {
	if s.waitlist != nil && cfg.WaitlistCountSpec != "" {
		if _, err := s.cron.AddFunc(cfg.WaitlistCountSpec, s.RefreshWaitlistCount); err != nil {
			return fmt.Errorf("register waitlist count task: %w", err)
		}
	}
	if s.wallet != nil && cfg.WalletFlushSpec != "" {
		if _, err := s.cron.AddFunc(cfg.WalletFlushSpec, s.FlushWallet); err != nil {
			return fmt.Errorf("register wallet flush task: %w", err)
		}
	}
	return nil
}

// Jobs 已注册任务数
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start 启动调度
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infof("调度器已启动，任务数=%d", s.Jobs())
}

// Stop 停止调度并等待正在运行的任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("调度器已停止")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshWaitlistCount 刷新候补名单人数（结果写入 metrics）
func (s *Scheduler) RefreshWaitlistCount() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()
	n, err := s.waitlist.Count(ctx)
	if err != nil {
		s.log.Errorf("统计候补名单失败: %v", err)
		return
	}
	s.log.Debugf("候补名单人数: %d", n)
}

// FlushWallet 落盘钱包
func (s *Scheduler) FlushWallet() {
	if err := s.wallet.Flush(); err != nil {
		s.log.Errorf("钱包落盘失败: %v", err)
	}
}
