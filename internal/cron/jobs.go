package cron

import (
	"context"
	"errors"
	"time"

	"github.com/doumai/doumai-backend/internal/channels"
	"github.com/doumai/doumai-backend/pkg/logger"
)

const (
	SyncCompletionJobName     = "sync-task-completion"
	ScheduledSyncJobName      = "scheduled-sync"
	SubscriptionExpiryJobName = "subscription-expiry"

	defaultCompletionDelay = 3 * time.Second
)

type taskCompleter interface {
	CompleteDueTasks(ctx context.Context, delay time.Duration) (channels.CompletionResult, error)
}

type scheduledSyncOpener interface {
	OpenScheduledSyncs(ctx context.Context) (int, error)
}

type subscriptionExpirer interface {
	ExpireDue(ctx context.Context) (int64, error)
}

// SyncCompletionJob finishes simulated sync tasks once they have been
// processing for the configured delay.
type SyncCompletionJob struct {
	tasks taskCompleter
	delay time.Duration
	logg  *logger.Logger
}

func NewSyncCompletionJob(tasks taskCompleter, delay time.Duration, logg *logger.Logger) (*SyncCompletionJob, error) {
	if tasks == nil || logg == nil {
		return nil, errors.New("sync completion job requires tasks and logger")
	}
	if delay <= 0 {
		delay = defaultCompletionDelay
	}
	return &SyncCompletionJob{tasks: tasks, delay: delay, logg: logg}, nil
}

func (j *SyncCompletionJob) Name() string { return SyncCompletionJobName }

func (j *SyncCompletionJob) Run(ctx context.Context) error {
	res, err := j.tasks.CompleteDueTasks(ctx, j.delay)
	if res.Completed+res.Failed > 0 {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"completed": res.Completed,
			"failed":    res.Failed,
		}), "sync_tasks.finished")
	}
	return err
}

type ScheduledSyncJob struct {
	opener scheduledSyncOpener
	logg   *logger.Logger
}

func NewScheduledSyncJob(opener scheduledSyncOpener, logg *logger.Logger) (*ScheduledSyncJob, error) {
	if opener == nil || logg == nil {
		return nil, errors.New("scheduled sync job requires opener and logger")
	}
	return &ScheduledSyncJob{opener: opener, logg: logg}, nil
}

func (j *ScheduledSyncJob) Name() string { return ScheduledSyncJobName }

func (j *ScheduledSyncJob) Run(ctx context.Context) error {
	opened, err := j.opener.OpenScheduledSyncs(ctx)
	if opened > 0 {
		j.logg.Info(j.logg.WithField(ctx, "opened", opened), "sync_tasks.scheduled")
	}
	return err
}

type SubscriptionExpiryJob struct {
	subs subscriptionExpirer
	logg *logger.Logger
}

func NewSubscriptionExpiryJob(subs subscriptionExpirer, logg *logger.Logger) (*SubscriptionExpiryJob, error) {
	if subs == nil || logg == nil {
		return nil, errors.New("subscription expiry job requires subscriptions and logger")
	}
	return &SubscriptionExpiryJob{subs: subs, logg: logg}, nil
}

func (j *SubscriptionExpiryJob) Name() string { return SubscriptionExpiryJobName }

func (j *SubscriptionExpiryJob) Run(ctx context.Context) error {
	expired, err := j.subs.ExpireDue(ctx)
	if err != nil {
		return err
	}
	if expired > 0 {
		j.logg.Info(j.logg.WithField(ctx, "expired", expired), "subscriptions.expired")
	}
	return nil
}
