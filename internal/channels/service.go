package channels

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/db"
	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
	"github.com/doumai/doumai-backend/pkg/pagination"
	"github.com/doumai/doumai-backend/pkg/redis"
)

const (
	defaultLockTTL    = 30 * time.Second
	defaultMaxRetries = 3
	completionBatch   = 100
	retryLimitMessage = "retry limit reached"
)

// Service manages connected storefronts and their simulated sync tasks.
type Service interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]ChannelView, error)
	Add(ctx context.Context, input AddChannelInput) (*ChannelView, error)
	UpdateConfig(ctx context.Context, tenantID, channelID uuid.UUID, update ConfigUpdate) (*ChannelView, error)
	Disconnect(ctx context.Context, tenantID, channelID uuid.UUID) error
	TriggerSync(ctx context.Context, tenantID, channelID uuid.UUID) (*SyncTaskView, error)
	ListSyncTasks(ctx context.Context, input ListSyncTasksInput) (*SyncTaskPage, error)

	CompleteDueTasks(ctx context.Context, delay time.Duration) (CompletionResult, error)
	OpenScheduledSyncs(ctx context.Context) (int, error)
}

type quotaChecker interface {
	CheckChannelQuota(ctx context.Context, tenantID uuid.UUID) error
	MinSyncInterval(ctx context.Context, tenantID uuid.UUID) (int, error)
}

type lockKeyer interface {
	LockKey(parts ...string) string
}

type ServiceParams struct {
	Repo       *Repository
	TxRunner   db.TxRunner
	Quota      quotaChecker
	Locker     redis.Locker
	Keys       lockKeyer
	Logger     *logger.Logger
	LockTTL    time.Duration
	MaxRetries int
	Now        func() time.Time
}

type service struct {
	repo       *Repository
	tx         db.TxRunner
	quota      quotaChecker
	locker     redis.Locker
	keys       lockKeyer
	logg       *logger.Logger
	lockTTL    time.Duration
	maxRetries int
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("channel repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Quota == nil {
		return nil, fmt.Errorf("quota checker required")
	}
	if params.Locker == nil || params.Keys == nil {
		return nil, fmt.Errorf("sync locker required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	s := &service{
		repo:       params.Repo,
		tx:         params.TxRunner,
		quota:      params.Quota,
		locker:     params.Locker,
		keys:       params.Keys,
		logg:       params.Logger,
		lockTTL:    params.LockTTL,
		maxRetries: params.MaxRetries,
		now:        params.Now,
	}
	if s.lockTTL <= 0 {
		s.lockTTL = defaultLockTTL
	}
	if s.maxRetries <= 0 {
		s.maxRetries = defaultMaxRetries
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s, nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID) ([]ChannelView, error) {
	rows, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list channels")
	}
	out := make([]ChannelView, 0, len(rows))
	for _, row := range rows {
		out = append(out, channelViewFromModel(row))
	}
	return out, nil
}

func (s *service) Add(ctx context.Context, input AddChannelInput) (*ChannelView, error) {
	if !input.Platform.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "platform must be pinduoduo or wechat_miniprogram")
	}
	name := strings.TrimSpace(input.ShopName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop_name is required")
	}
	if utf8.RuneCountInString(name) > maxShopNameLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "shop_name must be at most %d characters", maxShopNameLength)
	}
	if err := s.quota.CheckChannelQuota(ctx, input.TenantID); err != nil {
		return nil, err
	}

	now := s.now()
	shopID := fmt.Sprintf("mock_%d", now.UnixMilli())
	ch := &models.Channel{
		TenantID:            input.TenantID,
		Platform:            input.Platform,
		ShopName:            name,
		ShopID:              &shopID,
		SyncMode:            enums.SyncModeRealtime,
		SyncIntervalMinutes: defaultIntervalMinutes,
		DeductOn:            enums.DeductOnPayment,
		ReturnAutoRestore:   true,
		Status:              enums.ChannelStatusConnected,
		LastSyncAt:          &now,
	}
	if err := s.repo.Create(ctx, ch); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create channel")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"channel_id": ch.ID.String(),
		"platform":   ch.Platform.String(),
	})
	s.logg.Info(logCtx, "channel.connected")

	view := channelViewFromModel(*ch)
	return &view, nil
}

func (s *service) UpdateConfig(ctx context.Context, tenantID, channelID uuid.UUID, update ConfigUpdate) (*ChannelView, error) {
	if update.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no changes supplied")
	}
	if update.SyncMode != nil && !update.SyncMode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sync_mode must be realtime or scheduled")
	}
	if update.DeductOn != nil && !update.DeductOn.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deduct_on must be order or payment")
	}
	if update.SyncIntervalMinutes != nil && *update.SyncIntervalMinutes < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sync_interval_minutes must be >= 1")
	}

	ch, err := s.find(ctx, tenantID, channelID)
	if err != nil {
		return nil, err
	}

	mode := ch.SyncMode
	if update.SyncMode != nil {
		mode = *update.SyncMode
	}
	interval := ch.SyncIntervalMinutes
	if update.SyncIntervalMinutes != nil {
		interval = *update.SyncIntervalMinutes
	}
	if mode == enums.SyncModeScheduled {
		minimum, err := s.quota.MinSyncInterval(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if interval < minimum {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "sync_interval_minutes must be >= %d on the current plan", minimum).
				WithDetails(map[string]any{"min_sync_interval_minutes": minimum})
		}
	}

	now := s.now()
	changes := map[string]any{"updated_at": now}
	if update.SyncMode != nil {
		changes["sync_mode"] = *update.SyncMode
		ch.SyncMode = *update.SyncMode
	}
	if update.SyncIntervalMinutes != nil {
		changes["sync_interval_minutes"] = *update.SyncIntervalMinutes
		ch.SyncIntervalMinutes = *update.SyncIntervalMinutes
	}
	if update.DeductOn != nil {
		changes["deduct_on"] = *update.DeductOn
		ch.DeductOn = *update.DeductOn
	}
	if update.ReturnAutoRestore != nil {
		changes["return_auto_restore"] = *update.ReturnAutoRestore
		ch.ReturnAutoRestore = *update.ReturnAutoRestore
	}
	if _, err := s.repo.Update(ctx, tenantID, channelID, changes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update channel")
	}
	ch.UpdatedAt = now

	view := channelViewFromModel(*ch)
	return &view, nil
}

// Disconnect only flips the status; the row and its sync history stay.
func (s *service) Disconnect(ctx context.Context, tenantID, channelID uuid.UUID) error {
	affected, err := s.repo.Update(ctx, tenantID, channelID, map[string]any{
		"status":     enums.ChannelStatusDisconnected,
		"updated_at": s.now(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: disconnect channel")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "channel not found")
	}
	return nil
}

func (s *service) TriggerSync(ctx context.Context, tenantID, channelID uuid.UUID) (*SyncTaskView, error) {
	ch, err := s.find(ctx, tenantID, channelID)
	if err != nil {
		return nil, err
	}
	if ch.Status == enums.ChannelStatusDisconnected {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "channel is disconnected")
	}

	task, err := s.openTask(ctx, *ch, enums.SyncTaskTypeManual)
	if err != nil {
		return nil, err
	}
	task.Channel = ch
	view := syncTaskViewFromModel(*task)
	return &view, nil
}

// openTask creates a processing task unless one is already open. The
// per-channel lock keeps two callers from both passing the open-task check.
func (s *service) openTask(ctx context.Context, ch models.Channel, taskType enums.SyncTaskType) (*models.SyncTask, error) {
	lock, err := s.locker.Obtain(ctx, s.keys.LockKey("sync", ch.ID.String()), s.lockTTL)
	if err != nil {
		if errors.Is(err, redis.ErrLockNotObtained) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a sync is already being started for this channel")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: obtain sync lock")
	}
	defer func() {
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "channel_id", ch.ID.String()), "channel.sync.lock_release_failed")
		}
	}()

	open, err := s.repo.HasOpenTask(ctx, ch.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check open sync task")
	}
	if open {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a sync is already in progress for this channel")
	}

	total, err := s.repo.CountActiveSKUs(ctx, ch.TenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count skus")
	}

	now := s.now()
	task := &models.SyncTask{
		TenantID:   ch.TenantID,
		ChannelID:  ch.ID,
		Type:       taskType,
		Status:     enums.SyncTaskStatusProcessing,
		TotalSKUs:  int(total),
		MaxRetries: s.maxRetries,
		StartedAt:  &now,
		CreatedAt:  now,
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create sync task")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"channel_id": ch.ID.String(),
		"task_id":    task.ID.String(),
		"type":       taskType.String(),
		"total_skus": task.TotalSKUs,
	})
	s.logg.Info(logCtx, "channel.sync.started")
	return task, nil
}

func (s *service) ListSyncTasks(ctx context.Context, input ListSyncTasksInput) (*SyncTaskPage, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultTaskLimit
	}
	limit = pagination.NormalizeLimit(limit)

	rows, err := s.repo.ListTasks(ctx, taskListQuery{
		TenantID:  input.TenantID,
		ChannelID: input.ChannelID,
		Cursor:    cursor,
		Limit:     pagination.LimitWithBuffer(limit),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list sync tasks")
	}

	page := &SyncTaskPage{Items: make([]SyncTaskView, 0, min(len(rows), limit))}
	if len(rows) > limit {
		last := rows[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:limit]
	}
	for _, row := range rows {
		page.Items = append(page.Items, syncTaskViewFromModel(row))
	}
	return page, nil
}

// CompleteDueTasks finishes processing tasks that have run for at least
// delay. Tasks out of retries fail, everything else succeeds for every SKU.
func (s *service) CompleteDueTasks(ctx context.Context, delay time.Duration) (CompletionResult, error) {
	var result CompletionResult
	now := s.now()
	due, err := s.repo.ListDueTasks(ctx, now.Add(-delay), completionBatch)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list due sync tasks")
	}

	var errs error
	for _, task := range due {
		failed := task.RetryCount >= task.MaxRetries
		finished := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			changes := map[string]any{"completed_at": now}
			if failed {
				changes["status"] = enums.SyncTaskStatusFailed
				changes["fail_count"] = task.TotalSKUs
				changes["success_count"] = 0
				changes["error_message"] = retryLimitMessage
			} else {
				changes["status"] = enums.SyncTaskStatusCompleted
				changes["success_count"] = task.TotalSKUs
				changes["fail_count"] = 0
			}
			affected, err := txRepo.FinishTask(ctx, task.ID, changes)
			if err != nil || affected == 0 {
				return err
			}
			finished = true
			if failed {
				return nil
			}
			return txRepo.TouchLastSync(ctx, task.ChannelID, now)
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("task %s: %w", task.ID, err))
			continue
		}
		if !finished {
			continue
		}
		if failed {
			result.Failed++
		} else {
			result.Completed++
		}
	}
	if errs != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "db: complete sync tasks")
	}
	return result, nil
}

// OpenScheduledSyncs opens a scheduled task for every connected scheduled
// channel whose interval has elapsed since its last sync.
func (s *service) OpenScheduledSyncs(ctx context.Context) (int, error) {
	chans, err := s.repo.ListScheduled(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list scheduled channels")
	}

	now := s.now()
	opened := 0
	var errs error
	for _, ch := range chans {
		if !scheduledSyncDue(ch, now) {
			continue
		}
		if _, err := s.openTask(ctx, ch, enums.SyncTaskTypeScheduled); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("channel %s: %w", ch.ID, err))
			continue
		}
		opened++
	}
	return opened, errs
}

func scheduledSyncDue(ch models.Channel, now time.Time) bool {
	if ch.LastSyncAt == nil {
		return true
	}
	interval := time.Duration(max(ch.SyncIntervalMinutes, 1)) * time.Minute
	return !ch.LastSyncAt.Add(interval).After(now)
}

func (s *service) find(ctx context.Context, tenantID, channelID uuid.UUID) (*models.Channel, error) {
	ch, err := s.repo.Find(ctx, tenantID, channelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "channel not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load channel")
	}
	return ch, nil
}
