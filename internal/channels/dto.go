package channels

import (
	"time"

	"github.com/google/uuid"

	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
)

const (
	defaultIntervalMinutes = 5
	maxShopNameLength      = 100
	defaultTaskLimit       = 50
)

type AddChannelInput struct {
	TenantID uuid.UUID
	Platform enums.Platform
	ShopName string
}

// ConfigUpdate changes only the fields that are set.
type ConfigUpdate struct {
	SyncMode            *enums.SyncMode
	SyncIntervalMinutes *int
	DeductOn            *enums.DeductOn
	ReturnAutoRestore   *bool
}

func (u ConfigUpdate) empty() bool {
	return u.SyncMode == nil && u.SyncIntervalMinutes == nil && u.DeductOn == nil && u.ReturnAutoRestore == nil
}

type ChannelView struct {
	ID                  uuid.UUID           `json:"id"`
	Platform            enums.Platform      `json:"platform"`
	ShopName            string              `json:"shop_name"`
	ShopID              *string             `json:"shop_id,omitempty"`
	SyncMode            enums.SyncMode      `json:"sync_mode"`
	SyncIntervalMinutes int                 `json:"sync_interval_minutes"`
	DeductOn            enums.DeductOn      `json:"deduct_on"`
	ReturnAutoRestore   bool                `json:"return_auto_restore"`
	Status              enums.ChannelStatus `json:"status"`
	LastSyncAt          *time.Time          `json:"last_sync_at,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
}

func channelViewFromModel(c models.Channel) ChannelView {
	return ChannelView{
		ID:                  c.ID,
		Platform:            c.Platform,
		ShopName:            c.ShopName,
		ShopID:              c.ShopID,
		SyncMode:            c.SyncMode,
		SyncIntervalMinutes: c.SyncIntervalMinutes,
		DeductOn:            c.DeductOn,
		ReturnAutoRestore:   c.ReturnAutoRestore,
		Status:              c.Status,
		LastSyncAt:          c.LastSyncAt,
		CreatedAt:           c.CreatedAt,
	}
}

type SyncTaskView struct {
	ID           uuid.UUID            `json:"id"`
	ChannelID    uuid.UUID            `json:"channel_id"`
	ShopName     string               `json:"shop_name,omitempty"`
	Platform     enums.Platform       `json:"platform,omitempty"`
	Type         enums.SyncTaskType   `json:"type"`
	Status       enums.SyncTaskStatus `json:"status"`
	TotalSKUs    int                  `json:"total_skus"`
	SuccessCount int                  `json:"success_count"`
	FailCount    int                  `json:"fail_count"`
	RetryCount   int                  `json:"retry_count"`
	MaxRetries   int                  `json:"max_retries"`
	ErrorMessage *string              `json:"error_message,omitempty"`
	StartedAt    *time.Time           `json:"started_at,omitempty"`
	CompletedAt  *time.Time           `json:"completed_at,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

func syncTaskViewFromModel(t models.SyncTask) SyncTaskView {
	view := SyncTaskView{
		ID:           t.ID,
		ChannelID:    t.ChannelID,
		Type:         t.Type,
		Status:       t.Status,
		TotalSKUs:    t.TotalSKUs,
		SuccessCount: t.SuccessCount,
		FailCount:    t.FailCount,
		RetryCount:   t.RetryCount,
		MaxRetries:   t.MaxRetries,
		ErrorMessage: t.ErrorMessage,
		StartedAt:    t.StartedAt,
		CompletedAt:  t.CompletedAt,
		CreatedAt:    t.CreatedAt,
	}
	if t.Channel != nil {
		view.ShopName = t.Channel.ShopName
		view.Platform = t.Channel.Platform
	}
	return view
}

type ListSyncTasksInput struct {
	TenantID  uuid.UUID
	ChannelID *uuid.UUID
	Limit     int
	Cursor    string
}

type SyncTaskPage struct {
	Items      []SyncTaskView `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// CompletionResult summarises one pass of the completion job.
type CompletionResult struct {
	Completed int
	Failed    int
}
