package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/doumai/doumai-backend/internal/channels"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
)

type stubChannels struct {
	channels.Service
	addFn     func(ctx context.Context, input channels.AddChannelInput) (*channels.ChannelView, error)
	updateFn  func(ctx context.Context, tenantID, channelID uuid.UUID, update channels.ConfigUpdate) (*channels.ChannelView, error)
	triggerFn func(ctx context.Context, tenantID, channelID uuid.UUID) (*channels.SyncTaskView, error)
	tasksFn   func(ctx context.Context, input channels.ListSyncTasksInput) (*channels.SyncTaskPage, error)
}

func (s stubChannels) Add(ctx context.Context, input channels.AddChannelInput) (*channels.ChannelView, error) {
	return s.addFn(ctx, input)
}

func (s stubChannels) UpdateConfig(ctx context.Context, tenantID, channelID uuid.UUID, update channels.ConfigUpdate) (*channels.ChannelView, error) {
	return s.updateFn(ctx, tenantID, channelID, update)
}

func (s stubChannels) TriggerSync(ctx context.Context, tenantID, channelID uuid.UUID) (*channels.SyncTaskView, error) {
	return s.triggerFn(ctx, tenantID, channelID)
}

func (s stubChannels) ListSyncTasks(ctx context.Context, input channels.ListSyncTasksInput) (*channels.SyncTaskPage, error) {
	return s.tasksFn(ctx, input)
}

func TestChannelsAddValidatesPlatform(t *testing.T) {
	rec := serve(t, http.MethodPost, "/channels", "/channels", `{"platform":"taobao","shop_name":"x"}`, ChannelsAdd(stubChannels{}, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	svc := stubChannels{addFn: func(_ context.Context, input channels.AddChannelInput) (*channels.ChannelView, error) {
		if input.TenantID != testTenantID || input.Platform != enums.PlatformPinduoduo {
			t.Fatalf("unexpected input %+v", input)
		}
		return &channels.ChannelView{ID: uuid.New(), Platform: input.Platform, ShopName: input.ShopName}, nil
	}}
	rec = serve(t, http.MethodPost, "/channels", "/channels", `{"platform":"pinduoduo","shop_name":"Main shop"}`, ChannelsAdd(svc, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestChannelsUpdateConfigPartial(t *testing.T) {
	channelID := uuid.New()
	svc := stubChannels{updateFn: func(_ context.Context, _ uuid.UUID, got uuid.UUID, update channels.ConfigUpdate) (*channels.ChannelView, error) {
		if got != channelID {
			t.Fatalf("unexpected channel %s", got)
		}
		if update.SyncMode == nil || *update.SyncMode != enums.SyncModeScheduled {
			t.Fatalf("expected sync mode")
		}
		if update.DeductOn != nil || update.ReturnAutoRestore != nil {
			t.Fatalf("unset fields must stay nil: %+v", update)
		}
		return &channels.ChannelView{ID: channelID}, nil
	}}
	rec := serve(t, http.MethodPatch, "/channels/{channelId}", "/channels/"+channelID.String(),
		`{"sync_mode":"scheduled","sync_interval_minutes":15}`, ChannelsUpdateConfig(svc, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestChannelsTriggerSyncConflict(t *testing.T) {
	svc := stubChannels{triggerFn: func(context.Context, uuid.UUID, uuid.UUID) (*channels.SyncTaskView, error) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a sync is already running for this channel")
	}}
	rec := serve(t, http.MethodPost, "/channels/{channelId}/sync", "/channels/"+uuid.NewString()+"/sync", "", ChannelsTriggerSync(svc, nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestChannelsTriggerSyncAccepted(t *testing.T) {
	svc := stubChannels{triggerFn: func(_ context.Context, _ uuid.UUID, channelID uuid.UUID) (*channels.SyncTaskView, error) {
		return &channels.SyncTaskView{ID: uuid.New(), ChannelID: channelID, Status: enums.SyncTaskStatusProcessing}, nil
	}}
	rec := serve(t, http.MethodPost, "/channels/{channelId}/sync", "/channels/"+uuid.NewString()+"/sync", "", ChannelsTriggerSync(svc, nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", rec.Code)
	}
}

func TestSyncTasksListFilters(t *testing.T) {
	channelID := uuid.New()
	svc := stubChannels{tasksFn: func(_ context.Context, input channels.ListSyncTasksInput) (*channels.SyncTaskPage, error) {
		if input.ChannelID == nil || *input.ChannelID != channelID {
			t.Fatalf("expected channel filter")
		}
		if input.Limit != 5 || input.Cursor != "abc" {
			t.Fatalf("unexpected paging %+v", input)
		}
		return &channels.SyncTaskPage{NextCursor: "def"}, nil
	}}
	rec := serve(t, http.MethodGet, "/sync-tasks", "/sync-tasks?channel_id="+channelID.String()+"&limit=5&cursor=abc", "", SyncTasksList(svc, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var page channels.SyncTaskPage
	decodeData(t, rec, &page)
	if page.NextCursor != "def" {
		t.Fatalf("unexpected cursor %q", page.NextCursor)
	}
}
