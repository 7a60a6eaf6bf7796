package controllers

import (
	"net/http"
	"strings"

	"github.com/doumai/doumai-backend/api/responses"
	"github.com/doumai/doumai-backend/api/validators"
	"github.com/doumai/doumai-backend/internal/channels"
	"github.com/doumai/doumai-backend/pkg/enums"
	"github.com/doumai/doumai-backend/pkg/logger"
	"github.com/doumai/doumai-backend/pkg/pagination"
)

type addChannelRequest struct {
	Platform string `json:"platform" validate:"required,oneof=pinduoduo wechat_miniprogram"`
	ShopName string `json:"shop_name" validate:"required"`
}

type channelConfigRequest struct {
	SyncMode            *string `json:"sync_mode,omitempty" validate:"omitempty,oneof=realtime scheduled"`
	SyncIntervalMinutes *int    `json:"sync_interval_minutes,omitempty" validate:"omitempty,min=1"`
	DeductOn            *string `json:"deduct_on,omitempty" validate:"omitempty,oneof=order payment"`
	ReturnAutoRestore   *bool   `json:"return_auto_restore,omitempty"`
}

func (b channelConfigRequest) toUpdate() channels.ConfigUpdate {
	update := channels.ConfigUpdate{
		SyncIntervalMinutes: b.SyncIntervalMinutes,
		ReturnAutoRestore:   b.ReturnAutoRestore,
	}
	if b.SyncMode != nil {
		mode := enums.SyncMode(*b.SyncMode)
		update.SyncMode = &mode
	}
	if b.DeductOn != nil {
		deduct := enums.DeductOn(*b.DeductOn)
		update.DeductOn = &deduct
	}
	return update
}

func ChannelsList(svc channels.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ChannelsAdd connects a marketplace shop. The plan's channel quota applies.
func ChannelsAdd(svc channels.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body addChannelRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Add(r.Context(), channels.AddChannelInput{
			TenantID: tenantID,
			Platform: enums.Platform(body.Platform),
			ShopName: body.ShopName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func ChannelsUpdateConfig(svc channels.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		channelID, err := validators.ParseURLUUID(r, "channelId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body channelConfigRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.UpdateConfig(r.Context(), tenantID, channelID, body.toUpdate())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func ChannelsDisconnect(svc channels.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		channelID, err := validators.ParseURLUUID(r, "channelId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Disconnect(r.Context(), tenantID, channelID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ChannelsTriggerSync opens a manual sync task. The worker finishes it.
func ChannelsTriggerSync(svc channels.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		channelID, err := validators.ParseURLUUID(r, "channelId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		task, err := svc.TriggerSync(r.Context(), tenantID, channelID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, task)
	}
}

func SyncTasksList(svc channels.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		channelID, err := validators.ParseQueryUUID(r, "channel_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListSyncTasks(r.Context(), channels.ListSyncTasksInput{
			TenantID:  tenantID,
			ChannelID: channelID,
			Limit:     limit,
			Cursor:    strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
