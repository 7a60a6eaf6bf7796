package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/doumai/doumai-backend/api/responses"
	"github.com/doumai/doumai-backend/api/validators"
	"github.com/doumai/doumai-backend/internal/returns"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
)

type recordReturnRequest struct {
	ChannelID    *string         `json:"channel_id,omitempty" validate:"omitempty,uuid"`
	OrderID      string          `json:"order_id" validate:"required,max=64"`
	BuyerID      string          `json:"buyer_id" validate:"required,max=64"`
	BuyerName    *string         `json:"buyer_name,omitempty" validate:"omitempty,max=100"`
	Platform     string          `json:"platform" validate:"required,oneof=pinduoduo wechat_miniprogram"`
	SKUID        *string         `json:"sku_id,omitempty" validate:"omitempty,uuid"`
	Quantity     int             `json:"quantity" validate:"gte=0"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	ReturnType   string          `json:"return_type" validate:"omitempty,oneof=refund_only return_and_refund"`
}

type returnStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected completed"`
}

type blacklistRequest struct {
	BuyerID   string  `json:"buyer_id" validate:"required,max=64"`
	BuyerName *string `json:"buyer_name,omitempty" validate:"omitempty,max=100"`
	Platform  string  `json:"platform" validate:"required,oneof=pinduoduo wechat_miniprogram"`
	Reason    *string `json:"reason,omitempty" validate:"omitempty,max=200"`
}

// ReturnsRecord stores a return and, when the channel restores stock on
// returns, puts the quantity back through the ledger.
func ReturnsRecord(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, userID, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body recordReturnRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		channelID, err := optionalUUID(body.ChannelID, "channel_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skuID, err := optionalUUID(body.SKUID, "sku_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		returnType := enums.ReturnTypeReturnAndRefund
		if body.ReturnType != "" {
			returnType = enums.ReturnType(body.ReturnType)
		}

		result, err := svc.RecordReturn(r.Context(), returns.RecordReturnInput{
			TenantID:     tenantID,
			ChannelID:    channelID,
			OrderID:      body.OrderID,
			BuyerID:      body.BuyerID,
			BuyerName:    body.BuyerName,
			Platform:     enums.Platform(body.Platform),
			SKUID:        skuID,
			Quantity:     body.Quantity,
			RefundAmount: body.RefundAmount,
			ReturnType:   returnType,
			OperatorID:   &userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func ReturnsList(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := returns.ListReturnsInput{
			TenantID: tenantID,
			Page:     page,
			BuyerID:  strings.TrimSpace(r.URL.Query().Get("buyer_id")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.ReturnStatus(raw)
			input.Status = &status
		}
		result, err := svc.ListReturns(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ReturnsUpdateStatus(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		returnID, err := validators.ParseURLUUID(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body returnStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.UpdateStatus(r.Context(), tenantID, returnID, enums.ReturnStatus(body.Status)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func ReturnsRiskyBuyers(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		buyers, err := svc.RiskyBuyers(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, buyers)
	}
}

func BlacklistList(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.Blacklist(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

func BlacklistAdd(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, userID, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body blacklistRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.AddToBlacklist(r.Context(), returns.BlacklistInput{
			TenantID:  tenantID,
			BuyerID:   body.BuyerID,
			BuyerName: body.BuyerName,
			Platform:  enums.Platform(body.Platform),
			Reason:    trimmedReason(body.Reason),
			AddedBy:   &userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

func BlacklistRemove(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entryID, err := validators.ParseURLUUID(r, "entryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveFromBlacklist(r.Context(), tenantID, entryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func optionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return &id, nil
}
