package controllers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/doumai/doumai-backend/api/responses"
	"github.com/doumai/doumai-backend/api/validators"
	"github.com/doumai/doumai-backend/internal/inventory"
	"github.com/doumai/doumai-backend/internal/subscriptions"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 200
	maxReasonLength = 200
)

type featureGate interface {
	RequireFeature(ctx context.Context, tenantID uuid.UUID, feature subscriptions.Feature) error
}

type adjustmentRequest struct {
	ChangeType string  `json:"change_type" validate:"required,oneof=manual_adjust order_deduct return_restore sync import"`
	Quantity   *int    `json:"quantity" validate:"required,min=-2147483647,max=2147483647"`
	Reason     *string `json:"reason,omitempty" validate:"omitempty,max=200"`
}

type batchRequest struct {
	SKUIDs    []string `json:"sku_ids" validate:"required,min=1,dive,uuid"`
	Operation string   `json:"operation" validate:"required,oneof=set increase decrease"`
	Quantity  *int     `json:"quantity" validate:"required,min=-2147483647,max=2147483647"`
	Reason    *string  `json:"reason,omitempty" validate:"omitempty,max=200"`
}

type thresholdRequest struct {
	AlertThreshold *int `json:"alert_threshold" validate:"required,min=0"`
}

// InventoryAdjust applies one ledger change to a SKU.
func InventoryAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, userID, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skuID, err := validators.ParseURLUUID(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adjustmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		changeType, err := enums.ParseChangeType(body.ChangeType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid change_type"))
			return
		}

		snap, err := svc.ApplyAdjustment(r.Context(), inventory.AdjustmentInput{
			TenantID:   tenantID,
			SKUID:      skuID,
			ChangeType: changeType,
			Quantity:   *body.Quantity,
			Reason:     trimmedReason(body.Reason),
			OperatorID: &userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// InventoryBatch applies one operation to several SKUs in order. A failure
// part way answers PARTIAL_FAILURE with the applied snapshots in details.
func InventoryBatch(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, userID, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body batchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		op, err := enums.ParseBatchOperation(body.Operation)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid operation"))
			return
		}
		skuIDs := make([]uuid.UUID, 0, len(body.SKUIDs))
		for _, raw := range body.SKUIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sku id"))
				return
			}
			skuIDs = append(skuIDs, id)
		}

		result, err := svc.ApplyBatch(r.Context(), inventory.BatchInput{
			TenantID:   tenantID,
			SKUIDs:     skuIDs,
			Operation:  op,
			Quantity:   *body.Quantity,
			Reason:     trimmedReason(body.Reason),
			OperatorID: &userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func InventoryGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skuID, err := validators.ParseURLUUID(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := svc.Get(r.Context(), tenantID, skuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

func InventoryLogs(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skuID, err := validators.ParseURLUUID(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultLogLimit, 1, maxLogLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logs, err := svc.ListLogs(r.Context(), tenantID, skuID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, logs)
	}
}

func InventoryUpdateThreshold(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skuID, err := validators.ParseURLUUID(r, "skuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body thresholdRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := svc.UpdateAlertThreshold(r.Context(), tenantID, skuID, *body.AlertThreshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// InventoryExport streams the stock workbook. Plans without data export get
// PLAN_RESTRICTED.
func InventoryExport(svc inventory.Service, gate featureGate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := gate.RequireFeature(r.Context(), tenantID, subscriptions.FeatureDataExport); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var buf bytes.Buffer
		if err := svc.Export(r.Context(), tenantID, &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filename := fmt.Sprintf("inventory-%s.xlsx", tenantID.String()[:8])
		w.Header().Set("Content-Type", inventory.ExportContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil && logg != nil {
			logg.Error(r.Context(), "inventory.export.write_failed", err)
		}
	}
}

func trimmedReason(reason *string) *string {
	if reason == nil {
		return nil
	}
	v := validators.SanitizeString(*reason, maxReasonLength)
	if v == "" {
		return nil
	}
	return &v
}
