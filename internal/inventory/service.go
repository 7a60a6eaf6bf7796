package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/db"
	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
	"github.com/doumai/doumai-backend/pkg/metrics"
)

const (
	DefaultLogLimit   = 50
	MaxLogLimit       = 200
	DefaultBatchLimit = 200
)

// Service is the inventory ledger. Every stock mutation goes through
// ApplyAdjustment and leaves exactly one log row behind.
type Service interface {
	ApplyAdjustment(ctx context.Context, input AdjustmentInput) (*Snapshot, error)
	ApplyAdjustmentTx(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*Snapshot, error)
	ApplyBatch(ctx context.Context, input BatchInput) (*BatchResult, error)
	Seed(ctx context.Context, tx *gorm.DB, input SeedInput) (*Snapshot, error)
	Get(ctx context.Context, tenantID, skuID uuid.UUID) (*Snapshot, error)
	ListLogs(ctx context.Context, tenantID, skuID uuid.UUID, limit int) ([]LogEntry, error)
	UpdateAlertThreshold(ctx context.Context, tenantID, skuID uuid.UUID, threshold int) (*Snapshot, error)
	Export(ctx context.Context, tenantID uuid.UUID, w io.Writer) error
}

type Options struct {
	BatchLimit int
	Metrics    *metrics.LedgerMetrics
	Now        func() time.Time
}

type service struct {
	repo       *Repository
	tx         db.TxRunner
	logg       *logger.Logger
	metrics    *metrics.LedgerMetrics
	batchLimit int
	now        func() time.Time
}

func NewService(repo *Repository, tx db.TxRunner, logg *logger.Logger, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	s := &service{
		repo:       repo,
		tx:         tx,
		logg:       logg,
		metrics:    opts.Metrics,
		batchLimit: opts.BatchLimit,
		now:        opts.Now,
	}
	if s.batchLimit <= 0 {
		s.batchLimit = DefaultBatchLimit
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s, nil
}

func (s *service) ApplyAdjustment(ctx context.Context, input AdjustmentInput) (*Snapshot, error) {
	if err := validateAdjustment(input); err != nil {
		return nil, err
	}

	var snap *Snapshot
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		snap, err = s.apply(ctx, tx, input)
		return err
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: apply adjustment")
	}
	return snap, nil
}

// ApplyAdjustmentTx runs the adjustment inside a transaction owned by the
// caller, so a return record and its restock commit together.
func (s *service) ApplyAdjustmentTx(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*Snapshot, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if err := validateAdjustment(input); err != nil {
		return nil, err
	}
	return s.apply(ctx, tx, input)
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*Snapshot, error) {
	txRepo := s.repo.WithTx(tx)

	inv, err := txRepo.LockForUpdate(ctx, input.TenantID, input.SKUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found").
				WithDetails(map[string]any{"sku_id": input.SKUID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock inventory")
	}

	before := inv.TotalQuantity
	after, clamped, err := nextTotal(input.ChangeType, before, input.Quantity)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "resulting total must not exceed %d", MaxQuantity).
			WithDetails(map[string]any{"sku_id": input.SKUID.String(), "current": before})
	}
	now := s.now()

	inv.TotalQuantity = after
	inv.AvailableQuantity = after - inv.AllocatedQuantity
	inv.UpdatedAt = now
	if err := txRepo.SaveQuantities(ctx, inv); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update inventory")
	}

	entry := &models.InventoryLog{
		TenantID:       input.TenantID,
		SKUID:          input.SKUID,
		ChangeType:     input.ChangeType,
		ChangeQuantity: after - before,
		BeforeQuantity: before,
		AfterQuantity:  after,
		SourceChannel:  input.SourceChannel,
		SourceOrderID:  input.SourceOrderID,
		OperatorID:     input.OperatorID,
		Reason:         normalizeReason(input.Reason),
		CreatedAt:      now,
	}
	if err := txRepo.InsertLog(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert inventory log")
	}

	s.metrics.IncAdjustment(input.ChangeType.String())
	if clamped {
		s.metrics.IncClamped()
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"sku_id":    input.SKUID.String(),
			"requested": abs(input.Quantity),
			"deducted":  before,
		})
		s.logg.Warn(logCtx, "inventory.deduct.clamped")
	}

	snap := snapshotFromModel(*inv)
	return &snap, nil
}

// ApplyBatch adjusts each SKU in input order, each in its own transaction.
// The first failure stops the batch; SKUs already applied stay applied and
// are reported in the error details.
func (s *service) ApplyBatch(ctx context.Context, input BatchInput) (*BatchResult, error) {
	if len(input.SKUIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku_ids must not be empty")
	}
	if len(input.SKUIDs) > s.batchLimit {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d skus per batch", s.batchLimit)
	}
	if !input.Operation.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "operation must be one of set, increase, decrease")
	}

	changeType := input.Operation.ChangeType()
	if err := validateQuantity(changeType, input.Quantity); err != nil {
		return nil, err
	}
	result := &BatchResult{Applied: make([]Snapshot, 0, len(input.SKUIDs))}

	for i, skuID := range input.SKUIDs {
		snap, err := s.ApplyAdjustment(ctx, AdjustmentInput{
			TenantID:   input.TenantID,
			SKUID:      skuID,
			ChangeType: changeType,
			Quantity:   input.Quantity,
			Reason:     input.Reason,
			OperatorID: input.OperatorID,
		})
		if err != nil {
			s.metrics.IncBatchFailure()
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"failed_sku_id": skuID.String(),
				"applied":       i,
				"remaining":     len(input.SKUIDs) - i - 1,
			})
			s.logg.Warn(logCtx, "inventory.batch.partial_failure")
			return result, pkgerrors.Wrap(pkgerrors.CodePartialFailure, err, "batch stopped after a failing sku").
				WithDetails(BatchFailure{
					Applied:     result.Applied,
					FailedSKUID: skuID,
					Remaining:   len(input.SKUIDs) - i - 1,
					Cause:       publicCause(err),
				})
		}
		result.Applied = append(result.Applied, *snap)
	}
	return result, nil
}

func (s *service) Seed(ctx context.Context, tx *gorm.DB, input SeedInput) (*Snapshot, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	initial := max(input.InitialStock, 0)
	threshold := max(input.AlertThreshold, 0)
	now := s.now()

	txRepo := s.repo.WithTx(tx)
	inv := &models.Inventory{
		SKUID:             input.SKUID,
		TenantID:          input.TenantID,
		TotalQuantity:     initial,
		AvailableQuantity: initial,
		AlertThreshold:    threshold,
		UpdatedAt:         now,
	}
	if err := txRepo.Create(ctx, inv); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "inventory already exists for sku")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create inventory")
	}

	reason := input.Reason
	if err := txRepo.InsertLog(ctx, &models.InventoryLog{
		TenantID:       input.TenantID,
		SKUID:          input.SKUID,
		ChangeType:     enums.ChangeTypeImport,
		ChangeQuantity: initial,
		BeforeQuantity: 0,
		AfterQuantity:  initial,
		OperatorID:     input.OperatorID,
		Reason:         normalizeReason(&reason),
		CreatedAt:      now,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert seed log")
	}

	s.metrics.IncAdjustment(enums.ChangeTypeImport.String())
	snap := snapshotFromModel(*inv)
	return &snap, nil
}

func (s *service) Get(ctx context.Context, tenantID, skuID uuid.UUID) (*Snapshot, error) {
	inv, err := s.repo.Find(ctx, tenantID, skuID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load inventory")
	}
	snap := snapshotFromModel(*inv)
	return &snap, nil
}

func (s *service) ListLogs(ctx context.Context, tenantID, skuID uuid.UUID, limit int) ([]LogEntry, error) {
	switch {
	case limit <= 0:
		limit = DefaultLogLimit
	case limit > MaxLogLimit:
		limit = MaxLogLimit
	}
	rows, err := s.repo.ListLogs(ctx, tenantID, skuID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list inventory logs")
	}
	out := make([]LogEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, logEntryFromModel(row))
	}
	return out, nil
}

func (s *service) UpdateAlertThreshold(ctx context.Context, tenantID, skuID uuid.UUID, threshold int) (*Snapshot, error) {
	if threshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "alert_threshold must be >= 0")
	}
	affected, err := s.repo.SetAlertThreshold(ctx, tenantID, skuID, threshold, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update alert threshold")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
	}
	return s.Get(ctx, tenantID, skuID)
}

func validateAdjustment(input AdjustmentInput) error {
	if input.SKUID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku_id is required")
	}
	if input.TenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant_id is required")
	}
	if !input.ChangeType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid change_type")
	}
	return validateQuantity(input.ChangeType, input.Quantity)
}

func validateQuantity(changeType enums.ChangeType, quantity int) error {
	if quantity > MaxQuantity || quantity < -MaxQuantity {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be between %d and %d", -MaxQuantity, MaxQuantity)
	}
	if changeType == enums.ChangeTypeManualAdjust && quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be >= 0 for manual_adjust")
	}
	return nil
}

func normalizeReason(reason *string) *string {
	if reason == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*reason)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func publicCause(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeInternal)
}
