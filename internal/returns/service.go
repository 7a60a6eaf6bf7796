package returns

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/internal/inventory"
	"github.com/doumai/doumai-backend/internal/subscriptions"
	"github.com/doumai/doumai-backend/pkg/db"
	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
)

type Service interface {
	RecordReturn(ctx context.Context, input RecordReturnInput) (*RecordResult, error)
	ListReturns(ctx context.Context, input ListReturnsInput) (*ReturnPage, error)
	UpdateStatus(ctx context.Context, tenantID, returnID uuid.UUID, status enums.ReturnStatus) error
	RiskyBuyers(ctx context.Context, tenantID uuid.UUID) ([]RiskyBuyer, error)
	Blacklist(ctx context.Context, tenantID uuid.UUID) ([]BlacklistEntry, error)
	AddToBlacklist(ctx context.Context, input BlacklistInput) (*BlacklistEntry, error)
	RemoveFromBlacklist(ctx context.Context, tenantID, entryID uuid.UUID) error
}

// restocker applies the return_restore ledger entry inside the caller's
// transaction.
type restocker interface {
	ApplyAdjustmentTx(ctx context.Context, tx *gorm.DB, input inventory.AdjustmentInput) (*inventory.Snapshot, error)
}

type featureGate interface {
	RequireFeature(ctx context.Context, tenantID uuid.UUID, feature subscriptions.Feature) error
}

type ServiceParams struct {
	Repo      *Repository
	TxRunner  db.TxRunner
	Inventory restocker
	Features  featureGate
	Logger    *logger.Logger
}

type service struct {
	repo      *Repository
	tx        db.TxRunner
	inventory restocker
	features  featureGate
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("returns repository required")
	case params.TxRunner == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Inventory == nil:
		return nil, fmt.Errorf("inventory ledger required")
	case params.Features == nil:
		return nil, fmt.Errorf("feature gate required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.TxRunner,
		inventory: params.Inventory,
		features:  params.Features,
		logg:      params.Logger,
	}, nil
}

// RecordReturn stores a return and grades the buyer. When the source channel
// auto-restores and goods come back, the restock commits in the same
// transaction as the record.
func (s *service) RecordReturn(ctx context.Context, input RecordReturnInput) (*RecordResult, error) {
	if err := normalizeReturn(&input); err != nil {
		return nil, err
	}

	var ch *models.Channel
	if input.ChannelID != nil {
		found, err := s.repo.FindChannel(ctx, input.TenantID, *input.ChannelID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "channel not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load channel")
		}
		if input.Platform != "" && input.Platform != found.Platform {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "platform does not match channel")
		}
		input.Platform = found.Platform
		ch = found
	}
	if !input.Platform.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "platform is required when no channel is given")
	}

	restore := ch != nil && ch.ReturnAutoRestore &&
		input.SKUID != nil && input.ReturnType == enums.ReturnTypeReturnAndRefund

	result := &RecordResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		prior, err := txRepo.CountBuyerReturns(ctx, input.TenantID, input.BuyerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count buyer returns")
		}
		blacklisted, err := txRepo.IsBlacklisted(ctx, input.TenantID, input.BuyerID, input.Platform)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check blacklist")
		}

		rec := &models.ReturnRecord{
			TenantID:     input.TenantID,
			ChannelID:    input.ChannelID,
			OrderID:      input.OrderID,
			BuyerID:      input.BuyerID,
			BuyerName:    input.BuyerName,
			Platform:     input.Platform,
			SKUID:        input.SKUID,
			Quantity:     input.Quantity,
			RefundAmount: input.RefundAmount,
			ReturnType:   input.ReturnType,
			RiskLevel:    RiskLevelFor(int(prior)+1, blacklisted),
			Status:       enums.ReturnStatusPending,
			Restored:     restore,
		}
		if err := txRepo.CreateReturn(ctx, rec); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create return record")
		}
		result.Return = returnViewFromModel(*rec)

		if !restore {
			return nil
		}
		reason := "return " + input.OrderID
		snap, err := s.inventory.ApplyAdjustmentTx(ctx, tx, inventory.AdjustmentInput{
			TenantID:      input.TenantID,
			SKUID:         *input.SKUID,
			ChangeType:    enums.ChangeTypeReturnRestore,
			Quantity:      input.Quantity,
			Reason:        &reason,
			OperatorID:    input.OperatorID,
			SourceChannel: input.ChannelID,
			SourceOrderID: &input.OrderID,
		})
		if err != nil {
			return err
		}
		result.Inventory = snap
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: record return")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"return_id":  result.Return.ID.String(),
		"buyer_id":   input.BuyerID,
		"risk_level": result.Return.RiskLevel.String(),
		"restored":   restore,
	})
	s.logg.Info(logCtx, "returns.recorded")
	return result, nil
}

func normalizeReturn(input *RecordReturnInput) error {
	input.OrderID = strings.TrimSpace(input.OrderID)
	input.BuyerID = strings.TrimSpace(input.BuyerID)
	if input.OrderID == "" || utf8.RuneCountInString(input.OrderID) > maxOrderIDLength {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "order_id is required and at most %d characters", maxOrderIDLength)
	}
	if input.BuyerID == "" || utf8.RuneCountInString(input.BuyerID) > maxBuyerIDLength {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "buyer_id is required and at most %d characters", maxBuyerIDLength)
	}
	if input.BuyerName != nil {
		name := strings.TrimSpace(*input.BuyerName)
		if name == "" {
			input.BuyerName = nil
		} else {
			input.BuyerName = &name
		}
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if input.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be > 0")
	}
	if input.RefundAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "refund_amount must be >= 0")
	}
	if !input.RefundAmount.Equal(input.RefundAmount.Round(2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "refund_amount supports at most 2 decimal places")
	}
	if !input.ReturnType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "return_type must be refund_only or return_and_refund")
	}
	return nil
}

func (s *service) ListReturns(ctx context.Context, input ListReturnsInput) (*ReturnPage, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid return status")
	}
	page := input.Page.Normalize()
	rows, total, err := s.repo.ListReturns(ctx, returnListQuery{
		TenantID: input.TenantID,
		Status:   input.Status,
		BuyerID:  strings.TrimSpace(input.BuyerID),
		Offset:   page.Offset(),
		Limit:    page.PageSize,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list returns")
	}
	out := &ReturnPage{Items: make([]ReturnView, 0, len(rows)), Total: total, Page: page.Page, PageSize: page.PageSize}
	for _, row := range rows {
		out.Items = append(out.Items, returnViewFromModel(row))
	}
	return out, nil
}

func (s *service) UpdateStatus(ctx context.Context, tenantID, returnID uuid.UUID, status enums.ReturnStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid return status")
	}
	affected, err := s.repo.UpdateReturnStatus(ctx, tenantID, returnID, status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update return status")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
	}
	return nil
}

// RiskyBuyers lists buyers with at least three returns, most returns first.
// Totals are summed in Go so refunds stay exact decimals on every driver.
func (s *service) RiskyBuyers(ctx context.Context, tenantID uuid.UUID) ([]RiskyBuyer, error) {
	if err := s.features.RequireFeature(ctx, tenantID, subscriptions.FeatureReturnDetection); err != nil {
		return nil, err
	}

	facts, err := s.repo.ListReturnFacts(ctx, tenantID, "")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list returns")
	}
	blocked, err := s.repo.ActiveBlacklistedBuyers(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list blacklist")
	}
	blacklisted := make(map[string]bool, len(blocked))
	for _, id := range blocked {
		blacklisted[id] = true
	}

	return aggregateBuyers(facts, blacklisted), nil
}

func aggregateBuyers(facts []returnFact, blacklisted map[string]bool) []RiskyBuyer {
	byBuyer := map[string]*RiskyBuyer{}
	for _, f := range facts {
		b, ok := byBuyer[f.BuyerID]
		if !ok {
			b = &RiskyBuyer{BuyerID: f.BuyerID, TotalRefund: decimal.Zero}
			byBuyer[f.BuyerID] = b
		}
		b.ReturnCount++
		b.TotalRefund = b.TotalRefund.Add(f.RefundAmount)
		if f.BuyerName != nil {
			b.BuyerName = f.BuyerName
		}
		if f.CreatedAt.After(b.LastReturnAt) {
			b.LastReturnAt = f.CreatedAt
		}
	}

	out := make([]RiskyBuyer, 0, len(byBuyer))
	for _, b := range byBuyer {
		if b.ReturnCount < mediumRiskReturns {
			continue
		}
		b.Blacklisted = blacklisted[b.BuyerID]
		b.RiskLevel = RiskLevelFor(b.ReturnCount, b.Blacklisted)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReturnCount != out[j].ReturnCount {
			return out[i].ReturnCount > out[j].ReturnCount
		}
		return out[i].BuyerID < out[j].BuyerID
	})
	return out
}

func (s *service) Blacklist(ctx context.Context, tenantID uuid.UUID) ([]BlacklistEntry, error) {
	rows, err := s.repo.ListBlacklist(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list blacklist")
	}
	out := make([]BlacklistEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, blacklistEntryFromModel(row))
	}
	return out, nil
}

// AddToBlacklist upserts on (tenant, buyer, platform). A removed entry is
// reactivated and its return totals refreshed from the return records.
func (s *service) AddToBlacklist(ctx context.Context, input BlacklistInput) (*BlacklistEntry, error) {
	input.BuyerID = strings.TrimSpace(input.BuyerID)
	if input.BuyerID == "" || utf8.RuneCountInString(input.BuyerID) > maxBuyerIDLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "buyer_id is required and at most %d characters", maxBuyerIDLength)
	}
	if !input.Platform.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "platform must be pinduoduo or wechat_miniprogram")
	}

	var entry models.BuyerBlacklist
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		facts, err := txRepo.ListReturnFacts(ctx, input.TenantID, input.BuyerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load buyer returns")
		}
		amount := decimal.Zero
		name := input.BuyerName
		for _, f := range facts {
			amount = amount.Add(f.RefundAmount)
			if name == nil && f.BuyerName != nil {
				name = f.BuyerName
			}
		}

		existing, err := txRepo.FindBlacklist(ctx, input.TenantID, input.BuyerID, input.Platform)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load blacklist entry")
		}
		if existing == nil {
			entry = models.BuyerBlacklist{
				TenantID:     input.TenantID,
				BuyerID:      input.BuyerID,
				BuyerName:    name,
				Platform:     input.Platform,
				Reason:       input.Reason,
				ReturnCount:  len(facts),
				ReturnAmount: amount,
				AddedBy:      input.AddedBy,
				Status:       enums.BlacklistStatusActive,
			}
			if err := txRepo.CreateBlacklist(ctx, &entry); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create blacklist entry")
			}
			return nil
		}

		entry = *existing
		entry.BuyerName = name
		entry.Reason = input.Reason
		entry.ReturnCount = len(facts)
		entry.ReturnAmount = amount
		entry.AddedBy = input.AddedBy
		entry.Status = enums.BlacklistStatusActive
		entry.UpdatedAt = time.Now().UTC()
		_, err = txRepo.UpdateBlacklist(ctx, input.TenantID, entry.ID, map[string]any{
			"buyer_name":    entry.BuyerName,
			"reason":        entry.Reason,
			"return_count":  entry.ReturnCount,
			"return_amount": entry.ReturnAmount,
			"added_by":      entry.AddedBy,
			"status":        entry.Status,
			"updated_at":    entry.UpdatedAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update blacklist entry")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: blacklist buyer")
	}

	s.logg.Info(s.logg.WithField(ctx, "buyer_id", entry.BuyerID), "returns.blacklist.added")
	view := blacklistEntryFromModel(entry)
	return &view, nil
}

func (s *service) RemoveFromBlacklist(ctx context.Context, tenantID, entryID uuid.UUID) error {
	affected, err := s.repo.UpdateBlacklist(ctx, tenantID, entryID, map[string]any{
		"status":     enums.BlacklistStatusRemoved,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: remove blacklist entry")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "blacklist entry not found")
	}
	return nil
}
