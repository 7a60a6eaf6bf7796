package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/doumai/doumai-backend/api/responses"
	"github.com/doumai/doumai-backend/api/validators"
	"github.com/doumai/doumai-backend/internal/catalog"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
	"github.com/doumai/doumai-backend/pkg/pagination"
)

const maxSearchLength = 100

type createProductRequest struct {
	Name           string           `json:"name" validate:"required,max=200"`
	ImageURL       *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Category       *string          `json:"category,omitempty" validate:"omitempty,max=50"`
	SKUCode        *string          `json:"sku_code,omitempty" validate:"omitempty,max=50"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Cost           *decimal.Decimal `json:"cost,omitempty"`
	InitialStock   *int             `json:"initial_stock,omitempty"`
	AlertThreshold *int             `json:"alert_threshold,omitempty"`
}

// CatalogCreateProduct creates a product, its SKU and the opening inventory.
func CatalogCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, userID, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if (body.Price != nil && body.Price.IsNegative()) || (body.Cost != nil && body.Cost.IsNegative()) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price and cost must be >= 0"))
			return
		}

		result, err := svc.CreateProduct(r.Context(), tenantID, catalog.CreateProductInput{
			Name:           body.Name,
			ImageURL:       body.ImageURL,
			Category:       body.Category,
			SKUCode:        body.SKUCode,
			Price:          body.Price,
			Cost:           body.Cost,
			InitialStock:   body.InitialStock,
			AlertThreshold: body.AlertThreshold,
			OperatorID:     &userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func CatalogListSKUs(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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

		q := r.URL.Query()
		input := catalog.ListSKUsInput{
			TenantID:  tenantID,
			Page:      page,
			Search:    validators.SanitizeString(q.Get("search"), maxSearchLength),
			Sort:      enums.SKUSort(strings.TrimSpace(q.Get("sort"))),
			Ascending: strings.EqualFold(q.Get("order"), "asc"),
		}
		if raw := strings.TrimSpace(q.Get("status")); raw != "" {
			status := enums.SKUStatus(raw)
			input.Status = &status
		}
		if raw := strings.TrimSpace(q.Get("stock_status")); raw != "" {
			stock := enums.StockStatus(raw)
			input.StockStatus = &stock
		}

		result, err := svc.ListSKUs(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CatalogGetSKU(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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
		sku, err := svc.GetSKU(r.Context(), tenantID, skuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sku)
	}
}

// CatalogArchiveSKU hides a SKU from listings. The row and its history stay.
func CatalogArchiveSKU(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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
		if err := svc.ArchiveSKU(r.Context(), tenantID, skuID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func parsePage(r *http.Request) (pagination.PageParams, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
	if err != nil {
		return pagination.PageParams{}, err
	}
	size, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.PageParams{}, err
	}
	return pagination.PageParams{Page: page, PageSize: size}, nil
}
