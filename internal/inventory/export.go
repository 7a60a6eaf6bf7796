package inventory

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/doumai/doumai-backend/pkg/db/models"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
)

const (
	ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportSheet       = "Inventory"
)

var exportHeaders = []string{
	"SKU Code", "SKU Name", "Product", "Total", "Allocated", "Available", "Alert Threshold", "Stock Status", "Updated At",
}

// Export writes the tenant's current stock as an xlsx workbook.
func (s *service) Export(ctx context.Context, tenantID uuid.UUID, w io.Writer) error {
	rows, err := s.repo.ListExportRows(ctx, tenantID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list export rows")
	}

	f, err := buildWorkbook(rows)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build inventory workbook")
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write inventory workbook")
	}
	return nil
}

func buildWorkbook(rows []ExportRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, row := range rows {
		status := ComputeStockStatus(models.Inventory{TotalQuantity: row.TotalQuantity, AlertThreshold: row.AlertThreshold})
		values := []any{
			row.SKUCode,
			row.SKUName,
			row.ProductName,
			row.TotalQuantity,
			row.AllocatedQuantity,
			row.AvailableQuantity,
			row.AlertThreshold,
			status.String(),
			row.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, err
		}
	}
	return f, nil
}
