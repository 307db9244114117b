package shipment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/tradeops/backend/internal/domain/shared"
	"github.com/tradeops/backend/internal/infrastructure/telemetry"
)

// Workbook sheet names
const (
	AllocationsSheet = "Allocations"
	SuppliersSheet   = "Suppliers"
)

var allocationHeaders = []any{
	"Payment ID", "Committed At", "Reference", "Strategy", "Payment Amount", "Currency", "Supplier ID", "Allocated Amount",
}

var supplierHeaders = []any{
	"Supplier ID", "Goods Total", "Goods Paid", "Outstanding",
}

// ExportPayments renders every committed allocation of a shipment as an
// XLSX workbook with one row per supplier allocation, plus a sheet with the
// current supplier balances.
func (s *AllocationService) ExportPayments(ctx context.Context, tenantID, shipmentID uuid.UUID) ([]byte, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "goods_payment", "export_payments",
		telemetry.AttrShipmentID.String(shipmentID.String()))
	defer span.End()

	sh, totals, err := s.loadTotals(ctx, tenantID, shipmentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	payments, err := s.allPayments(ctx, tenantID, shipmentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", AllocationsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SuppliersSheet); err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	rows := [][]any{allocationHeaders}
	for _, p := range payments {
		for _, a := range p.Allocations {
			rows = append(rows, []any{
				p.ID.String(),
				p.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
				p.Reference,
				p.Strategy,
				p.Amount.InexactFloat64(),
				p.Currency,
				a.SupplierID.String(),
				a.AllocatedAmount.InexactFloat64(),
			})
		}
	}
	if err := writeSheet(f, AllocationsSheet, rows, header); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	supplierRows := [][]any{supplierHeaders}
	for _, t := range totals.Suppliers {
		supplierRows = append(supplierRows, []any{
			t.SupplierID.String(),
			t.GoodsTotal.InexactFloat64(),
			t.GoodsPaid.InexactFloat64(),
			t.Outstanding.InexactFloat64(),
		})
	}
	supplierRows = append(supplierRows, []any{
		"Total " + sh.ReferenceNo,
		totals.ShipmentGoodsTotal.InexactFloat64(),
		totals.ShipmentGoodsTotal.Sub(totals.TotalOutstanding).InexactFloat64(),
		totals.TotalOutstanding.InexactFloat64(),
	})
	if err := writeSheet(f, SuppliersSheet, supplierRows, header); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	telemetry.SetOK(span)
	return buf.Bytes(), nil
}

func (s *AllocationService) allPayments(ctx context.Context, tenantID, shipmentID uuid.UUID) ([]PaymentResponse, error) {
	filter := shared.Filter{Page: 1, PageSize: shared.MaxPageSize, OrderDir: "asc"}
	var out []PaymentResponse
	for {
		page, total, err := s.paymentRepo.ListByShipment(ctx, tenantID, shipmentID, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list goods payments: %w", err)
		}
		for i := range page {
			out = append(out, ToPaymentResponse(&page[i]))
		}
		if len(page) < filter.PageSize || int64(len(out)) >= total {
			return out, nil
		}
		filter.Page++
	}
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	last, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 20)
}
