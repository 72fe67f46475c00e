package orders

import (
	"bytes"
	"context"

	"github.com/google/uuid"
	"github.com/tealeg/xlsx"

	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/money"
	"github.com/orchidcraft/orchid-backend/pkg/pagination"
)

const salesSheet = "Sales"

var salesHeaders = []string{
	"Order ID", "Created At", "Status", "Artwork ID", "Title",
	"Qty", "Unit Price", "Line Total", "Currency", "Tracking Number",
}

// ExportSales renders every sale line of the seller into an xlsx workbook.
func (s *service) ExportSales(ctx context.Context, sellerID uuid.UUID) ([]byte, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(salesSheet)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create sheet")
	}
	header := sheet.AddRow()
	for _, h := range salesHeaders {
		header.AddCell().SetValue(h)
	}

	params := pagination.Params{Limit: pagination.MaxLimit}
	for {
		page, err := s.GetSales(ctx, sellerID, params)
		if err != nil {
			return nil, err
		}
		for _, order := range page.Items {
			tracking := ""
			if order.TrackingNumber != nil {
				tracking = *order.TrackingNumber
			}
			for _, item := range order.Items {
				row := sheet.AddRow()
				row.AddCell().SetValue(order.ID.String())
				row.AddCell().SetValue(order.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
				row.AddCell().SetValue(string(order.Status))
				row.AddCell().SetValue(item.ArtworkID.String())
				row.AddCell().SetValue(item.Title)
				row.AddCell().SetValue(item.Qty)
				row.AddCell().SetValue(money.FromMinor(item.UnitPrice).StringFixed(2))
				row.AddCell().SetValue(money.FromMinor(item.LineTotal).StringFixed(2))
				row.AddCell().SetValue(string(item.Currency))
				row.AddCell().SetValue(tracking)
			}
		}
		if page.NextCursor == "" {
			break
		}
		params.Cursor = page.NextCursor
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write workbook")
	}
	return buf.Bytes(), nil
}
