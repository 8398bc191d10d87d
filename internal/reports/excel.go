// Package reports renders trainer activity into Excel workbooks.
package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"fitsched/internal/models"
)

// Store provides the data a month report needs.
type Store interface {
	ListBookingsBetween(ctx context.Context, trainerID string, from, to time.Time) ([]models.Booking, error)
	ListSubscriptionsForPair(ctx context.Context, clientID, trainerID string) ([]models.Subscription, error)
}

// Generator builds trainer month reports.
type Generator struct {
	store Store
}

// NewGenerator wires a report generator.
func NewGenerator(store Store) *Generator {
	return &Generator{store: store}
}

var bookingHeader = []string{"Booking ID", "Client", "Date", "Start", "End", "Duration (min)", "Status", "Credit used"}

var subscriptionHeader = []string{"Subscription ID", "Plan", "Status", "Payment", "Remaining", "Period start", "Period end", "Amount", "Currency"}

// MonthReport writes an xlsx workbook for one trainer and month: a sheet of
// that month's bookings and a sheet of the subscriptions behind them.
func (g *Generator) MonthReport(ctx context.Context, trainerID string, year int, month time.Month, loc *time.Location, out io.Writer) error {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0)

	bookings, err := g.store.ListBookingsBetween(ctx, trainerID, from, to)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	w := &sheetWriter{file: f}
	if err := w.addSheet("Bookings"); err != nil {
		return err
	}
	if err := w.writeHeader(bookingHeader); err != nil {
		return err
	}

	clients := make(map[string]bool)
	for i := range bookings {
		b := &bookings[i]
		clients[b.ClientID] = true
		row := []interface{}{
			b.ID,
			b.ClientID,
			b.Date.In(loc).Format("2006-01-02"),
			b.StartTime.In(loc).Format("15:04"),
			b.EndTime.In(loc).Format("15:04"),
			b.Duration,
			string(b.Status),
			b.SessionDeducted,
		}
		if err := w.writeRow(row); err != nil {
			return err
		}
	}

	if err := w.addSheet("Subscriptions"); err != nil {
		return err
	}
	if err := w.writeHeader(subscriptionHeader); err != nil {
		return err
	}
	for clientID := range clients {
		subs, err := g.store.ListSubscriptionsForPair(ctx, clientID, trainerID)
		if err != nil {
			return fmt.Errorf("list subscriptions for %s: %w", clientID, err)
		}
		for i := range subs {
			s := &subs[i]
			row := []interface{}{
				s.ID,
				s.PlanID,
				string(s.Status),
				string(s.PaymentStatus),
				s.RemainingSessions,
				formatDate(s.CurrentPeriodStart, loc),
				formatDate(s.CurrentPeriodEnd, loc),
				s.Amount,
				s.Currency,
			}
			if err := w.writeRow(row); err != nil {
				return err
			}
		}
	}

	return f.Write(out)
}

func formatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("2006-01-02")
}

// sheetWriter tracks the cursor while filling a workbook.
type sheetWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

func (w *sheetWriter) addSheet(name string) error {
	if len(name) > 31 {
		name = name[:31]
	}
	if w.currentSheet == "" {
		w.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *sheetWriter) writeHeader(columns []string) error {
	row := make([]interface{}, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := w.writeRow(row); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}
	return nil
}

func (w *sheetWriter) writeRow(row []interface{}) error {
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}
	w.currentRow++
	return nil
}
