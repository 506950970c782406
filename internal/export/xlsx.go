// Package export renders quotes as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/doferlabs/printcost/internal/store"
)

const (
	SheetName       = "Cotización"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type row struct {
	label string
	value any
	money bool
}

// FileName is the suggested download name for q.
func FileName(q store.Quote) string {
	id := q.ID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		id = "nueva"
	}
	return "cotizacion-" + id + ".xlsx"
}

// WriteQuote writes q as a single-sheet workbook.
func WriteQuote(w io.Writer, q store.Quote) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}

	created := ""
	if !q.CreatedAt.IsZero() {
		created = q.CreatedAt.Format("2006-01-02 15:04")
	}
	p, b := q.Params, q.Breakdown

	sections := []struct {
		title string
		rows  []row
	}{
		{"Cotización de impresión 3D", []row{
			{"Título", q.Title, false},
			{"Fecha", created, false},
			{"Archivo", q.FileName, false},
			{"Impresora", q.PrinterName, false},
			{"Moneda", q.Currency, false},
			{"Notas", q.Notes, false},
		}},
		{"Parámetros", []row{
			{"Peso (g)", p.MassGrams, false},
			{"Precio por kg", p.PricePerKg, false},
			{"Desperdicio (%)", p.WastePercent, false},
			{"Tiempo de impresión (h)", p.DurationHours, false},
			{"Potencia (W)", p.PowerWatts, false},
			{"Precio kWh", p.PricePerKWh, false},
			{"Precio de impresora", p.PrinterPrice, false},
			{"Vida útil (h)", p.PrinterLifetimeHours, false},
			{"Margen (%)", p.MarginPercent, false},
		}},
		{"Desglose", []row{
			{"Peso efectivo (g)", b.EffectiveMassGrams, false},
			{"Costo por gramo", b.CostPerGram, false},
			{"Material", b.MaterialCost, true},
			{"Energía (kWh)", b.EnergyKWh, false},
			{"Energía", b.EnergyCost, true},
			{"Depreciación", b.DepreciationCost, true},
			{"Costo total", b.TotalCost, true},
			{"Precio con margen", b.PriceWithMargin, true},
		}},
	}

	r := 1
	for _, sec := range sections {
		if err := setRow(f, r, sec.title, nil, bold); err != nil {
			return err
		}
		r++
		for _, item := range sec.rows {
			if s, ok := item.value.(string); ok && strings.TrimSpace(s) == "" {
				continue
			}
			style := 0
			if item.money {
				style = money
			}
			if err := setRow(f, r, item.label, item.value, style); err != nil {
				return err
			}
			r++
		}
		r++
	}

	if err := f.SetColWidth(SheetName, "A", "A", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", "B", 22); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// setRow writes label in column A and value in column B. A non-zero style
// applies to the label when value is nil and to the value otherwise.
func setRow(f *excelize.File, r int, label string, value any, style int) error {
	a, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(SheetName, a, label); err != nil {
		return fmt.Errorf("set %s: %w", a, err)
	}
	target := a
	if value != nil {
		bcell, err := excelize.CoordinatesToCellName(2, r)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(SheetName, bcell, value); err != nil {
			return fmt.Errorf("set %s: %w", bcell, err)
		}
		target = bcell
	}
	if style != 0 {
		if err := f.SetCellStyle(SheetName, target, target, style); err != nil {
			return fmt.Errorf("style %s: %w", target, err)
		}
	}
	return nil
}
