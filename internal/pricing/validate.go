package pricing

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Field keys used in ValidationError.Fields.
const (
	FieldMassGrams            = "mass_grams"
	FieldPricePerKg           = "price_per_kg"
	FieldWastePercent         = "waste_percent"
	FieldDurationHours        = "duration_hours"
	FieldPowerWatts           = "power_watts"
	FieldPricePerKWh          = "price_per_kwh"
	FieldPrinterPrice         = "printer_price"
	FieldPrinterLifetimeHours = "printer_lifetime_hours"
	FieldMarginPercent        = "margin_percent"
)

// ValidationError maps each invalid field to a human-readable message.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "invalid print parameters: " + strings.Join(parts, "; ")
}

type bound struct {
	field    string
	value    float64
	min, max float64
}

// Validate checks every field of p against its bounds and reports all
// failures at once.
func Validate(p PrintParameters) error {
	fields := map[string]string{}

	for _, b := range []bound{
		{FieldMassGrams, p.MassGrams, 0.1, 10000},
		{FieldPricePerKg, p.PricePerKg, 0, 10000},
		{FieldWastePercent, p.WastePercent, 0, 100},
		{FieldDurationHours, p.DurationHours, 0.01, 1000},
		{FieldPowerWatts, p.PowerWatts, 0, 1000},
		{FieldPricePerKWh, p.PricePerKWh, 0, 100},
		{FieldMarginPercent, p.MarginPercent, 0, 1000},
	} {
		if msg := checkRange(b); msg != "" {
			fields[b.field] = msg
		}
	}

	if msg := checkNonNegative(FieldPrinterPrice, p.PrinterPrice); msg != "" {
		fields[FieldPrinterPrice] = msg
	}
	if msg := checkNonNegative(FieldPrinterLifetimeHours, p.PrinterLifetimeHours); msg != "" {
		fields[FieldPrinterLifetimeHours] = msg
	} else if p.PrinterLifetimeHours > 0 && p.PrinterLifetimeHours < 1 {
		fields[FieldPrinterLifetimeHours] = fmt.Sprintf("%s debe ser 0 o al menos 1", FieldPrinterLifetimeHours)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func checkRange(b bound) string {
	if math.IsNaN(b.value) || math.IsInf(b.value, 0) {
		return fmt.Sprintf("%s debe ser numérico", b.field)
	}
	if b.value < b.min || b.value > b.max {
		return fmt.Sprintf("%s debe estar entre %g y %g", b.field, b.min, b.max)
	}
	return ""
}

func checkNonNegative(field string, value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Sprintf("%s debe ser numérico", field)
	}
	if value < 0 {
		return fmt.Sprintf("%s debe ser mayor o igual a 0", field)
	}
	return ""
}
