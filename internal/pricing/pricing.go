package pricing

// PrintParameters represents the user-controlled inputs of a single print job.
// Zero PricePerKg, PricePerKWh, PrinterPrice or PrinterLifetimeHours excludes
// the matching cost component.
type PrintParameters struct {
	MassGrams            float64 `json:"mass_grams" yaml:"mass_grams"`
	PricePerKg           float64 `json:"price_per_kg" yaml:"price_per_kg"`
	WastePercent         float64 `json:"waste_percent" yaml:"waste_percent"`
	DurationHours        float64 `json:"duration_hours" yaml:"duration_hours"`
	PowerWatts           float64 `json:"power_watts" yaml:"power_watts"`
	PricePerKWh          float64 `json:"price_per_kwh" yaml:"price_per_kwh"`
	PrinterPrice         float64 `json:"printer_price" yaml:"printer_price"`
	PrinterLifetimeHours float64 `json:"printer_lifetime_hours" yaml:"printer_lifetime_hours"`
	MarginPercent        float64 `json:"margin_percent" yaml:"margin_percent"`
}

// CostBreakdown contains every line item of a cost computation.
type CostBreakdown struct {
	EffectiveMassGrams float64 `json:"effective_mass_grams"`
	CostPerGram        float64 `json:"cost_per_gram"`
	MaterialCost       float64 `json:"material_cost"`
	EnergyKWh          float64 `json:"energy_kwh"`
	EnergyCost         float64 `json:"energy_cost"`
	DepreciationCost   float64 `json:"depreciation_cost"`
	TotalCost          float64 `json:"total_cost"`
	PriceWithMargin    float64 `json:"price_with_margin"`
}

// Overrides carries values recovered from a slicer file. Nil fields leave the
// base parameter untouched.
type Overrides struct {
	MassGrams     *float64
	DurationHours *float64
	PowerWatts    *float64
}

// Defaults returns the calculator's starting values: a medium PLA part on an
// entry-level printer, priced in MXN.
func Defaults() PrintParameters {
	return PrintParameters{
		MassGrams:            250,
		PricePerKg:           520,
		WastePercent:         10,
		DurationHours:        9.5,
		PowerWatts:           350,
		PricePerKWh:          2.5,
		PrinterPrice:         10999,
		PrinterLifetimeHours: 2000,
		MarginPercent:        30,
	}
}

// With returns a copy of p with the non-nil overrides applied.
func (p PrintParameters) With(o Overrides) PrintParameters {
	if o.MassGrams != nil {
		p.MassGrams = *o.MassGrams
	}
	if o.DurationHours != nil {
		p.DurationHours = *o.DurationHours
	}
	if o.PowerWatts != nil {
		p.PowerWatts = *o.PowerWatts
	}
	return p
}

// Compute validates p and returns its cost breakdown.
func Compute(p PrintParameters) (CostBreakdown, error) {
	if err := Validate(p); err != nil {
		return CostBreakdown{}, err
	}
	return Calculate(p), nil
}

// Calculate computes the cost breakdown without validating p. The order of
// operations is fixed so that results are reproducible to the last bit.
func Calculate(p PrintParameters) CostBreakdown {
	effectiveMass := p.MassGrams * (1.0 + p.WastePercent/100.0)
	costPerGram := p.PricePerKg / 1000.0
	materialCost := effectiveMass * costPerGram

	energyKWh := (p.PowerWatts * p.DurationHours) / 1000.0
	energyCost := energyKWh * p.PricePerKWh

	depreciationCost := 0.0
	if p.PrinterPrice != 0 && p.PrinterLifetimeHours != 0 {
		depreciationCost = (p.PrinterPrice / p.PrinterLifetimeHours) * p.DurationHours
	}

	totalCost := materialCost + energyCost + depreciationCost
	priceWithMargin := totalCost * (1.0 + p.MarginPercent/100.0)

	return CostBreakdown{
		EffectiveMassGrams: effectiveMass,
		CostPerGram:        costPerGram,
		MaterialCost:       materialCost,
		EnergyKWh:          energyKWh,
		EnergyCost:         energyCost,
		DepreciationCost:   depreciationCost,
		TotalCost:          totalCost,
		PriceWithMargin:    priceWithMargin,
	}
}
