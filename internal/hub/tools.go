package hub

const CostCalculatorID = "calculadora-costos-impresion"

// CostCalculator is the manifest of the print cost calculator.
func CostCalculator() Manifest {
	return Manifest{
		ID:          CostCalculatorID,
		Name:        "Calculadora de Costos de Impresión 3D",
		Description: "Calcula el costo real de tus impresiones 3D considerando material, tiempo y energía",
		Category:    CategoryCostos,
		Icon:        "🧮",
		Color:       "#3b82f6",
		Status:      StatusStable,
		Tier:        TierFree,
		Features: Features{
			Exportable: true,
			Saveable:   true,
		},
		SEO: &SEO{
			Title:       "Calculadora de Costos de Impresión 3D | Dofer Labs",
			Description: "Calcula cuánto cuesta realmente imprimir en 3D. Incluye material, electricidad y tiempo.",
			Keywords:    []string{"impresión 3D", "costos", "calculadora", "PLA", "filamento", "makers"},
		},
		Path: "/hub/" + CostCalculatorID,
	}
}

// Default returns a registry holding the built-in tools.
func Default() *Registry {
	r := NewRegistry()
	if _, err := r.Register(CostCalculator()); err != nil {
		panic(err)
	}
	return r
}
