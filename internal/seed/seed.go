// Package seed loads the built-in material presets.
package seed

import (
	"database/sql"
	"fmt"
)

// Material is a preset filament with its density and a reference price.
type Material struct {
	Name       string
	Density    float64
	PricePerKg float64
	Notes      string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Presets returns the materials every installation starts with. Prices are in
// MXN per kilogram.
func Presets() []Material {
	return []Material{
		{Name: "PLA", Density: 1.24, PricePerKg: 520, Notes: "Uso general"},
		{Name: "PETG", Density: 1.27, PricePerKg: 560, Notes: "Resistente a impacto y humedad"},
		{Name: "ABS", Density: 1.04, PricePerKg: 480, Notes: "Requiere cámara cerrada"},
		{Name: "TPU", Density: 1.21, PricePerKg: 780, Notes: "Flexible"},
		{Name: "ASA", Density: 1.07, PricePerKg: 650, Notes: "Resistente a UV"},
	}
}

// Run inserts missing presets in one transaction. Existing rows, including
// user edits, are left alone.
func Run(db *sql.DB) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	for _, m := range Presets() {
		if err := ensureMaterial(tx, m, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureMaterial(tx *sql.Tx, m Material, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM materials WHERE name = ? LIMIT 1)`, m.Name).Scan(&exists); err != nil {
		return fmt.Errorf("check material %s existence: %w", m.Name, err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO materials (name, density_g_cm3, price_per_kg, notes, active)
		VALUES (?, ?, ?, ?, TRUE)
	`, m.Name, m.Density, m.PricePerKg, m.Notes); err != nil {
		return fmt.Errorf("insert material %s: %w", m.Name, err)
	}
	stats.Inserts++
	return nil
}
