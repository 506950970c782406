package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type Material struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Density    float64 `json:"density_g_cm3"`
	PricePerKg float64 `json:"price_per_kg"`
	Notes      string  `json:"notes,omitempty"`
	Active     bool    `json:"active"`
}

// Validate checks the fields a material needs before it is written.
func (m Material) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: nombre es requerido", ErrInvalid)
	}
	if m.Density <= 0 {
		return fmt.Errorf("%w: densidad debe ser mayor a 0", ErrInvalid)
	}
	if m.PricePerKg < 0 {
		return fmt.Errorf("%w: precio por kg debe ser mayor o igual a 0", ErrInvalid)
	}
	return nil
}

const materialColumns = `id, name, density_g_cm3, price_per_kg, COALESCE(notes, ''), active`

func scanMaterial(row interface{ Scan(...any) error }) (Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.Name, &m.Density, &m.PricePerKg, &m.Notes, &m.Active)
	return m, err
}

// ListMaterials returns materials ordered by name.
func (s *Store) ListMaterials(ctx context.Context, activeOnly bool) ([]Material, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+materialColumns+`
		FROM materials
		WHERE (? = FALSE OR active = TRUE)
		ORDER BY name
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := make([]Material, 0)
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}

	return materials, nil
}

func (s *Store) Material(ctx context.Context, id int64) (Material, error) {
	m, err := scanMaterial(s.db.QueryRowContext(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Material{}, fmt.Errorf("material %d: %w", id, ErrNotFound)
		}
		return Material{}, fmt.Errorf("query material %d: %w", id, err)
	}
	return m, nil
}

// MaterialByName matches the name case-insensitively.
func (s *Store) MaterialByName(ctx context.Context, name string) (Material, error) {
	m, err := scanMaterial(s.db.QueryRowContext(ctx, `
		SELECT `+materialColumns+` FROM materials WHERE name = ? COLLATE NOCASE
	`, strings.TrimSpace(name)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Material{}, fmt.Errorf("material %q: %w", name, ErrNotFound)
		}
		return Material{}, fmt.Errorf("query material %q: %w", name, err)
	}
	return m, nil
}

func (s *Store) CreateMaterial(ctx context.Context, m Material) (Material, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Notes = strings.TrimSpace(m.Notes)
	if err := m.Validate(); err != nil {
		return Material{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO materials (name, density_g_cm3, price_per_kg, notes, active)
		VALUES (?, ?, ?, ?, ?)
	`, m.Name, m.Density, m.PricePerKg, m.Notes, m.Active)
	if err != nil {
		return Material{}, fmt.Errorf("insert material: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return Material{}, fmt.Errorf("read material id: %w", err)
	}
	return m, nil
}

func (s *Store) UpdateMaterial(ctx context.Context, m Material) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Notes = strings.TrimSpace(m.Notes)
	if err := m.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE materials
		SET
			name = ?,
			density_g_cm3 = ?,
			price_per_kg = ?,
			notes = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, m.Name, m.Density, m.PricePerKg, m.Notes, m.Active, m.ID)
	if err != nil {
		return fmt.Errorf("update material %d: %w", m.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update material %d: %w", m.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("material %d: %w", m.ID, ErrNotFound)
	}
	return nil
}
