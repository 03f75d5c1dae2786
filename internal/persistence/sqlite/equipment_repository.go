package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/studio-manager/internal/persistence"
)

// CreateEquipment inserts a new equipment line.
func (s *Store) CreateEquipment(ctx context.Context, equipment persistence.Equipment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO equipment (id, name, category, quantity, daily_rate, condition, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		equipment.ID,
		equipment.Name,
		equipment.Category,
		equipment.Quantity,
		equipment.DailyRate,
		equipment.Condition,
		formatTime(equipment.CreatedAt),
		formatTime(equipment.UpdatedAt),
	)
	return mapError(err)
}

// UpdateEquipment rewrites an equipment line.
func (s *Store) UpdateEquipment(ctx context.Context, equipment persistence.Equipment) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE equipment
		SET name = ?, category = ?, quantity = ?, daily_rate = ?, condition = ?, updated_at = ?
		WHERE id = ?`,
		equipment.Name,
		equipment.Category,
		equipment.Quantity,
		equipment.DailyRate,
		equipment.Condition,
		formatTime(equipment.UpdatedAt),
		equipment.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

// GetEquipment retrieves an equipment line by ID.
func (s *Store) GetEquipment(ctx context.Context, id string) (persistence.Equipment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, quantity, daily_rate, condition, created_at, updated_at
		FROM equipment WHERE id = ?`, id)

	equipment, err := scanEquipment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Equipment{}, persistence.ErrNotFound
		}
		return persistence.Equipment{}, mapError(err)
	}
	return equipment, nil
}

// ListEquipment returns all equipment ordered by name.
func (s *Store) ListEquipment(ctx context.Context) ([]persistence.Equipment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, quantity, daily_rate, condition, created_at, updated_at
		FROM equipment ORDER BY name, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	items := make([]persistence.Equipment, 0)
	for rows.Next() {
		item, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteEquipment removes an equipment line by ID.
func (s *Store) DeleteEquipment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

func scanEquipment(row rowScanner) (persistence.Equipment, error) {
	var equipment persistence.Equipment
	var createdAt, updatedAt string
	if err := row.Scan(
		&equipment.ID,
		&equipment.Name,
		&equipment.Category,
		&equipment.Quantity,
		&equipment.DailyRate,
		&equipment.Condition,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Equipment{}, err
	}

	var err error
	if equipment.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Equipment{}, err
	}
	if equipment.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Equipment{}, err
	}
	return equipment, nil
}
