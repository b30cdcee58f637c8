package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Hall represents an examination hall. The registry exists for scheduling
// and capacity planning; seating arrangements reference halls by name so
// that ad-hoc rooms can be used without registering them first.
type Hall struct {
	ID        uint64
	Name      string
	Capacity  int
	Location  string
	IsActive  bool
	CreatedBy uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

var ErrHallNotFound = errors.New("hall not found")
var ErrHallExists = errors.New("hall name already exists")

type HallRepo struct{ db *sql.DB }

func NewHallRepo(db *sql.DB) *HallRepo { return &HallRepo{db: db} }

// Create inserts a hall. Hall names are unique.
func (r *HallRepo) Create(ctx context.Context, h *Hall) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO halls (name, capacity, location, created_by) VALUES (?,?,?,?)",
		strings.TrimSpace(h.Name), h.Capacity, h.Location, h.CreatedBy)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrHallExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)

	const q = `SELECT id, name, capacity, location, is_active, created_by, created_at, updated_at
	           FROM halls WHERE id = ?`
	return r.db.QueryRowContext(ctx, q, h.ID).
		Scan(&h.ID, &h.Name, &h.Capacity, &h.Location, &h.IsActive, &h.CreatedBy, &h.CreatedAt, &h.UpdatedAt)
}

// GetByID retrieves a hall by its ID, returning ErrHallNotFound when no
// row is found.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*Hall, error) {
	const q = `SELECT id, name, capacity, location, is_active, created_by, created_at, updated_at
	           FROM halls WHERE id = ?`
	var h Hall
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&h.ID, &h.Name, &h.Capacity, &h.Location, &h.IsActive, &h.CreatedBy, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}
	return &h, nil
}

// List returns active halls ordered by name.
func (r *HallRepo) List(ctx context.Context) ([]*Hall, error) {
	const q = `SELECT id, name, capacity, location, is_active, created_by, created_at, updated_at
	           FROM halls WHERE is_active = 1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Hall
	for rows.Next() {
		h := new(Hall)
		if err := rows.Scan(&h.ID, &h.Name, &h.Capacity, &h.Location, &h.IsActive, &h.CreatedBy, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Update rewrites name/capacity/location. Returns ErrHallNotFound when
// the hall does not exist and ErrHallExists when the new name collides.
func (r *HallRepo) Update(ctx context.Context, h *Hall) error {
	const q = `UPDATE halls SET name=?, capacity=?, location=?, updated_at=NOW() WHERE id=?`
	res, err := r.db.ExecContext(ctx, q, strings.TrimSpace(h.Name), h.Capacity, h.Location, h.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrHallExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, h.ID); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate soft-deletes a hall.
func (r *HallRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE halls SET is_active=0, updated_at=NOW() WHERE id=? AND is_active=1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrHallNotFound
	}
	return nil
}

// CountActive counts registered active halls.
func (r *HallRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM halls WHERE is_active=1").Scan(&n)
	return n, err
}
