package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/examstack/examhall/internal/utils"
)

// Roles stored in users.role and carried in the JWT "role" claim.
const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleStudent = "STUDENT"
)

// User mirrors the 'users' table. RollNumber, Department and Semester are
// only meaningful for students and stay NULL for staff accounts.
type User struct {
	ID           uint64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	RollNumber   sql.NullString
	Department   sql.NullString
	Semester     sql.NullInt32
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")
var ErrUserNotFound = errors.New("user not found")

// Create inserts a user and returns its ID. The password is hashed here so
// plain text never crosses the repository boundary.
func (r *UserRepo) Create(ctx context.Context, u User, password string, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, roll_number, department, semester) VALUES (?,?,?,?,?,?,?)",
		u.Name, email, hash, u.Role, u.RollNumber, u.Department, u.Semester)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,role,roll_number,department,semester,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.RollNumber, &u.Department, &u.Semester, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,role,roll_number,department,semester,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.RollNumber, &u.Department, &u.Semester, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, ErrUserNotFound
		}
		return u, err
	}
	return u, nil
}

// CountByRole returns the number of active users holding a role. Used by
// the admin dashboard.
func (r *UserRepo) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role=? AND is_active=1", role).Scan(&n)
	return n, err
}
