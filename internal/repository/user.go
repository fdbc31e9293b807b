package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"taskboard/internal/apperr"
	"taskboard/internal/models"

	"github.com/lib/pq"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create stores a new user. The password must already be hashed by the
// caller. A duplicate email surfaces as a ConflictError.
func (r *UserRepo) Create(fullName, email, passwordHash string, role models.Role) (models.User, error) {
	var id int
	err := r.db.QueryRow(
		"INSERT INTO users (full_name, email, password, role) VALUES ($1, $2, $3, $4) RETURNING id",
		fullName, email, passwordHash, string(role),
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.User{}, apperr.Conflict("Email already exists")
		}
		return models.User{}, fmt.Errorf("creating user: %w", err)
	}
	return models.User{ID: id, FullName: fullName, Email: email, Role: role}, nil
}

func (r *UserRepo) GetByID(id int) (models.User, error) {
	var u models.User
	err := r.db.QueryRow(
		"SELECT id, full_name, email, role FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.FullName, &u.Email, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("fetching user: %w", err)
	}
	return u, nil
}

// Credentials resolves a user by email together with the stored password
// hash. Used only by login.
func (r *UserRepo) Credentials(email string) (models.User, string, error) {
	var u models.User
	var hash string
	err := r.db.QueryRow(
		"SELECT id, full_name, email, password, role FROM users WHERE email = $1",
		email,
	).Scan(&u.ID, &u.FullName, &u.Email, &hash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, "", apperr.NotFound("User not found")
	}
	if err != nil {
		return models.User{}, "", fmt.Errorf("fetching credentials: %w", err)
	}
	return u, hash, nil
}

func (r *UserRepo) List() ([]models.User, error) {
	rows, err := r.db.Query("SELECT id, full_name, email, role FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Role); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// Update overwrites the stored row and returns the fresh view. Empty
// fullName, passwordHash or role mean "keep the current value".
func (r *UserRepo) Update(id int, fullName, passwordHash string, role string) (models.User, error) {
	_, err := r.db.Exec(
		`UPDATE users SET full_name = COALESCE(NULLIF($1, ''), full_name), password = COALESCE(NULLIF($2, ''), password), role = COALESCE(NULLIF($3, ''), role) WHERE id = $4`,
		fullName, passwordHash, role, id,
	)
	if err != nil {
		return models.User{}, fmt.Errorf("updating user: %w", err)
	}
	return r.GetByID(id)
}

func (r *UserRepo) Delete(id int) error {
	res, err := r.db.Exec("DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}
