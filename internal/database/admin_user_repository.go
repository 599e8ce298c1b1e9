package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/jmoiron/sqlx"
)

// AdminUserRepository handles admin user lookups for authentication
type AdminUserRepository struct {
	db *sqlx.DB
}

// NewAdminUserRepository creates a new AdminUserRepository
func NewAdminUserRepository(db *sqlx.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

// GetByEmail retrieves an active admin user by email, nil when missing
func (r *AdminUserRepository) GetByEmail(email string) (*models.AdminUser, error) {
	var user models.AdminUser
	query := `
		SELECT id, email, password_hash, name, role, is_active, created_at, updated_at
		FROM admin_users
		WHERE email = $1 AND is_active = true`
	err := r.db.Get(&user, query, strings.ToLower(strings.TrimSpace(email)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}
	return &user, nil
}
