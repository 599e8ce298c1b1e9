package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Guest is the person a booking belongs to
type Guest struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns the guest's display name
func (g *Guest) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}

// GuestDetails is the inline guest payload accepted on booking creation,
// upserted by email
type GuestDetails struct {
	FirstName string  `json:"first_name" binding:"required"`
	LastName  string  `json:"last_name" binding:"required"`
	Email     string  `json:"email" binding:"required,email"`
	Phone     *string `json:"phone,omitempty"`
}

// Validate checks the guest payload beyond binding tags
func (g *GuestDetails) Validate() error {
	if strings.TrimSpace(g.FirstName) == "" || strings.TrimSpace(g.LastName) == "" {
		return errors.New("guest first and last name are required")
	}
	if !strings.Contains(g.Email, "@") {
		return errors.New("guest email is invalid")
	}
	return nil
}
