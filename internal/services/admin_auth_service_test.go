package services

import (
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aureliahotels/booking-backend/internal/database"
	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/aureliahotels/booking-backend/pkg/jwt"
)

func setupAdminAuthTest(t *testing.T) (*AdminAuthService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	adminRepo := database.NewAdminUserRepository(sqlxDB)
	jwtService := jwt.NewService("test-secret", time.Hour)
	service := NewAdminAuthService(adminRepo, jwtService, logger)

	cleanup := func() {
		db.Close()
	}
	return service, mock, cleanup
}

func adminRows(t *testing.T, email, password string) (*sqlmock.Rows, uuid.UUID) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	id := uuid.New()
	rows := sqlmock.NewRows([]string{
		"id", "email", "password_hash", "name", "role", "is_active", "created_at", "updated_at",
	}).AddRow(id, email, string(hash), "Front Desk", "manager", true, time.Now(), time.Now())
	return rows, id
}

func TestLogin_Success(t *testing.T) {
	service, mock, cleanup := setupAdminAuthTest(t)
	defer cleanup()

	rows, _ := adminRows(t, "desk@example.com", "correct horse")
	mock.ExpectQuery("SELECT (.+) FROM admin_users").
		WithArgs("desk@example.com").
		WillReturnRows(rows)

	resp, err := service.Login(&models.LoginRequest{Email: "  Desk@Example.com ", Password: "correct horse"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Front Desk", resp.Name)
	assert.Equal(t, "manager", resp.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, 5*time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_WrongPassword(t *testing.T) {
	service, mock, cleanup := setupAdminAuthTest(t)
	defer cleanup()

	rows, _ := adminRows(t, "desk@example.com", "correct horse")
	mock.ExpectQuery("SELECT (.+) FROM admin_users").
		WithArgs("desk@example.com").
		WillReturnRows(rows)

	_, err := service.Login(&models.LoginRequest{Email: "desk@example.com", Password: "battery staple"})

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeUnauthorized, models.AsAppError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_UnknownEmailGetsSameError(t *testing.T) {
	service, mock, cleanup := setupAdminAuthTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM admin_users").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := service.Login(&models.LoginRequest{Email: "ghost@example.com", Password: "anything"})

	require.Error(t, err)
	appErr := models.AsAppError(err)
	assert.Equal(t, models.ErrCodeUnauthorized, appErr.Code)
	assert.Equal(t, "invalid email or password", appErr.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}
