package services

import (
	"time"

	"github.com/aureliahotels/booking-backend/internal/database"
	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/aureliahotels/booking-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthService authenticates back-office users and issues API tokens
type AdminAuthService struct {
	adminRepo  *database.AdminUserRepository
	jwtService *jwt.Service
	logger     *logrus.Logger
}

// NewAdminAuthService creates a new admin auth service
func NewAdminAuthService(adminRepo *database.AdminUserRepository, jwtService *jwt.Service, logger *logrus.Logger) *AdminAuthService {
	return &AdminAuthService{adminRepo: adminRepo, jwtService: jwtService, logger: logger}
}

// Login verifies credentials and returns a signed token. The same error is
// returned for an unknown email and a wrong password.
func (s *AdminAuthService) Login(req *models.LoginRequest) (*models.LoginResponse, error) {
	admin, err := s.adminRepo.GetByEmail(req.Email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if admin == nil {
		// burn a bcrypt comparison so response timing does not reveal
		// whether the email exists
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$N9qo8uLOickgx2ZMRZoMye"), []byte(req.Password))
		return nil, models.NewUnauthorizedError("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.WithField("email", admin.Email).Warn("Failed admin login attempt")
		return nil, models.NewUnauthorizedError("invalid email or password")
	}

	token, err := s.jwtService.GenerateToken(admin.ID, admin.Email, admin.Role)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"admin_id": admin.ID,
		"email":    admin.Email,
	}).Info("Admin logged in")

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.jwtService.Expiry()),
		Name:      admin.Name,
		Role:      admin.Role,
	}, nil
}
