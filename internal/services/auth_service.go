package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shiwutong/lostfound-backend/internal/database"
	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/models"
	"github.com/shiwutong/lostfound-backend/internal/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

// dummyHash is compared against when the username does not exist so that
// unknown and known usernames cost the same bcrypt round.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("lostfound-timing-equalizer"), bcryptCost)

type AuthService struct {
	db       *gorm.DB
	issuer   *session.Issuer
	attempts int
}

func NewAuthService(db *gorm.DB, issuer *session.Issuer, attempts int) *AuthService {
	return &AuthService{db: db, issuer: issuer, attempts: attempts}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	studentID := strings.TrimSpace(req.StudentID)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)

	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if studentID == "" {
		missing = append(missing, "studentId")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}
	if !strings.Contains(email, "@") {
		return nil, invalidField("email", "email address is not valid")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user models.User
	err = database.WithRetry(ctx, s.attempts, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			conflicts, err := findConflicts(tx, username, studentID, email)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return duplicateFields(conflicts)
			}

			user = models.User{
				Username:  username,
				Password:  string(hash),
				StudentID: studentID,
				Email:     email,
				Phone:     phone,
				Role:      models.RoleUser,
			}
			return tx.Create(&user).Error
		})
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race against a concurrent registration; report what is taken now.
		conflicts, cerr := findConflicts(s.db.WithContext(ctx), username, studentID, email)
		if cerr != nil || len(conflicts) == 0 {
			conflicts = map[string]string{"username": "username already taken"}
		}
		return nil, duplicateFields(conflicts)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return &user, nil
}

// findConflicts checks each unique field on its own so all clashes are reported together.
func findConflicts(db *gorm.DB, username, studentID, email string) (map[string]string, error) {
	checks := []struct {
		field   string
		column  string
		value   string
		message string
	}{
		{"username", "username", username, "username already taken"},
		{"studentId", "student_id", studentID, "student id already registered"},
		{"email", "email", email, "email already registered"},
	}

	conflicts := map[string]string{}
	for _, c := range checks {
		var count int64
		if err := db.Model(&models.User{}).Where(c.column+" = ?", c.value).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			conflicts[c.field] = c.message
		}
	}
	return conflicts, nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	var user models.User
	err := database.WithRetry(ctx, s.attempts, func() error {
		return s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(req.Username)).Take(&user).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issuer.Issue(user.ID, user.IsAdmin(), req.RememberMe)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token:     token,
		IsAdmin:   user.IsAdmin(),
		ExpiresAt: expiresAt,
		User:      NewUserResponse(&user),
	}, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	var users []models.User
	err := database.WithRetry(ctx, s.attempts, func() error {
		return s.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	})
	if err != nil {
		return nil, err
	}

	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out, nil
}

// EnsureAdmin creates the bootstrap admin account, or promotes an existing
// user of that name. An existing password is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if err == nil {
		if user.IsAdmin() {
			return nil
		}
		return s.db.WithContext(ctx).Model(&user).Update("role", models.RoleAdmin).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user = models.User{
		Username:  username,
		Password:  string(hash),
		StudentID: "admin-" + username,
		Email:     username + "@admin.local",
		Role:      models.RoleAdmin,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	slog.Info("bootstrap admin created", "username", username)
	return nil
}

func NewUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		StudentID: u.StudentID,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
	}
}
