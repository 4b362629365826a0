// internal/domain/user/service.go
package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vision-studio/storefront-backend/internal/config"
	"github.com/vision-studio/storefront-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Service handles user business logic
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
	jwtManager  *auth.JWTManager
	passwordMgr *auth.PasswordManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
		jwtManager: auth.NewJWTManager(
			cfg.JWT.Secret,
			cfg.JWT.AccessTokenExpiry,
			cfg.JWT.RefreshTokenExpiry,
			cfg.App.Name,
		),
		passwordMgr: auth.NewPasswordManager(cfg.Security.BcryptCost),
	}
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.passwordMgr.ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}

	var existing User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("email is already registered")
	}

	hashed, err := s.passwordMgr.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
		IsActive:  true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.buildAuthResponse(&user)
}

// Login authenticates a user with email and password
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account is deactivated")
	}
	if err := s.passwordMgr.VerifyPassword(user.Password, req.Password); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	s.db.WithContext(ctx).Model(&user).Update("last_login", now)

	return s.buildAuthResponse(&user)
}

// RefreshToken exchanges a valid refresh token for a new token pair
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token")
	}

	var user User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found")
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account is deactivated")
	}

	return s.buildAuthResponse(&user)
}

// GetProfile retrieves a user's profile
func (s *Service) GetProfile(ctx context.Context, userID uint) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return &user, nil
}

// UpdateProfile updates a user's profile fields
func (s *Service) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found")
	}

	updates := map[string]interface{}{}
	if req.FirstName != "" {
		updates["first_name"] = strings.TrimSpace(req.FirstName)
	}
	if req.LastName != "" {
		updates["last_name"] = strings.TrimSpace(req.LastName)
	}
	if req.Phone != "" {
		updates["phone"] = strings.TrimSpace(req.Phone)
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}
	return &user, nil
}

// ChangePassword changes a user's password after verifying the current one
func (s *Service) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error {
	var user User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return fmt.Errorf("user not found")
	}
	if err := s.passwordMgr.VerifyPassword(user.Password, req.CurrentPassword); err != nil {
		return fmt.Errorf("current password is incorrect")
	}
	if err := s.passwordMgr.ValidatePasswordStrength(req.NewPassword); err != nil {
		return err
	}

	hashed, err := s.passwordMgr.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&user).Update("password", hashed).Error
}

// ForgotPassword issues a single-use reset token stored in Redis. The token
// is returned to the caller; delivery is out of scope for the API layer.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		// Don't reveal whether the email exists
		return "", nil
	}

	token := uuid.New().String()
	key := fmt.Sprintf("pwreset:%s", token)
	if err := s.redisClient.Set(ctx, key, user.ID, s.config.Security.ResetTokenExpiry).Err(); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}
	return token, nil
}

// ResetPassword completes a password reset using a previously issued token
func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	key := fmt.Sprintf("pwreset:%s", req.Token)
	userID, err := s.redisClient.Get(ctx, key).Uint64()
	if err != nil {
		return fmt.Errorf("invalid or expired reset token")
	}

	if err := s.passwordMgr.ValidatePasswordStrength(req.NewPassword); err != nil {
		return err
	}
	hashed, err := s.passwordMgr.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("password", hashed)
	if result.Error != nil {
		return fmt.Errorf("failed to reset password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	// Token is single-use
	s.redisClient.Del(ctx, key)
	return nil
}

// MarkQuestionnaireDone records that the visitor completed the style
// questionnaire, so returning visitors skip it.
func (s *Service) MarkQuestionnaireDone(ctx context.Context, email string, answers map[string]string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	key := fmt.Sprintf("questionnaire:done:%s", email)
	data := "1"
	if len(answers) > 0 {
		pairs := make([]string, 0, len(answers))
		for k, v := range answers {
			pairs = append(pairs, k+"="+v)
		}
		data = strings.Join(pairs, ";")
	}
	return s.redisClient.Set(ctx, key, data, 0).Err()
}

// QuestionnaireDone reports whether the visitor already completed the
// style questionnaire
func (s *Service) QuestionnaireDone(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}

	key := fmt.Sprintf("questionnaire:done:%s", email)
	_, err := s.redisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check questionnaire status: %w", err)
	}
	return true, nil
}

// ValidateToken validates an access token and returns its claims
func (s *Service) ValidateToken(token string) (*auth.Claims, error) {
	return s.jwtManager.ValidateToken(token)
}

func (s *Service) buildAuthResponse(user *User) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.JWT.AccessTokenExpiry.Seconds()),
	}, nil
}
