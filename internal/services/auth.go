package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/bandhall/bandhall/internal/config"
	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/internal/utils"
	"github.com/bandhall/bandhall/pkg/logger"
	"github.com/bandhall/bandhall/pkg/response"
	"gorm.io/gorm"
)

// AuthService handles registration, login and token lifecycle. Local
// accounts authenticate against a bcrypt hash; when LDAP is enabled,
// directory users are provisioned on first login.
type AuthService struct {
	db   *gorm.DB
	cfg  *config.Config
	ldap *LDAPService
}

func NewAuthService(db *gorm.DB, cfg *config.Config, ldap *LDAPService) *AuthService {
	return &AuthService{db: db, cfg: cfg, ldap: ldap}
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"firstName" binding:"omitempty,max=100"`
	LastName  string `json:"lastName" binding:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenPair struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int          `json:"expiresIn"` // seconds
	User         *models.User `json:"user"`
}

// Register creates a local account.
func (s *AuthService) Register(req *RegisterRequest, ip, userAgent string) (*TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, response.NewConflict("an account with that email already exists")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     email,
		Password:  hash,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      "user",
		AuthType:  "local",
		IsActive:  true,
	}
	if err := s.db.Create(user).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return nil, response.NewConflict("an account with that email already exists")
		}
		return nil, err
	}

	LogInfo("Auth", "Register", "New account: "+email, &user.ID, ip, userAgent, nil)
	return s.issueTokens(user, ip, userAgent)
}

// Login authenticates a user. LDAP users are verified against the directory
// and provisioned locally on first login.
func (s *AuthService) Login(req *LoginRequest, ip, userAgent string) (*TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	found := err == nil

	switch {
	case found && user.AuthType == "local":
		if !utils.CheckPassword(req.Password, user.Password) {
			LogWarning("Auth", "Login", "Bad password for "+email, nil, ip, userAgent, nil)
			return nil, response.NewUnauthorized("invalid email or password")
		}
	case s.ldap != nil && s.ldap.Enabled():
		entry, err := s.ldap.Authenticate(email, req.Password)
		if err != nil {
			return nil, response.NewUnauthorized("invalid email or password")
		}
		if !found {
			user = models.User{
				Email:     email,
				FirstName: entry.FirstName,
				LastName:  entry.LastName,
				Role:      "user",
				AuthType:  "ldap",
				IsActive:  true,
			}
			if err := s.db.Create(&user).Error; err != nil {
				return nil, err
			}
			LogInfo("Auth", "Login", "Provisioned LDAP account: "+email, &user.ID, ip, userAgent, nil)
		}
	default:
		return nil, response.NewUnauthorized("invalid email or password")
	}

	if !user.IsActive {
		return nil, response.NewForbidden("account is disabled")
	}

	now := time.Now()
	s.db.Model(&user).Update("last_login", now)
	user.LastLogin = &now

	return s.issueTokens(&user, ip, userAgent)
}

// issueTokens mints an access JWT and a refresh token, storing only the
// refresh token's hash.
func (s *AuthService) issueTokens(user *models.User, ip, userAgent string) (*TokenPair, error) {
	access, err := utils.GenerateToken(user.ID, user.Email, user.Role, s.cfg.JWT.AccessExpireHours)
	if err != nil {
		return nil, err
	}

	raw, err := newRefreshToken()
	if err != nil {
		return nil, err
	}

	record := &models.RefreshToken{
		UserID:      user.ID,
		TokenHash:   hashToken(raw),
		ExpiresAt:   time.Now().Add(time.Duration(s.cfg.JWT.RefreshExpireHours) * time.Hour),
		CreatedByIP: ip,
		UserAgent:   userAgent,
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresIn:    s.cfg.JWT.AccessExpireHours * 3600,
		User:         user,
	}, nil
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. A revoked or expired token is rejected.
func (s *AuthService) Refresh(req *RefreshRequest, ip, userAgent string) (*TokenPair, error) {
	var record models.RefreshToken
	if err := s.db.Where("token_hash = ?", hashToken(req.RefreshToken)).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewUnauthorized("invalid refresh token")
		}
		return nil, err
	}

	if !record.IsValid() {
		return nil, response.NewUnauthorized("refresh token expired or revoked")
	}

	var user models.User
	if err := s.db.First(&user, record.UserID).Error; err != nil {
		return nil, response.NewUnauthorized("invalid refresh token")
	}
	if !user.IsActive {
		return nil, response.NewForbidden("account is disabled")
	}

	now := time.Now()
	if err := s.db.Model(&record).Update("revoked_at", now).Error; err != nil {
		return nil, err
	}

	return s.issueTokens(&user, ip, userAgent)
}

// Logout revokes all of the user's outstanding refresh tokens.
func (s *AuthService) Logout(userID uint) error {
	return s.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
}

// GetUserByID returns the user's profile.
func (s *AuthService) GetUserByID(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

type UpdateProfileRequest struct {
	FirstName   *string `json:"firstName" binding:"omitempty,max=100"`
	LastName    *string `json:"lastName" binding:"omitempty,max=100"`
	DisplayName *string `json:"displayName" binding:"omitempty,max=100"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location" binding:"omitempty,max=200"`
	Timezone    *string `json:"timezone" binding:"omitempty,max=100"`
}

// UpdateProfile updates the caller's own account profile.
func (s *AuthService) UpdateProfile(userID uint, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.Timezone != nil {
		user.Timezone = *req.Timezone
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the platform admin account from configuration if no
// admin exists yet. A blank configured password disables seeding.
func (s *AuthService) EnsureAdmin() error {
	if s.cfg.Admin.Email == "" || s.cfg.Admin.Password == "" {
		return nil
	}

	var count int64
	s.db.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword(s.cfg.Admin.Password)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:    strings.ToLower(s.cfg.Admin.Email),
		Password: hash,
		Role:     "admin",
		AuthType: "local",
		IsActive: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	logger.Infof("[Auth] Seeded admin account %s", admin.Email)
	return nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
