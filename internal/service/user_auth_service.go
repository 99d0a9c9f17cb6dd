package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vialpool-next/internal/cache"
	"github.com/vialpool-next/internal/config"
	"github.com/vialpool-next/internal/constants"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserAuthService 买家认证服务
// 买家不开放注册：账号由管理员录入，凭手机号 + 参团码登录。
type UserAuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
}

// NewUserAuthService 创建买家认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository) *UserAuthService {
	return &UserAuthService{
		cfg:      cfg,
		userRepo: userRepo,
	}
}

// UserJWTClaims 买家 JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Phone        string `json:"phone"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateUserJWT 生成买家 JWT Token
func (s *UserAuthService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	expireHours := s.cfg.UserJWT.ExpireHours
	if expireHours <= 0 {
		expireHours = 72
	}
	expiresAt := time.Now().Add(time.Duration(expireHours) * time.Hour)
	claims := UserJWTClaims{
		UserID:       user.ID,
		Phone:        user.Phone,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.UserJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析买家 JWT Token
func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.UserJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// Login 买家登录
func (s *UserAuthService) Login(phone, accessCode string) (*models.User, string, time.Time, error) {
	phone = strings.TrimSpace(phone)
	accessCode = strings.TrimSpace(accessCode)
	if phone == "" || accessCode == "" {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByPhone(phone)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.AccessCodeHash), []byte(accessCode)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if user.Status != constants.UserStatusActive {
		return nil, "", time.Time{}, ErrUserDisabled
	}

	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))

	return user, token, expiresAt, nil
}

// UpdateProfileInput 买家资料更新输入
type UpdateProfileInput struct {
	DisplayName     *string
	Locale          *string
	WhatsApp        *string
	ShippingMethod  *string
	ShippingName    *string
	ShippingPhone   *string
	ShippingAddress *string
}

// UpdateProfile 更新买家资料与默认收货信息
func (s *UserAuthService) UpdateProfile(userID uint, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Locale != nil {
		locale := strings.TrimSpace(*input.Locale)
		for _, supported := range constants.SupportedLocales {
			if supported == locale {
				user.Locale = locale
				break
			}
		}
	}
	if input.WhatsApp != nil {
		user.WhatsApp = strings.TrimSpace(*input.WhatsApp)
	}
	if input.ShippingMethod != nil {
		method := strings.TrimSpace(*input.ShippingMethod)
		ok := method == ""
		for _, supported := range constants.SupportedShippingMethods {
			if supported == method {
				ok = true
				break
			}
		}
		if !ok {
			return nil, ErrShippingIncomplete
		}
		user.ShippingMethod = method
	}
	if input.ShippingName != nil {
		user.ShippingName = strings.TrimSpace(*input.ShippingName)
	}
	if input.ShippingPhone != nil {
		user.ShippingPhone = strings.TrimSpace(*input.ShippingPhone)
	}
	if input.ShippingAddress != nil {
		user.ShippingAddress = strings.TrimSpace(*input.ShippingAddress)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID 获取买家
func (s *UserAuthService) GetUserByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}
