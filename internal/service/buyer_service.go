package service

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/vialpool-next/internal/cache"
	"github.com/vialpool-next/internal/constants"
	"github.com/vialpool-next/internal/logger"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const accessCodeLength = 8

// accessCodeAlphabet 去掉易混淆字符的参团码字母表
const accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// BuyerService 买家白名单管理服务（后台）
type BuyerService struct {
	userRepo repository.UserRepository
}

// NewBuyerService 创建买家管理服务
func NewBuyerService(userRepo repository.UserRepository) *BuyerService {
	return &BuyerService{userRepo: userRepo}
}

// CreateBuyerInput 录入买家输入
type CreateBuyerInput struct {
	Phone       string
	WhatsApp    string
	DisplayName string
	Locale      string
}

// List 买家列表
func (s *BuyerService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// GetByID 获取买家
func (s *BuyerService) GetByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// Create 录入白名单买家并签发参团码
// 参团码明文只在这里返回一次，库里只存哈希。
func (s *BuyerService) Create(input CreateBuyerInput) (*models.User, string, error) {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, "", ErrInvalidCredentials
	}
	existing, err := s.userRepo.GetByPhone(phone)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", ErrInvalidCredentials
	}

	accessCode := generateAccessCode()
	hash, err := bcrypt.GenerateFromPassword([]byte(accessCode), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	locale := strings.TrimSpace(input.Locale)
	if locale == "" {
		locale = constants.LocaleZhCN
	}
	user := &models.User{
		Phone:          phone,
		WhatsApp:       strings.TrimSpace(input.WhatsApp),
		AccessCodeHash: string(hash),
		DisplayName:    strings.TrimSpace(input.DisplayName),
		Locale:         locale,
		Status:         constants.UserStatusActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, "", err
	}

	logger.Infow("buyer_whitelisted", "user_id", user.ID, "phone", phone)
	return user, accessCode, nil
}

// ResetAccessCode 重签参团码并作废旧 Token
func (s *BuyerService) ResetAccessCode(userID uint) (*models.User, string, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrNotFound
	}

	accessCode := generateAccessCode()
	hash, err := bcrypt.GenerateFromPassword([]byte(accessCode), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	user.AccessCodeHash = string(hash)
	user.TokenVersion++
	user.TokenInvalidBefore = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return user, accessCode, nil
}

// UpdateStatus 启用/停用买家
func (s *BuyerService) UpdateStatus(userID uint, status string) (*models.User, error) {
	if status != constants.UserStatusActive && status != constants.UserStatusDisabled {
		return nil, ErrInvalidInput
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	user.Status = status
	if status == constants.UserStatusDisabled {
		now := time.Now()
		user.TokenVersion++
		user.TokenInvalidBefore = &now
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return user, nil
}

func generateAccessCode() string {
	var b strings.Builder
	max := big.NewInt(int64(len(accessCodeAlphabet)))
	for i := 0; i < accessCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			b.WriteByte(accessCodeAlphabet[0])
			continue
		}
		b.WriteByte(accessCodeAlphabet[n.Int64()])
	}
	return b.String()
}
