package service

import (
	"time"

	"github.com/vialpool-next/internal/constants"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/repository"
)

// CartLineDetail 购物车行详情（用于响应）
type CartLineDetail struct {
	OfferID        uint            `json:"offer_id"`
	ProductID      uint            `json:"product_id"`
	Quantity       int             `json:"quantity"`
	PricePerVial   models.Money    `json:"price_per_vial"`
	RemainingUnits int             `json:"remaining_units"`
	Product        *models.Product `json:"product,omitempty"`
}

// UpsertCartLineInput 购物车更新输入
type UpsertCartLineInput struct {
	UserID   uint
	BatchID  uint
	OfferID  uint
	Quantity int
}

// CartService 购物车服务
// 购物车数量只是意向，不占用容量；超出剩余量允许入车，结算时才裁决。
type CartService struct {
	cartRepo  repository.CartRepository
	offerRepo repository.OfferRepository
	batchRepo repository.BatchRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, offerRepo repository.OfferRepository, batchRepo repository.BatchRepository) *CartService {
	return &CartService{
		cartRepo:  cartRepo,
		offerRepo: offerRepo,
		batchRepo: batchRepo,
	}
}

// requireMutableBatch 校验批次允许编辑购物车
func (s *CartService) requireMutableBatch(batchID uint) (*models.Batch, error) {
	batch, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, ErrBatchNotFound
	}
	if batch.Phase != constants.BatchPhaseFilling {
		return nil, ErrBatchPhaseInvalid
	}
	return batch, nil
}

// ListByUser 获取用户在某批次下的购物车
// 指向已删除或停用报价的过期行在读取时顺手清理。
func (s *CartService) ListByUser(userID, batchID uint) ([]CartLineDetail, error) {
	if userID == 0 || batchID == 0 {
		return nil, ErrInvalidCartItem
	}
	items, err := s.cartRepo.ListByUserAndBatch(userID, batchID)
	if err != nil {
		return nil, err
	}
	details := make([]CartLineDetail, 0, len(items))
	for _, item := range items {
		offer := item.Offer
		if offer == nil || offer.ID == 0 {
			o, err := s.offerRepo.GetByID(item.OfferID)
			if err != nil {
				return nil, err
			}
			offer = o
		}
		if offer == nil || !offer.IsActive {
			_ = s.cartRepo.DeleteByUserAndOffer(userID, batchID, item.OfferID)
			continue
		}
		details = append(details, CartLineDetail{
			OfferID:        item.OfferID,
			ProductID:      offer.ProductID,
			Quantity:       item.Quantity,
			PricePerVial:   offer.PricePerVial,
			RemainingUnits: offer.RemainingUnits(),
			Product:        offer.Product,
		})
	}
	return details, nil
}

// AddItem 加入购物车，同报价已有行则数量累加
func (s *CartService) AddItem(input UpsertCartLineInput) error {
	if input.UserID == 0 || input.BatchID == 0 || input.OfferID == 0 {
		return ErrInvalidCartItem
	}
	if input.Quantity <= 0 {
		return ErrQuantityInvalid
	}
	if _, err := s.requireMutableBatch(input.BatchID); err != nil {
		return err
	}
	offer, err := s.resolveOffer(input.BatchID, input.OfferID)
	if err != nil {
		return err
	}

	quantity := input.Quantity
	existing, err := s.cartRepo.GetByUserAndOffer(input.UserID, input.BatchID, input.OfferID)
	if err != nil {
		return err
	}
	if existing != nil {
		quantity += existing.Quantity
	}
	return s.upsert(input.UserID, offer, quantity)
}

// SetQuantity 设置购物车行数量，数量 <= 0 等价删除
func (s *CartService) SetQuantity(input UpsertCartLineInput) error {
	if input.UserID == 0 || input.BatchID == 0 || input.OfferID == 0 {
		return ErrInvalidCartItem
	}
	if _, err := s.requireMutableBatch(input.BatchID); err != nil {
		return err
	}
	if input.Quantity <= 0 {
		return s.cartRepo.DeleteByUserAndOffer(input.UserID, input.BatchID, input.OfferID)
	}
	offer, err := s.resolveOffer(input.BatchID, input.OfferID)
	if err != nil {
		return err
	}
	return s.upsert(input.UserID, offer, input.Quantity)
}

// RemoveItem 删除购物车行
func (s *CartService) RemoveItem(userID, batchID, offerID uint) error {
	if userID == 0 || batchID == 0 || offerID == 0 {
		return ErrInvalidCartItem
	}
	if _, err := s.requireMutableBatch(batchID); err != nil {
		return err
	}
	return s.cartRepo.DeleteByUserAndOffer(userID, batchID, offerID)
}

func (s *CartService) resolveOffer(batchID, offerID uint) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil || !offer.IsActive || offer.BatchID != batchID {
		return nil, ErrOfferNotAvailable
	}
	return offer, nil
}

func (s *CartService) upsert(userID uint, offer *models.Offer, quantity int) error {
	now := time.Now()
	return s.cartRepo.Upsert(&models.CartItem{
		UserID:    userID,
		BatchID:   offer.BatchID,
		OfferID:   offer.ID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	})
}
