package service

import (
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/repository"

	"gorm.io/gorm"
)

// CapacityService 容量账本服务
// committed_units 的所有增减都必须经过这里的条件更新，
// 读出来的 Remaining 只作展示参考，不构成占用承诺。
type CapacityService struct {
	offerRepo repository.OfferRepository
}

// NewCapacityService 创建容量服务
func NewCapacityService(offerRepo repository.OfferRepository) *CapacityService {
	return &CapacityService{offerRepo: offerRepo}
}

// WithTx 绑定事务
func (s *CapacityService) WithTx(tx *gorm.DB) *CapacityService {
	if tx == nil {
		return s
	}
	return &CapacityService{offerRepo: s.offerRepo.WithTx(tx)}
}

// Remaining 获取报价剩余可占用支数
func (s *CapacityService) Remaining(offerID uint) (int, error) {
	offer, err := s.offerRepo.GetByID(offerID)
	if err != nil {
		return 0, err
	}
	if offer == nil {
		return 0, ErrOfferNotAvailable
	}
	return offer.RemainingUnits(), nil
}

// Reserve 占用容量，容量不足时返回 ErrCapacityExceeded。
func (s *CapacityService) Reserve(offerID uint, quantity int) error {
	if offerID == 0 || quantity <= 0 {
		return ErrQuantityInvalid
	}
	affected, err := s.offerRepo.ReserveCommitted(offerID, quantity)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCapacityExceeded
	}
	return nil
}

// Release 释放容量占用（仅管理员取消订单路径调用）。
func (s *CapacityService) Release(offerID uint, quantity int) error {
	if offerID == 0 || quantity <= 0 {
		return ErrQuantityInvalid
	}
	affected, err := s.offerRepo.ReleaseCommitted(offerID, quantity)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrQuantityInvalid
	}
	return nil
}

// OfferCapacity 单报价容量汇总
type OfferCapacity struct {
	OfferID        uint         `json:"offer_id"`
	ProductID      uint         `json:"product_id"`
	PricePerVial   models.Money `json:"price_per_vial"`
	BoxSize        int          `json:"box_size"`
	BoxesAvailable int          `json:"boxes_available"`
	CapacityUnits  int          `json:"capacity_units"`
	CommittedUnits int          `json:"committed_units"`
	RemainingUnits int          `json:"remaining_units"`
	FullyCommitted bool         `json:"fully_committed"`
}

// BatchCapacitySummary 批次容量汇总
type BatchCapacitySummary struct {
	BatchID        uint            `json:"batch_id"`
	Offers         []OfferCapacity `json:"offers"`
	AllCommitted   bool            `json:"all_committed"`
	TotalCapacity  int             `json:"total_capacity"`
	TotalCommitted int             `json:"total_committed"`
}

// SummarizeBatch 按需计算批次填充进度，全满只是管理员提示，不触发任何阶段变更。
func (s *CapacityService) SummarizeBatch(batchID uint) (*BatchCapacitySummary, error) {
	if batchID == 0 {
		return nil, ErrBatchNotFound
	}
	offers, err := s.offerRepo.ListByBatch(batchID, false)
	if err != nil {
		return nil, err
	}

	summary := &BatchCapacitySummary{BatchID: batchID, Offers: make([]OfferCapacity, 0, len(offers))}
	allCommitted := len(offers) > 0
	for i := range offers {
		offer := offers[i]
		capacity := offer.CapacityUnits()
		remaining := offer.RemainingUnits()
		full := capacity > 0 && remaining == 0
		if !full {
			allCommitted = false
		}
		summary.TotalCapacity += capacity
		summary.TotalCommitted += offer.CommittedUnits
		summary.Offers = append(summary.Offers, OfferCapacity{
			OfferID:        offer.ID,
			ProductID:      offer.ProductID,
			PricePerVial:   offer.PricePerVial,
			BoxSize:        offer.BoxSize,
			BoxesAvailable: offer.BoxesAvailable,
			CapacityUnits:  capacity,
			CommittedUnits: offer.CommittedUnits,
			RemainingUnits: remaining,
			FullyCommitted: full,
		})
	}
	summary.AllCommitted = allCommitted
	return summary, nil
}
