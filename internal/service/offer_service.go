package service

import (
	"github.com/vialpool-next/internal/logger"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/queue"
	"github.com/vialpool-next/internal/repository"
)

// OfferService 报价管理服务（后台）
type OfferService struct {
	offerRepo   repository.OfferRepository
	batchRepo   repository.BatchRepository
	productRepo repository.ProductRepository
	queueClient *queue.Client
}

// NewOfferService 创建报价服务
func NewOfferService(offerRepo repository.OfferRepository, batchRepo repository.BatchRepository, productRepo repository.ProductRepository, queueClient *queue.Client) *OfferService {
	return &OfferService{
		offerRepo:   offerRepo,
		batchRepo:   batchRepo,
		productRepo: productRepo,
		queueClient: queueClient,
	}
}

// ListByBatch 批次内报价列表（买家视角仅看启用的）
func (s *OfferService) ListByBatch(batchID uint, onlyActive bool) ([]models.Offer, error) {
	batch, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, ErrBatchNotFound
	}
	return s.offerRepo.ListByBatch(batchID, onlyActive)
}

// List 分页查询报价
func (s *OfferService) List(filter repository.OfferListFilter) ([]models.Offer, int64, error) {
	return s.offerRepo.List(filter)
}

// GetByID 获取报价
func (s *OfferService) GetByID(id uint) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrOfferNotAvailable
	}
	return offer, nil
}

// Create 创建报价，同批次同药品只允许一条
func (s *OfferService) Create(offer *models.Offer) error {
	if offer == nil || offer.BatchID == 0 || offer.ProductID == 0 {
		return ErrOfferNotAvailable
	}
	if offer.BoxSize <= 0 || offer.BoxesAvailable < 0 {
		return ErrQuantityInvalid
	}
	batch, err := s.batchRepo.GetByID(offer.BatchID)
	if err != nil {
		return err
	}
	if batch == nil {
		return ErrBatchNotFound
	}
	product, err := s.productRepo.GetByID(offer.ProductID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotAvailable
	}
	existing, err := s.offerRepo.GetByBatchAndProduct(offer.BatchID, offer.ProductID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrOfferConflict
	}
	offer.CommittedUnits = 0
	return s.offerRepo.Create(offer)
}

// Update 更新报价基础信息
// 容量与占用计数不走 Save：容量调整用 AdjustCapacity，占用只归容量账本管。
func (s *OfferService) Update(id uint, price models.Money, isActive bool, sortOrder int) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrOfferNotAvailable
	}
	wasActive := offer.IsActive
	offer.PricePerVial = price
	offer.IsActive = isActive
	offer.SortOrder = sortOrder
	if err := s.offerRepo.Update(offer); err != nil {
		return nil, err
	}
	if wasActive && !isActive {
		s.enqueueCartPrune(offer.ID)
	}
	return offer, nil
}

// AdjustCapacity 调整整盒容量，不允许调到已占用量以下
func (s *OfferService) AdjustCapacity(id uint, boxes int) (*models.Offer, error) {
	if boxes < 0 {
		return nil, ErrQuantityInvalid
	}
	affected, err := s.offerRepo.SetBoxesAvailable(id, boxes)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrCapacityAdjust
	}
	return s.GetByID(id)
}

// Delete 删除报价并异步清理指向它的购物车行
func (s *OfferService) Delete(id uint) error {
	offer, err := s.offerRepo.GetByID(id)
	if err != nil {
		return err
	}
	if offer == nil {
		return ErrOfferNotAvailable
	}
	if offer.CommittedUnits > 0 {
		return ErrOfferInUse
	}
	if err := s.offerRepo.Delete(id); err != nil {
		return err
	}
	s.enqueueCartPrune(id)
	return nil
}

func (s *OfferService) enqueueCartPrune(offerID uint) {
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	if err := s.queueClient.EnqueueCartPruneOffer(queue.CartPruneOfferPayload{OfferID: offerID}); err != nil {
		logger.Warnw("cart_prune_enqueue_failed", "offer_id", offerID, "error", err)
	}
}
