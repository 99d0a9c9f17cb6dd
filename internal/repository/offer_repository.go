package repository

import (
	"errors"

	"github.com/vialpool-next/internal/models"

	"gorm.io/gorm"
)

// OfferRepository 批次报价数据访问接口
type OfferRepository interface {
	ListByBatch(batchID uint, onlyActive bool) ([]models.Offer, error)
	GetByID(id uint) (*models.Offer, error)
	GetByBatchAndProduct(batchID, productID uint) (*models.Offer, error)
	ListByIDs(ids []uint) ([]models.Offer, error)
	List(filter OfferListFilter) ([]models.Offer, int64, error)
	Create(item *models.Offer) error
	Update(item *models.Offer) error
	Delete(id uint) error
	ReserveCommitted(offerID uint, quantity int) (int64, error)
	ReleaseCommitted(offerID uint, quantity int) (int64, error)
	SetBoxesAvailable(offerID uint, boxes int) (int64, error)
	WithTx(tx *gorm.DB) OfferRepository
}

// GormOfferRepository GORM 实现
type GormOfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository 创建报价仓库
func NewOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOfferRepository) WithTx(tx *gorm.DB) OfferRepository {
	if tx == nil {
		return r
	}
	return &GormOfferRepository{db: tx}
}

// ListByBatch 获取批次内报价列表
func (r *GormOfferRepository) ListByBatch(batchID uint, onlyActive bool) ([]models.Offer, error) {
	if batchID == 0 {
		return nil, errors.New("invalid batch id")
	}
	query := r.db.Model(&models.Offer{}).Preload("Product").Where("batch_id = ?", batchID)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var items []models.Offer
	if err := query.Order("sort_order DESC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID 根据 ID 获取报价
func (r *GormOfferRepository) GetByID(id uint) (*models.Offer, error) {
	if id == 0 {
		return nil, errors.New("invalid offer id")
	}
	var item models.Offer
	if err := r.db.Preload("Product").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetByBatchAndProduct 按批次和药品获取报价
func (r *GormOfferRepository) GetByBatchAndProduct(batchID, productID uint) (*models.Offer, error) {
	if batchID == 0 || productID == 0 {
		return nil, errors.New("invalid offer lookup params")
	}
	var item models.Offer
	if err := r.db.Where("batch_id = ? AND product_id = ?", batchID, productID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListByIDs 批量获取报价
func (r *GormOfferRepository) ListByIDs(ids []uint) ([]models.Offer, error) {
	if len(ids) == 0 {
		return []models.Offer{}, nil
	}
	var items []models.Offer
	if err := r.db.Preload("Product").Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// List 分页查询报价列表
func (r *GormOfferRepository) List(filter OfferListFilter) ([]models.Offer, int64, error) {
	query := r.db.Model(&models.Offer{})
	if filter.BatchID > 0 {
		query = query.Where("batch_id = ?", filter.BatchID)
	}
	if filter.ProductID > 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.WithProduct {
		query = query.Preload("Product")
	}
	var items []models.Offer
	if err := applyPagination(query.Order("sort_order DESC, id ASC"), filter.Page, filter.PageSize).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Create 创建报价
func (r *GormOfferRepository) Create(item *models.Offer) error {
	if item == nil {
		return errors.New("offer is nil")
	}
	return r.db.Create(item).Error
}

// Update 更新报价
func (r *GormOfferRepository) Update(item *models.Offer) error {
	if item == nil {
		return errors.New("offer is nil")
	}
	return r.db.Save(item).Error
}

// Delete 删除报价
func (r *GormOfferRepository) Delete(id uint) error {
	if id == 0 {
		return errors.New("invalid offer id")
	}
	return r.db.Delete(&models.Offer{}, id).Error
}

// ReserveCommitted 占用容量
// 单条条件更新保证并发下不会越过容量上限：条件不满足时影响行数为 0。
func (r *GormOfferRepository) ReserveCommitted(offerID uint, quantity int) (int64, error) {
	if offerID == 0 || quantity <= 0 {
		return 0, errors.New("invalid capacity reserve params")
	}
	result := r.db.Model(&models.Offer{}).
		Where("id = ? AND committed_units + ? <= boxes_available * box_size", offerID, quantity).
		Updates(map[string]interface{}{
			"committed_units": gorm.Expr("committed_units + ?", quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReleaseCommitted 释放容量占用（取消订单时回补）
func (r *GormOfferRepository) ReleaseCommitted(offerID uint, quantity int) (int64, error) {
	if offerID == 0 || quantity <= 0 {
		return 0, errors.New("invalid capacity release params")
	}
	result := r.db.Model(&models.Offer{}).
		Where("id = ? AND committed_units >= ?", offerID, quantity).
		Updates(map[string]interface{}{
			"committed_units": gorm.Expr("committed_units - ?", quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SetBoxesAvailable 调整整盒容量，不允许调到已占用量以下。
func (r *GormOfferRepository) SetBoxesAvailable(offerID uint, boxes int) (int64, error) {
	if offerID == 0 || boxes < 0 {
		return 0, errors.New("invalid capacity adjust params")
	}
	result := r.db.Model(&models.Offer{}).
		Where("id = ? AND committed_units <= ? * box_size", offerID, boxes).
		Updates(map[string]interface{}{
			"boxes_available": boxes,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
