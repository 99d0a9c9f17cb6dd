package repository

import (
	"errors"

	"github.com/vialpool-next/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	ListByUserAndBatch(userID, batchID uint) ([]models.CartItem, error)
	GetByUserAndOffer(userID, batchID, offerID uint) (*models.CartItem, error)
	Upsert(item *models.CartItem) error
	DeleteByUserAndOffer(userID, batchID, offerID uint) error
	DeleteByOffer(offerID uint) (int64, error)
	ClearByUserAndBatch(userID, batchID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUserAndBatch 获取用户在某批次下的购物车项
func (r *GormCartRepository) ListByUserAndBatch(userID, batchID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Offer").Preload("Offer.Product").
		Where("user_id = ? AND batch_id = ?", userID, batchID).
		Order("updated_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByUserAndOffer 获取指定购物车行
func (r *GormCartRepository) GetByUserAndOffer(userID, batchID, offerID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Where("user_id = ? AND batch_id = ? AND offer_id = ?", userID, batchID, offerID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Upsert 添加或更新购物车行（同批次同报价合并为一行）
func (r *GormCartRepository) Upsert(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	var existing models.CartItem
	err := r.db.Where("user_id = ? AND batch_id = ? AND offer_id = ?", item.UserID, item.BatchID, item.OfferID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(item).Error
	}
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		"quantity":   item.Quantity,
		"updated_at": item.UpdatedAt,
	}
	return r.db.Model(&existing).Updates(updates).Error
}

// DeleteByUserAndOffer 删除购物车行
func (r *GormCartRepository) DeleteByUserAndOffer(userID, batchID, offerID uint) error {
	return r.db.Where("user_id = ? AND batch_id = ? AND offer_id = ?", userID, batchID, offerID).Delete(&models.CartItem{}).Error
}

// DeleteByOffer 清理指向某报价的全部购物车行（报价下架后由队列任务调用）
func (r *GormCartRepository) DeleteByOffer(offerID uint) (int64, error) {
	if offerID == 0 {
		return 0, errors.New("invalid offer id")
	}
	result := r.db.Where("offer_id = ?", offerID).Delete(&models.CartItem{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ClearByUserAndBatch 清空用户在某批次下的购物车
func (r *GormCartRepository) ClearByUserAndBatch(userID, batchID uint) error {
	return r.db.Where("user_id = ? AND batch_id = ?", userID, batchID).Delete(&models.CartItem{}).Error
}
