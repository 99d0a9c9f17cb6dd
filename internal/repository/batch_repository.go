package repository

import (
	"errors"
	"strings"

	"github.com/vialpool-next/internal/models"

	"gorm.io/gorm"
)

// BatchRepository 批次数据访问接口
type BatchRepository interface {
	List(filter BatchListFilter) ([]models.Batch, int64, error)
	GetByID(id uint) (*models.Batch, error)
	GetBySlug(slug string) (*models.Batch, error)
	Create(item *models.Batch) error
	Update(item *models.Batch) error
	UpdatePhase(id uint, fromPhase, toPhase string, updates map[string]interface{}) (int64, error)
	Delete(id uint) error
	WithTx(tx *gorm.DB) BatchRepository
}

// GormBatchRepository GORM 实现
type GormBatchRepository struct {
	db *gorm.DB
}

// NewBatchRepository 创建批次仓库
func NewBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBatchRepository) WithTx(tx *gorm.DB) BatchRepository {
	if tx == nil {
		return r
	}
	return &GormBatchRepository{db: tx}
}

// List 分页查询批次列表
func (r *GormBatchRepository) List(filter BatchListFilter) ([]models.Batch, int64, error) {
	query := r.db.Model(&models.Batch{})
	if filter.Phase != "" {
		query = query.Where("phase = ?", filter.Phase)
	}
	if len(filter.Phases) > 0 {
		query = query.Where("phase IN ?", filter.Phases)
	}
	if filter.OnlyFeatured {
		query = query.Where("featured = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		condition, argCount := buildLocalizedLikeCondition(r.db, []string{"slug"}, []string{"title_json"})
		query = query.Where(condition, repeatLikeArgs(like, argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.WithOffers {
		query = query.Preload("Offers").Preload("Offers.Product")
	}
	var items []models.Batch
	if err := applyPagination(query.Order("featured DESC, sort_order DESC, id DESC"), filter.Page, filter.PageSize).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetByID 根据 ID 获取批次
func (r *GormBatchRepository) GetByID(id uint) (*models.Batch, error) {
	if id == 0 {
		return nil, errors.New("invalid batch id")
	}
	var item models.Batch
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetBySlug 根据 slug 获取批次
func (r *GormBatchRepository) GetBySlug(slug string) (*models.Batch, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, errors.New("invalid batch slug")
	}
	var item models.Batch
	if err := r.db.Where("slug = ?", slug).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Create 创建批次
func (r *GormBatchRepository) Create(item *models.Batch) error {
	if item == nil {
		return errors.New("batch is nil")
	}
	return r.db.Create(item).Error
}

// Update 更新批次
func (r *GormBatchRepository) Update(item *models.Batch) error {
	if item == nil {
		return errors.New("batch is nil")
	}
	return r.db.Save(item).Error
}

// UpdatePhase 条件更新阶段
// WHERE 带上 fromPhase，并发推进同一批次时只有一个请求生效。
func (r *GormBatchRepository) UpdatePhase(id uint, fromPhase, toPhase string, updates map[string]interface{}) (int64, error) {
	if id == 0 || fromPhase == "" || toPhase == "" {
		return 0, errors.New("invalid phase update params")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["phase"] = toPhase
	result := r.db.Model(&models.Batch{}).
		Where("id = ? AND phase = ?", id, fromPhase).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Delete 删除批次
func (r *GormBatchRepository) Delete(id uint) error {
	if id == 0 {
		return errors.New("invalid batch id")
	}
	return r.db.Delete(&models.Batch{}, id).Error
}
