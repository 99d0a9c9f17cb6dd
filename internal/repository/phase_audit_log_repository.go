package repository

import (
	"github.com/vialpool-next/internal/models"

	"gorm.io/gorm"
)

// PhaseAuditLogRepository 阶段审计日志数据访问接口
type PhaseAuditLogRepository interface {
	Create(log *models.PhaseAuditLog) error
	ListAdmin(filter PhaseAuditLogListFilter) ([]models.PhaseAuditLog, int64, error)
	WithTx(tx *gorm.DB) PhaseAuditLogRepository
}

// GormPhaseAuditLogRepository GORM 实现
type GormPhaseAuditLogRepository struct {
	db *gorm.DB
}

// NewPhaseAuditLogRepository 创建阶段审计日志仓库
func NewPhaseAuditLogRepository(db *gorm.DB) *GormPhaseAuditLogRepository {
	return &GormPhaseAuditLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPhaseAuditLogRepository) WithTx(tx *gorm.DB) PhaseAuditLogRepository {
	if tx == nil {
		return r
	}
	return &GormPhaseAuditLogRepository{db: tx}
}

// Create 创建阶段审计日志
func (r *GormPhaseAuditLogRepository) Create(log *models.PhaseAuditLog) error {
	if log == nil {
		return nil
	}
	return r.db.Create(log).Error
}

// ListAdmin 管理端查询阶段审计日志
func (r *GormPhaseAuditLogRepository) ListAdmin(filter PhaseAuditLogListFilter) ([]models.PhaseAuditLog, int64, error) {
	query := r.db.Model(&models.PhaseAuditLog{})
	if filter.BatchID != 0 {
		query = query.Where("batch_id = ?", filter.BatchID)
	}
	if filter.AdminID != 0 {
		query = query.Where("admin_id = ?", filter.AdminID)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	logs := make([]models.PhaseAuditLog, 0)
	if err := query.Order("id DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
