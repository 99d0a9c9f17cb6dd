package models

import (
	"time"

	"gorm.io/gorm"
)

// Offer 批次报价表（批次 x 药品，容量账本的承载行）
// 说明：CommittedUnits 只能通过条件更新增减，任何路径都不得使其越过
// 0 与 BoxesAvailable*BoxSize 的边界。
type Offer struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                            // 主键
	BatchID        uint           `gorm:"not null;index;uniqueIndex:idx_offer_batch_product" json:"batch_id"`   // 批次ID
	ProductID      uint           `gorm:"not null;index;uniqueIndex:idx_offer_batch_product" json:"product_id"` // 药品ID
	PricePerVial   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_per_vial"`     // 单支价格
	BoxSize        int            `gorm:"not null;default:1" json:"box_size"`                              // 每盒支数
	BoxesAvailable int            `gorm:"not null;default:0" json:"boxes_available"`                       // 本批次整盒容量
	CommittedUnits int            `gorm:"not null;default:0" json:"committed_units"`                       // 已占用支数
	IsActive       bool           `gorm:"default:true;index" json:"is_active"`                             // 是否开放下单
	SortOrder      int            `gorm:"default:0;index" json:"sort_order"`                               // 排序权重
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间

	Batch   *Batch   `gorm:"foreignKey:BatchID" json:"batch,omitempty"`     // 关联批次
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联药品
}

// TableName 指定表名
func (Offer) TableName() string {
	return "offers"
}

// CapacityUnits 返回本报价的总容量（支）
func (o *Offer) CapacityUnits() int {
	return o.BoxesAvailable * o.BoxSize
}

// RemainingUnits 返回剩余可占用支数
func (o *Offer) RemainingUnits() int {
	remaining := o.CapacityUnits() - o.CommittedUnits
	if remaining < 0 {
		return 0
	}
	return remaining
}
