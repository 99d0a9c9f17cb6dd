package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 药品目录表（批次间复用的基础信息）
type Product struct {
	ID              uint           `gorm:"primarykey" json:"id"`              // 主键
	Slug            string         `gorm:"uniqueIndex;not null" json:"slug"`  // 唯一标识
	TitleJSON       JSON           `gorm:"type:json;not null" json:"title"`   // 多语言名称
	DescriptionJSON JSON           `gorm:"type:json" json:"description"`      // 多语言说明（规格、储存条件等）
	Images          StringArray    `gorm:"type:json" json:"images"`           // 图片数组
	Tags            StringArray    `gorm:"type:json" json:"tags"`             // 标签数组
	IsActive        bool           `gorm:"default:true;index" json:"is_active"` // 是否可加入批次
	SortOrder       int            `gorm:"default:0;index" json:"sort_order"` // 排序权重
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`           // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                        // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
