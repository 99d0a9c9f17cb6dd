package models

import (
	"time"

	"gorm.io/gorm"
)

// Batch 团购批次表
// 说明：批次是一次集中下单周期，阶段只允许按序前进，回退需管理员覆盖操作并留审计记录。
type Batch struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                 // 主键
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`                     // 唯一标识
	TitleJSON   JSON           `gorm:"type:json;not null" json:"title"`                      // 多语言标题
	NoticeJSON  JSON           `gorm:"type:json" json:"notice"`                              // 多语言公告（截单时间、到货预估等）
	Phase       string         `gorm:"type:varchar(20);not null;default:'draft';index" json:"phase"` // 当前阶段
	OpenedAt    *time.Time     `json:"opened_at"`                                            // 进入 open 的时间
	LockedAt    *time.Time     `json:"locked_at"`                                            // 进入 locked 的时间
	ClosedAt    *time.Time     `json:"closed_at"`                                            // 进入 closed 的时间
	Featured    bool           `gorm:"default:false;index" json:"featured"`                  // 是否首页推荐
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`                    // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                              // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                       // 软删除时间

	Offers []Offer `gorm:"foreignKey:BatchID" json:"offers,omitempty"` // 批次内报价
}

// TableName 指定表名
func (Batch) TableName() string {
	return "batches"
}
