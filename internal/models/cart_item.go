package models

import "time"

// CartItem 购物车项（同一用户同一批次同一报价仅一行，重复加入合并数量）
// 说明：购物车数量只是意向，不占用容量；容量在结算时才真正占用。
// 购物车行是临时数据，删除即物理删除，否则唯一索引会挡住重新加入。
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                 // 主键
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_batch_offer" json:"user_id"`        // 用户ID
	BatchID   uint      `gorm:"not null;uniqueIndex:idx_cart_user_batch_offer;index" json:"batch_id"` // 批次ID
	OfferID   uint      `gorm:"not null;uniqueIndex:idx_cart_user_batch_offer" json:"offer_id"`       // 报价ID
	Quantity  int       `gorm:"not null" json:"quantity"`                                             // 数量（支）
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                              // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                              // 更新时间

	Offer *Offer `gorm:"foreignKey:OfferID" json:"offer,omitempty"` // 关联报价
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
