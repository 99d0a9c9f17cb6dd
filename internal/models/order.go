package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
// 说明：收货信息在下单时从用户资料快照到订单上，之后修改资料不影响已生成的订单。
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo         string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	UserID          uint           `gorm:"index;not null" json:"user_id"`                             // 用户ID
	BatchID         uint           `gorm:"index;not null" json:"batch_id"`                            // 批次ID
	Status          string         `gorm:"index;not null" json:"status"`                              // 订单状态
	Currency        string         `gorm:"not null" json:"currency"`                                  // 币种
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 订单总额
	ShippingMethod  string         `gorm:"type:varchar(20);not null" json:"shipping_method"`          // 收货方式快照
	ShippingName    string         `gorm:"type:varchar(100);not null" json:"shipping_name"`           // 收件人快照
	ShippingPhone   string         `gorm:"type:varchar(32);not null" json:"shipping_phone"`           // 收件电话快照
	ShippingAddress string         `gorm:"type:varchar(500)" json:"shipping_address"`                 // 收货地址快照
	ClientIP        string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`               // 下单客户端IP
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`                                      // 标记已付款时间
	CanceledAt      *time.Time     `gorm:"index" json:"canceled_at"`                                  // 取消时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
	Batch *Batch      `gorm:"foreignKey:BatchID" json:"batch,omitempty"` // 关联批次
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
