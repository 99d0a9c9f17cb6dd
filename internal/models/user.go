package models

import (
	"time"

	"gorm.io/gorm"
)

// User 买家表（白名单制：由管理员录入并签发参团码）
type User struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                       // 主键
	Phone              string         `gorm:"uniqueIndex;not null" json:"phone"`          // 手机号（登录标识）
	WhatsApp           string         `gorm:"type:varchar(64)" json:"whatsapp"`           // WhatsApp 联系方式
	AccessCodeHash     string         `gorm:"not null" json:"-"`                          // 参团码哈希（不返回给前端）
	DisplayName        string         `gorm:"default:''" json:"display_name"`             // 昵称
	Locale             string         `gorm:"default:'zh-CN'" json:"locale"`              // 语言偏好
	Status             string         `gorm:"default:'active';index" json:"status"`       // 账号状态（active/disabled）
	ShippingMethod     string         `gorm:"type:varchar(20)" json:"shipping_method"`    // 默认收货方式（courier/pickup）
	ShippingName       string         `gorm:"type:varchar(100)" json:"shipping_name"`     // 默认收件人
	ShippingPhone      string         `gorm:"type:varchar(32)" json:"shipping_phone"`     // 默认收件电话
	ShippingAddress    string         `gorm:"type:varchar(500)" json:"shipping_address"`  // 默认收货地址（自提时可为空）
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`                // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`                             // 该时间点前签发的 Token 失效
	LastLoginAt        *time.Time     `json:"last_login_at"`                              // 最后登录时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                    // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                             // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// HasCompleteShipping 判断默认收货信息是否完整（自提仅需姓名电话）
func (u *User) HasCompleteShipping() bool {
	if u.ShippingMethod == "" || u.ShippingName == "" || u.ShippingPhone == "" {
		return false
	}
	if u.ShippingMethod == "courier" && u.ShippingAddress == "" {
		return false
	}
	return true
}
