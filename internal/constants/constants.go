package constants

// 团购批次阶段常量（严格单向推进）
const (
	BatchPhaseDraft   = "draft"   // 仅管理员可见、可编辑
	BatchPhaseOpen    = "open"    // 买家可浏览，不可下单
	BatchPhaseFilling = "filling" // 可加购物车、可结算的唯一阶段
	BatchPhaseLocked  = "locked"  // 管理员核对汇总，禁止一切买家写操作
	BatchPhasePayment = "payment" // 线下收款阶段，订单已生成
	BatchPhaseClosed  = "closed"  // 终态，只读历史
)

// BatchPhaseSequence 批次阶段的推进顺序
var BatchPhaseSequence = []string{
	BatchPhaseDraft,
	BatchPhaseOpen,
	BatchPhaseFilling,
	BatchPhaseLocked,
	BatchPhasePayment,
	BatchPhaseClosed,
}

// 订单状态常量
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusShipped        = "shipped"
	OrderStatusCompleted      = "completed"
	OrderStatusCanceled       = "canceled"
)

// 配送方式常量
const (
	ShippingMethodCourier = "courier"
	ShippingMethodPickup  = "pickup"
)

// SupportedShippingMethods 支持的配送方式
var SupportedShippingMethods = []string{ShippingMethodCourier, ShippingMethodPickup}

// 买家状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 阶段变更来源常量
const (
	PhaseChangeSourceTransition = "transition" // 常规单步推进
	PhaseChangeSourceOverride   = "override"   // 管理员显式覆盖
)

// 队列常量
const (
	QueueDefault       = "default"
	TaskCartPruneOffer = "cart:prune_offer"
	TaskBatchFillCheck = "batch:fill_check"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "vp"
)

// 站点语言常量
const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"
)

// SupportedLocales 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleZhCN, LocaleEnUS}
