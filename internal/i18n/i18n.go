package i18n

import (
	"fmt"
	"strings"

	"github.com/vialpool-next/internal/constants"

	"github.com/gin-gonic/gin"
)

// messages 按语言组织的错误文案
var messages = map[string]map[string]string{
	constants.LocaleZhCN: {
		"error.bad_request":            "请求参数有误",
		"error.unauthorized":           "未登录或登录已过期",
		"error.forbidden":              "没有执行该操作的权限",
		"error.not_found":              "资源不存在",
		"error.internal":               "服务器内部错误",
		"error.rate_limited":           "请求过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable": "限流服务暂不可用",
		"error.login_too_many":         "登录尝试过多，请 %d 秒后再试",
		"error.jwt_secret_missing":     "服务端未配置签名密钥",
		"error.auth_header_missing":    "缺少认证信息",
		"error.auth_header_invalid":    "认证信息格式错误",
		"error.token_invalid":          "登录凭证无效",
		"error.token_revoked":          "登录凭证已失效，请重新登录",
		"error.invalid_credentials":    "账号或访问码错误",
		"error.password_invalid":       "旧密码错误或新密码不满足长度要求",
		"error.user_disabled":          "账号已被停用",
		"error.user_id_invalid":        "用户标识无效",
		"error.user_id_type_invalid":   "用户标识类型错误",
		"error.admin_id_invalid":       "管理员标识无效",
		"error.admin_id_type_invalid":  "管理员标识类型错误",

		"error.batch_not_found":        "批次不存在",
		"error.batch_phase_invalid":    "批次阶段不允许该操作",
		"error.batch_transition_invalid": "批次阶段只能按顺序单步推进",
		"error.batch_has_orders":       "批次已有订单，无法删除",
		"error.phase_note_required":    "覆盖批次阶段必须填写原因",
		"error.offer_not_found":        "拼团商品不存在或已下架",
		"error.offer_referenced":       "该商品仍被订单引用",
		"error.offer_conflict":         "该批次下已存在同商品的拼团项",
		"error.capacity_adjust":        "容量不能低于已占用数量",
		"error.product_not_found":      "商品不存在",
		"error.product_slug_conflict":  "商品标识已存在",
		"error.cart_item_invalid":      "购物车参数有误",
		"error.cart_empty":             "购物车为空",
		"error.quantity_invalid":       "数量必须为正整数",
		"error.capacity_exceeded":      "部分商品剩余量不足，请调整数量后重试",
		"error.shipping_incomplete":    "收货信息不完整",
		"error.shipping_method_invalid": "配送方式无效",
		"error.order_not_found":        "订单不存在",
		"error.order_status_invalid":   "当前订单状态不允许该操作",
		"error.checkout_failed":        "结算失败，请稍后重试",
		"error.buyer_not_found":        "买家不存在",
		"error.buyer_phone_conflict":   "该手机号已在白名单内",
		"error.queue_unavailable":      "后台任务服务暂不可用",
	},
	constants.LocaleEnUS: {
		"error.bad_request":            "invalid request parameters",
		"error.unauthorized":           "not signed in or session expired",
		"error.forbidden":              "permission denied",
		"error.not_found":              "resource not found",
		"error.internal":               "internal server error",
		"error.rate_limited":           "too many requests, retry in %d seconds",
		"error.rate_limit_unavailable": "rate limiter unavailable",
		"error.login_too_many":         "too many login attempts, retry in %d seconds",
		"error.jwt_secret_missing":     "signing secret not configured",
		"error.auth_header_missing":    "missing authorization header",
		"error.auth_header_invalid":    "malformed authorization header",
		"error.token_invalid":          "invalid token",
		"error.token_revoked":          "token revoked, please sign in again",
		"error.invalid_credentials":    "invalid account or access code",
		"error.password_invalid":       "wrong old password or new password too short",
		"error.user_disabled":          "account disabled",
		"error.user_id_invalid":        "invalid user id",
		"error.user_id_type_invalid":   "unexpected user id type",
		"error.admin_id_invalid":       "invalid admin id",
		"error.admin_id_type_invalid":  "unexpected admin id type",

		"error.batch_not_found":        "batch not found",
		"error.batch_phase_invalid":    "operation not allowed in current batch phase",
		"error.batch_transition_invalid": "batch phase must advance one step at a time",
		"error.batch_has_orders":       "batch still referenced by orders",
		"error.phase_note_required":    "phase override requires a note",
		"error.offer_not_found":        "offer not found or delisted",
		"error.offer_referenced":       "offer still referenced by orders",
		"error.offer_conflict":         "offer for this product already exists in the batch",
		"error.capacity_adjust":        "capacity cannot drop below committed units",
		"error.product_not_found":      "product not found",
		"error.product_slug_conflict":  "product slug already exists",
		"error.cart_item_invalid":      "invalid cart item",
		"error.cart_empty":             "cart is empty",
		"error.quantity_invalid":       "quantity must be a positive integer",
		"error.capacity_exceeded":      "some items just sold out, please adjust your cart",
		"error.shipping_incomplete":    "shipping details incomplete",
		"error.shipping_method_invalid": "invalid delivery method",
		"error.order_not_found":        "order not found",
		"error.order_status_invalid":   "operation not allowed in current order status",
		"error.checkout_failed":        "checkout failed, please retry later",
		"error.buyer_not_found":        "buyer not found",
		"error.buyer_phone_conflict":   "phone already whitelisted",
		"error.queue_unavailable":      "background task service unavailable",
	},
}

// ResolveLocale 解析请求语言（Accept-Language，回退 zh-CN）
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return constants.LocaleZhCN
	}
	header := strings.TrimSpace(c.GetHeader("Accept-Language"))
	if header == "" {
		return constants.LocaleZhCN
	}
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		for _, locale := range constants.SupportedLocales {
			if strings.EqualFold(tag, locale) || strings.EqualFold(strings.SplitN(tag, "-", 2)[0], strings.SplitN(locale, "-", 2)[0]) {
				return locale
			}
		}
	}
	return constants.LocaleZhCN
}

// T 返回指定语言的文案，找不到时回退 key 本身
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[constants.LocaleZhCN][key]; ok {
		return msg
	}
	return key
}

// Sprintf 返回带格式参数的文案
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
