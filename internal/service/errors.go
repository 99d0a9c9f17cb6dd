package service

import "errors"

// 服务层哨兵错误，处理器按 errors.Is 映射到响应码。
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrUserDisabled       = errors.New("user disabled")

	ErrBatchNotFound          = errors.New("batch not found")
	ErrBatchPhaseInvalid      = errors.New("batch phase does not allow this operation")
	ErrBatchTransitionInvalid = errors.New("batch phase transition not allowed")
	ErrBatchHasOrders         = errors.New("batch has active orders")
	ErrPhaseNoteRequired      = errors.New("phase override note required")

	ErrProductNotAvailable = errors.New("product not available")
	ErrOfferNotAvailable   = errors.New("offer not available")
	ErrOfferInUse          = errors.New("offer referenced by orders")
	ErrOfferConflict       = errors.New("offer already exists for batch and product")

	ErrInvalidCartItem  = errors.New("invalid cart item")
	ErrQuantityInvalid  = errors.New("quantity invalid")
	ErrCartEmpty        = errors.New("cart is empty")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrCapacityAdjust   = errors.New("capacity below committed units")

	ErrShippingIncomplete = errors.New("shipping information incomplete")
	ErrCheckoutFailed     = errors.New("checkout failed")

	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusInvalid = errors.New("order status transition not allowed")
)
