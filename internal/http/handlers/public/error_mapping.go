package public

import (
	"errors"

	"github.com/vialpool-next/internal/http/response"
	"github.com/vialpool-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var cartMutationErrorRules = []mappedHandlerError{
	{target: service.ErrBatchNotFound, code: response.CodeNotFound, key: "error.batch_not_found"},
	{target: service.ErrBatchPhaseInvalid, code: response.CodeBadRequest, key: "error.batch_phase_invalid"},
	{target: service.ErrOfferNotAvailable, code: response.CodeBadRequest, key: "error.offer_not_found"},
	{target: service.ErrInvalidCartItem, code: response.CodeBadRequest, key: "error.cart_item_invalid"},
	{target: service.ErrQuantityInvalid, code: response.CodeBadRequest, key: "error.quantity_invalid"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrBatchNotFound, code: response.CodeNotFound, key: "error.batch_not_found"},
	{target: service.ErrBatchPhaseInvalid, code: response.CodeBadRequest, key: "error.batch_phase_invalid"},
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, key: "error.cart_empty"},
	{target: service.ErrShippingIncomplete, code: response.CodeBadRequest, key: "error.shipping_incomplete"},
	{target: service.ErrOfferNotAvailable, code: response.CodeBadRequest, key: "error.offer_not_found"},
	{target: service.ErrCapacityExceeded, code: response.CodeBadRequest, key: "error.capacity_exceeded"},
	{target: service.ErrQuantityInvalid, code: response.CodeBadRequest, key: "error.quantity_invalid"},
	{target: service.ErrInvalidCartItem, code: response.CodeBadRequest, key: "error.cart_item_invalid"},
	{target: service.ErrUserDisabled, code: response.CodeUnauthorized, key: "error.user_disabled"},
	{target: service.ErrNotFound, code: response.CodeUnauthorized, key: "error.unauthorized"},
	{target: service.ErrCheckoutFailed, code: response.CodeInternal, key: "error.checkout_failed"},
}

func respondCartMutationError(c *gin.Context, err error) {
	respondWithMappedError(c, err, cartMutationErrorRules, response.CodeInternal, "error.internal")
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "error.checkout_failed")
}
