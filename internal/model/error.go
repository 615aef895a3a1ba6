package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeInvalidField       = "INVALID_FIELD"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeCategoryNotFound   = "CATEGORY_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeReturnNotFound     = "RETURN_NOT_FOUND"
	ErrCodeCartItemNotFound   = "CART_ITEM_NOT_FOUND"
	ErrCodeAddressNotFound    = "ADDRESS_NOT_FOUND"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeOutOfStock         = "OUT_OF_STOCK"
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeCartEmpty          = "CART_EMPTY"
	ErrCodeCartChanged        = "CART_CHANGED"
	ErrCodeInvalidCursor      = "INVALID_CURSOR"
	ErrCodeInvalidBulkPricing = "INVALID_BULK_PRICING"
	ErrCodeReturnNotAllowed   = "RETURN_NOT_ALLOWED"
	ErrCodeInvalidTransition  = "INVALID_STATUS_TRANSITION"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeWrongPassword      = "WRONG_PASSWORD"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeAccountDisabled    = "ACCOUNT_DISABLED"
	ErrCodeAuthFailed         = "AUTH_FAILED"
	ErrCodeEmailInUse         = "EMAIL_IN_USE"
	ErrCodeSessionExpired     = "SESSION_EXPIRED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// AsDomainError unwraps err to a *DomainError if one is present in the chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain errors
var (
	ErrProductNotFound    = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrCategoryNotFound   = NewDomainError(ErrCodeCategoryNotFound, "Category not found")
	ErrOrderNotFound      = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrReturnNotFound     = NewDomainError(ErrCodeReturnNotFound, "Return request not found")
	ErrCartItemNotFound   = NewDomainError(ErrCodeCartItemNotFound, "Cart item not found")
	ErrAddressNotFound    = NewDomainError(ErrCodeAddressNotFound, "Address not found")
	ErrInvalidQuantity    = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrOutOfStock         = NewDomainError(ErrCodeOutOfStock, "Product is out of stock")
	ErrInsufficientStock  = NewDomainError(ErrCodeInsufficientStock, "Not enough stock to meet the minimum order quantity")
	ErrCartEmpty          = NewDomainError(ErrCodeCartEmpty, "Cart is empty")
	ErrCartChanged        = NewDomainError(ErrCodeCartChanged, "Some items in your cart changed since they were added; please review your cart")
	ErrInvalidCursor      = NewDomainError(ErrCodeInvalidCursor, "Invalid pagination cursor")
	ErrInvalidBulkPricing = NewDomainError(ErrCodeInvalidBulkPricing, "Bulk pricing tiers must not increase in price as quantity grows")
	ErrReturnNotAllowed   = NewDomainError(ErrCodeReturnNotAllowed, "This item is not eligible for a return")
	ErrInvalidTransition  = NewDomainError(ErrCodeInvalidTransition, "Status change is not allowed")
	ErrUnauthenticated    = NewDomainError(ErrCodeUnauthorised, "Please log in to continue")
)
