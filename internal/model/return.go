package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnStatus is the adjudication state of a return request.
type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "pending"
	ReturnStatusApproved  ReturnStatus = "approved"
	ReturnStatusRejected  ReturnStatus = "rejected"
	ReturnStatusCompleted ReturnStatus = "completed"
)

// Valid reports whether s is a known return status.
func (s ReturnStatus) Valid() bool {
	switch s {
	case ReturnStatusPending, ReturnStatusApproved, ReturnStatusRejected, ReturnStatusCompleted:
		return true
	}
	return false
}

// Open reports whether the return is still being handled.
func (s ReturnStatus) Open() bool {
	return s == ReturnStatusPending || s == ReturnStatusApproved
}

// CanTransitionTo reports whether a seller or admin may move a return from s to next.
// Stored data is not checked against this graph; only updates are.
func (s ReturnStatus) CanTransitionTo(next ReturnStatus) bool {
	switch s {
	case ReturnStatusPending:
		return next == ReturnStatusApproved || next == ReturnStatusRejected
	case ReturnStatusApproved:
		return next == ReturnStatusCompleted
	}
	return false
}

// ReturnReason is the shopper-selected reason for a return.
type ReturnReason string

const (
	ReturnReasonDefective      ReturnReason = "defective"
	ReturnReasonWrongItem      ReturnReason = "wrong_item"
	ReturnReasonNotAsDescribed ReturnReason = "not_as_described"
	ReturnReasonQualityIssues  ReturnReason = "quality_issues"
	ReturnReasonSizeFit        ReturnReason = "size_fit"
	ReturnReasonChangedMind    ReturnReason = "changed_mind"
	ReturnReasonOther          ReturnReason = "other"
)

// Valid reports whether r is a known return reason.
func (r ReturnReason) Valid() bool {
	switch r {
	case ReturnReasonDefective, ReturnReasonWrongItem, ReturnReasonNotAsDescribed,
		ReturnReasonQualityIssues, ReturnReasonSizeFit, ReturnReasonChangedMind, ReturnReasonOther:
		return true
	}
	return false
}

// ReturnRequest is a request to reverse one delivered order line.
type ReturnRequest struct {
	ID            string          `json:"id" db:"id"`
	OrderID       string          `json:"orderId" db:"order_id"`
	OrderNumber   string          `json:"orderNumber" db:"order_number"`
	ProductID     string          `json:"productId" db:"product_id"`
	ProductName   string          `json:"productName" db:"product_name"`
	ProductImage  string          `json:"productImage,omitempty" db:"product_image"`
	Quantity      int             `json:"quantity" db:"quantity"`
	Price         decimal.Decimal `json:"price" db:"price"`
	SellerID      string          `json:"sellerId,omitempty" db:"seller_id"`
	SellerName    string          `json:"sellerName,omitempty" db:"seller_name"`
	CustomerEmail string          `json:"customerEmail" db:"customer_email"`
	CustomerName  string          `json:"customerName" db:"customer_name"`
	Reason        ReturnReason    `json:"reason" db:"reason"`
	Description   string          `json:"description,omitempty" db:"description"`
	Status        ReturnStatus    `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// ReturnRequestInput is the shopper-supplied payload for a new return.
type ReturnRequestInput struct {
	OrderID     string       `json:"orderId"`
	ProductID   string       `json:"productId"`
	Quantity    int          `json:"quantity"`
	Reason      ReturnReason `json:"reason"`
	Description string       `json:"description,omitempty"`
}
