// Package orders turns stored orders and return requests into what a shopper
// sees on the order history page.
package orders

import (
	"bulkmart/internal/model"
)

// Colour tokens used by the storefront badges.
const (
	ColourYellow = "yellow"
	ColourBlue   = "blue"
	ColourIndigo = "indigo"
	ColourPurple = "purple"
	ColourOrange = "orange"
	ColourGreen  = "green"
	ColourRed    = "red"
	ColourGray   = "gray"
)

// Badge is a coloured status label.
type Badge struct {
	Label  string `json:"label"`
	Colour string `json:"colour"`
}

// ReturnBadge is the badge of one return request.
type ReturnBadge struct {
	ReturnID  string             `json:"returnId"`
	ProductID string             `json:"productId"`
	Status    model.ReturnStatus `json:"status"`
	Badge
}

// Checkpoint is one step of the tracking timeline.
type Checkpoint struct {
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
	Current   bool   `json:"current"`
}

// DisplayStatus is the projected view of an order and its returns.
type DisplayStatus struct {
	ShowOrderBadge bool          `json:"showOrderBadge"`
	OrderBadge     Badge         `json:"orderBadge"`
	Narrative      string        `json:"narrative"`
	ReturnBadges   []ReturnBadge `json:"returnBadges"`
	TrackingStep   int           `json:"trackingStep"`
	Tracking       []Checkpoint  `json:"tracking"`
}

// ReturnCompletedNarrative replaces the shipment narrative once a return has completed.
const ReturnCompletedNarrative = "Return completed. Your refund has been processed."

// TrackingLabels are the checkpoints of the order timeline, in order.
var TrackingLabels = []string{"Placed", "Confirmed", "Shipped", "Out for Delivery", "Delivered"}

var orderBadges = map[model.OrderStatus]Badge{
	model.OrderStatusPending:        {Label: "Pending", Colour: ColourYellow},
	model.OrderStatusProcessing:     {Label: "Processing", Colour: ColourBlue},
	model.OrderStatusConfirmed:      {Label: "Confirmed", Colour: ColourIndigo},
	model.OrderStatusShipped:        {Label: "Shipped", Colour: ColourPurple},
	model.OrderStatusOutForDelivery: {Label: "Out for Delivery", Colour: ColourOrange},
	model.OrderStatusDelivered:      {Label: "Delivered", Colour: ColourGreen},
	model.OrderStatusCancelled:      {Label: "Cancelled", Colour: ColourRed},
}

var orderNarratives = map[model.OrderStatus]string{
	model.OrderStatusPending:        "Your order has been placed and is awaiting confirmation.",
	model.OrderStatusProcessing:     "Your order is being processed.",
	model.OrderStatusConfirmed:      "Your order has been confirmed by the seller.",
	model.OrderStatusShipped:        "Your order has been shipped.",
	model.OrderStatusOutForDelivery: "Your order is out for delivery.",
	model.OrderStatusDelivered:      "Your order has been delivered.",
	model.OrderStatusCancelled:      "This order was cancelled.",
}

var returnBadges = map[model.ReturnStatus]Badge{
	model.ReturnStatusPending:   {Label: "Return Initiated", Colour: ColourYellow},
	model.ReturnStatusApproved:  {Label: "approved", Colour: ColourBlue},
	model.ReturnStatusRejected:  {Label: "rejected", Colour: ColourRed},
	model.ReturnStatusCompleted: {Label: "completed", Colour: ColourGreen},
}

// OrderBadge returns the badge for an order status. Unknown statuses show
// verbatim in gray.
func OrderBadge(status model.OrderStatus) Badge {
	if b, ok := orderBadges[status]; ok {
		return b
	}
	return Badge{Label: string(status), Colour: ColourGray}
}

// ReturnStatusBadge returns the badge for a return status. Pending returns
// read "Return Initiated"; other statuses show verbatim.
func ReturnStatusBadge(status model.ReturnStatus) Badge {
	if b, ok := returnBadges[status]; ok {
		return b
	}
	return Badge{Label: string(status), Colour: ColourGray}
}

// TrackingStep maps an order status to a position on TrackingLabels.
// Cancelled and unknown statuses map to 0, the same position as a new order.
func TrackingStep(status model.OrderStatus) int {
	switch status {
	case model.OrderStatusPending, model.OrderStatusProcessing:
		return 0
	case model.OrderStatusConfirmed:
		return 1
	case model.OrderStatusShipped:
		return 2
	case model.OrderStatusOutForDelivery:
		return 3
	case model.OrderStatusDelivered:
		return 4
	}
	return 0
}

// Checkpoints renders the tracking timeline for a status.
func Checkpoints(status model.OrderStatus) []Checkpoint {
	step := TrackingStep(status)
	out := make([]Checkpoint, len(TrackingLabels))
	for i, label := range TrackingLabels {
		out[i] = Checkpoint{Label: label, Completed: i <= step, Current: i == step}
	}
	return out
}

// Project combines an order with its return requests. Returns belonging to
// other orders are ignored. It has no side effects.
func Project(order model.Order, returns []model.ReturnRequest) DisplayStatus {
	ds := DisplayStatus{
		ShowOrderBadge: true,
		OrderBadge:     OrderBadge(order.Status),
		Narrative:      orderNarratives[order.Status],
		ReturnBadges:   []ReturnBadge{},
		TrackingStep:   TrackingStep(order.Status),
		Tracking:       Checkpoints(order.Status),
	}

	completed := false
	for _, r := range returns {
		if r.OrderID != order.ID {
			continue
		}
		if r.Status == model.ReturnStatusCompleted {
			completed = true
		}
		ds.ReturnBadges = append(ds.ReturnBadges, ReturnBadge{
			ReturnID:  r.ID,
			ProductID: r.ProductID,
			Status:    r.Status,
			Badge:     ReturnStatusBadge(r.Status),
		})
	}

	if completed {
		ds.ShowOrderBadge = false
		ds.OrderBadge = Badge{}
		ds.Narrative = ReturnCompletedNarrative
	}

	return ds
}

// Returnable reports whether a return may be opened for productID on order.
// Only delivered orders qualify, the product must be a line of the order and
// the line must not already have an open or completed return.
func Returnable(order model.Order, productID string, existing []model.ReturnRequest) error {
	if order.Status != model.OrderStatusDelivered {
		return model.ErrReturnNotAllowed
	}
	if _, ok := order.Item(productID); !ok {
		return model.ErrReturnNotAllowed
	}
	for _, r := range existing {
		if r.OrderID == order.ID && r.ProductID == productID && r.Status != model.ReturnStatusRejected {
			return model.ErrReturnNotAllowed
		}
	}
	return nil
}
