package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"bulkmart/internal/model"
	"bulkmart/internal/notify"
	"bulkmart/internal/orders"
	"bulkmart/internal/repository"
	"bulkmart/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// defaultPaymentMethod is recorded when checkout does not name one.
const defaultPaymentMethod = "cod"

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	returnRepo  repository.ReturnRepository
	productRepo repository.ProductRepository
	sessions    *session.Registry
	signaler    Signaler
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service. signaler may be nil.
func NewOrderService(
	orderRepo repository.OrderRepository,
	returnRepo repository.ReturnRepository,
	productRepo repository.ProductRepository,
	sessions *session.Registry,
	signaler Signaler,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		returnRepo:  returnRepo,
		productRepo: productRepo,
		sessions:    sessions,
		signaler:    signaler,
		logger:      logger.With().Str("service", "order").Logger(),
		now:         time.Now,
	}
}

// PlaceOrder checks the cart against live stock and prices, and if nothing
// changed records the order, takes the stock and empties the cart. If the cart
// changed it is refreshed and a *CartChangedError is returned instead so the
// shopper can review it.
func (s *orderService) PlaceOrder(ctx context.Context, sessionID string, req model.OrderRequest) (*model.Order, error) {
	sess := s.sessions.Get(ctx, sessionID)

	user := sess.Gate.CurrentUser()
	if user == nil {
		return nil, model.ErrUnauthenticated
	}

	if sess.Cart.Count() == 0 {
		return nil, model.ErrCartEmpty
	}

	address, err := s.shippingAddress(sess, req.AddressID)
	if err != nil {
		return nil, err
	}

	report, err := reconcile(ctx, s.productRepo, sess.Cart)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to reconcile cart before checkout")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if report.Changed() {
		s.logger.Info().
			Str("session_id", sessionID).
			Int("changes", len(report.Changes)).
			Msg("checkout aborted, cart changed")
		return nil, &CartChangedError{Report: report}
	}

	items := sess.Cart.Items()
	if len(items) == 0 {
		return nil, model.ErrCartEmpty
	}

	now := s.now().UTC()
	number, err := orders.NewOrderNumber(now)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate order number")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	paymentMethod := strings.TrimSpace(req.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = defaultPaymentMethod
	}

	order := &model.Order{
		ID:              uuid.New().String(),
		OrderNumber:     number,
		UserEmail:       user.Email,
		Status:          model.OrderStatusPending,
		TotalAmount:     sess.Cart.Subtotal(),
		ShippingAddress: address,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   model.PaymentStatusPending,
		Items:           make([]model.OrderItem, 0, len(items)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, item := range items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID:  item.Product.ID,
			Name:       item.Product.Name,
			Image:      item.Product.PrimaryImage(),
			Quantity:   item.Quantity,
			Price:      item.UnitPrice(),
			SellerID:   item.Product.SellerID,
			SellerName: item.Product.SellerName,
		})
	}

	if err := s.commit(ctx, order); err != nil {
		return nil, err
	}

	if err := sess.Cart.Clear(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("order placed but cart could not be cleared")
	}

	if s.signaler != nil {
		if err := s.signaler.Signal(ctx, notify.TopicProducts); err != nil {
			s.logger.Warn().Err(err).Msg("failed to signal stock change")
		}
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Int("item_count", len(order.Items)).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("order created successfully")

	return order, nil
}

// commit writes the order, its lines and the stock decrements in one transaction.
func (s *orderService) commit(ctx context.Context, order *model.Order) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.ID, order.Items); err != nil {
		return fmt.Errorf("failed to create order items: %w", err)
	}

	for _, item := range stockLockOrder(order.Items) {
		if err = s.orderRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			if errors.Is(err, model.ErrInsufficientStock) {
				return err
			}
			return fmt.Errorf("failed to reserve stock: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// stockLockOrder returns the lines sorted by product ID. Concurrent checkouts
// then lock product rows in the same order and cannot deadlock each other.
func stockLockOrder(items []model.OrderItem) []model.OrderItem {
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b model.OrderItem) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return sorted
}

func (s *orderService) shippingAddress(sess *session.Session, addressID string) (model.Address, error) {
	if addressID == "" {
		a, ok := sess.Addresses.Default()
		if !ok {
			return model.Address{}, model.NewDomainError(model.ErrCodeMissingField, "Shipping address is required")
		}
		return a, nil
	}
	a, ok := sess.Addresses.Get(addressID)
	if !ok {
		return model.Address{}, model.ErrAddressNotFound
	}
	return a, nil
}

// ListOrders fetches orders and returns independently. If only the returns
// fail, orders are still shown with statuses that ignore returns.
func (s *orderService) ListOrders(ctx context.Context, sessionID string) (*OrderHistory, error) {
	user := s.sessions.Get(ctx, sessionID).Gate.CurrentUser()
	if user == nil {
		return nil, model.ErrUnauthenticated
	}

	var (
		list               []model.Order
		returns            []model.ReturnRequest
		ordersErr, retsErr error
		g                  errgroup.Group
	)
	g.Go(func() error {
		list, ordersErr = s.orderRepo.ListOrdersForUser(ctx, user.Email)
		return nil
	})
	g.Go(func() error {
		returns, retsErr = s.returnRepo.ListForUser(ctx, user.Email)
		return nil
	})
	_ = g.Wait()

	if ordersErr != nil {
		s.logger.Error().Err(ordersErr).Str("user_id", user.ID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to get orders: %w", ordersErr)
	}

	history := &OrderHistory{Orders: make([]OrderView, 0, len(list))}
	if retsErr != nil {
		s.logger.Warn().Err(retsErr).Str("user_id", user.ID).Msg("failed to list returns, showing orders without them")
		history.ReturnsUnavailable = true
		returns = nil
	}

	byOrder := make(map[string][]model.ReturnRequest)
	for _, r := range returns {
		byOrder[r.OrderID] = append(byOrder[r.OrderID], r)
	}

	for _, o := range list {
		own := byOrder[o.ID]
		if own == nil {
			own = []model.ReturnRequest{}
		}
		history.Orders = append(history.Orders, OrderView{
			Order:   o,
			Returns: own,
			Display: orders.Project(o, own),
		})
	}

	return history, nil
}

// GetOrder returns one order of the signed-in user.
func (s *orderService) GetOrder(ctx context.Context, sessionID, orderID string) (*OrderView, error) {
	user := s.sessions.Get(ctx, sessionID).Gate.CurrentUser()
	if user == nil {
		return nil, model.ErrUnauthenticated
	}

	order, err := s.ownedOrder(ctx, user, orderID)
	if err != nil {
		return nil, err
	}

	returns, err := s.returnRepo.ListForOrder(ctx, order.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("failed to list returns for order")
		returns = []model.ReturnRequest{}
	}

	return &OrderView{
		Order:   *order,
		Returns: returns,
		Display: orders.Project(*order, returns),
	}, nil
}

func (s *orderService) ownedOrder(ctx context.Context, user *model.User, orderID string) (*model.Order, error) {
	if orderID == "" {
		return nil, model.ErrOrderNotFound
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	// Another customer's order is reported as missing.
	if order == nil || !strings.EqualFold(order.UserEmail, user.Email) {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// CreateReturnRequest raises a return for one line of a delivered order.
func (s *orderService) CreateReturnRequest(ctx context.Context, sessionID string, input model.ReturnRequestInput) (*model.ReturnRequest, error) {
	user := s.sessions.Get(ctx, sessionID).Gate.CurrentUser()
	if user == nil {
		return nil, model.ErrUnauthenticated
	}

	if err := validateReturnInput(input); err != nil {
		return nil, err
	}

	order, err := s.ownedOrder(ctx, user, input.OrderID)
	if err != nil {
		return nil, err
	}

	existing, err := s.returnRepo.ListForOrder(ctx, order.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to list returns for order")
		return nil, fmt.Errorf("failed to create return request: %w", err)
	}

	if err := orders.Returnable(*order, input.ProductID, existing); err != nil {
		return nil, err
	}

	line, _ := order.Item(input.ProductID)
	quantity := input.Quantity
	if quantity == 0 {
		quantity = line.Quantity
	}
	if quantity > line.Quantity {
		return nil, model.ErrInvalidQuantity
	}

	req := &model.ReturnRequest{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		ProductID:     line.ProductID,
		ProductName:   line.Name,
		ProductImage:  line.Image,
		Quantity:      quantity,
		Price:         line.Price,
		SellerID:      line.SellerID,
		SellerName:    line.SellerName,
		CustomerEmail: user.Email,
		CustomerName:  user.Name,
		Reason:        input.Reason,
		Description:   strings.TrimSpace(input.Description),
		Status:        model.ReturnStatusPending,
	}

	id, err := s.returnRepo.Create(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to create return request")
		return nil, fmt.Errorf("failed to create return request: %w", err)
	}
	req.ID = id

	s.logger.Info().
		Str("return_id", id).
		Str("order_id", order.ID).
		Str("product_id", line.ProductID).
		Msg("return request created")

	return req, nil
}

func validateReturnInput(input model.ReturnRequestInput) error {
	switch {
	case input.OrderID == "":
		return model.NewDomainError(model.ErrCodeMissingField, "Order ID is required")
	case input.ProductID == "":
		return model.NewDomainError(model.ErrCodeMissingField, "Product ID is required")
	case input.Reason == "":
		return model.NewDomainError(model.ErrCodeMissingField, "Return reason is required")
	case !input.Reason.Valid():
		return model.NewDomainError(model.ErrCodeInvalidField, "Unknown return reason")
	case input.Quantity < 0:
		return model.ErrInvalidQuantity
	}
	return nil
}
