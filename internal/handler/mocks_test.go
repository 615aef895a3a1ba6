package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"bulkmart/internal/auth"
	"bulkmart/internal/cart"
	"bulkmart/internal/catalog"
	"bulkmart/internal/middleware"
	"bulkmart/internal/model"
	"bulkmart/internal/notify"
	"bulkmart/internal/service"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSession = "6f1c2f0e-4a7b-4d8e-9c3a-1b2c3d4e5f60"

// MockCatalogService is a mock implementation of CatalogService.
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListPage(ctx context.Context, cursor catalog.Cursor, pageSize int, sort catalog.SortKey) (*service.ProductPage, error) {
	args := m.Called(ctx, cursor, pageSize, sort)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProductPage), args.Error(1)
}

func (m *MockCatalogService) ProductBySlug(ctx context.Context, slug string) (*model.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockCatalogService) Categories(ctx context.Context, activeOnly bool) []model.Category {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]model.Category)
}

func (m *MockCatalogService) Featured(ctx context.Context) []model.Product {
	args := m.Called(ctx)
	return args.Get(0).([]model.Product)
}

func (m *MockCatalogService) HomeContent(ctx context.Context) model.HomeContent {
	args := m.Called(ctx)
	return args.Get(0).(model.HomeContent)
}

func (m *MockCatalogService) FeedView(ctx context.Context, sessionID string, q service.FeedQuery) (*service.FeedView, error) {
	return m.feed(m.Called(ctx, sessionID, q))
}

func (m *MockCatalogService) FeedLoadMore(ctx context.Context, sessionID string, q service.FeedQuery) (*service.FeedView, error) {
	return m.feed(m.Called(ctx, sessionID, q))
}

func (m *MockCatalogService) FeedReset(ctx context.Context, sessionID string, q service.FeedQuery) (*service.FeedView, error) {
	return m.feed(m.Called(ctx, sessionID, q))
}

func (m *MockCatalogService) feed(args mock.Arguments) (*service.FeedView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FeedView), args.Error(1)
}

func (m *MockCatalogService) ReloadFeatured(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCatalogService) ReloadCategories(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCatalogService) ReloadContent(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCatalogService) SubscribeContent(fn func(model.HomeContent)) *notify.Subscription[model.HomeContent] {
	args := m.Called(fn)
	return args.Get(0).(*notify.Subscription[model.HomeContent])
}

func (m *MockCatalogService) Close() {
	m.Called()
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) View(ctx context.Context, sessionID string) *service.CartView {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(*service.CartView)
}

func (m *MockCartService) Add(ctx context.Context, sessionID, productID string) (*model.CartItem, error) {
	return cartItem(m.Called(ctx, sessionID, productID))
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*model.CartItem, error) {
	return cartItem(m.Called(ctx, sessionID, itemID, quantity))
}

func (m *MockCartService) Step(ctx context.Context, sessionID, itemID string, up bool) (*model.CartItem, error) {
	return cartItem(m.Called(ctx, sessionID, itemID, up))
}

func cartItem(args mock.Arguments) (*model.CartItem, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *MockCartService) Remove(ctx context.Context, sessionID, itemID string) error {
	return m.Called(ctx, sessionID, itemID).Error(0)
}

func (m *MockCartService) Clear(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockCartService) ToggleWishlist(ctx context.Context, sessionID, productID string) (bool, error) {
	args := m.Called(ctx, sessionID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartService) Wishlist(ctx context.Context, sessionID string) ([]model.Product, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockCartService) Reconcile(ctx context.Context, sessionID string) (*cart.ReconcileReport, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.ReconcileReport), args.Error(1)
}

// MockAccountService is a mock implementation of AccountService.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Login(ctx context.Context, sessionID, email, password string) (*auth.Session, error) {
	return authSession(m.Called(ctx, sessionID, email, password))
}

func (m *MockAccountService) Signup(ctx context.Context, sessionID string, req auth.SignupRequest) (*auth.Session, error) {
	return authSession(m.Called(ctx, sessionID, req))
}

func authSession(args mock.Arguments) (*auth.Session, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockAccountService) Logout(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockAccountService) Restore(ctx context.Context, sessionID, token string) (*model.User, error) {
	return user(m.Called(ctx, sessionID, token))
}

func (m *MockAccountService) Me(ctx context.Context, sessionID string) (*model.User, error) {
	return user(m.Called(ctx, sessionID))
}

func user(args mock.Arguments) (*model.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAccountService) Addresses(ctx context.Context, sessionID string) []model.Address {
	return m.Called(ctx, sessionID).Get(0).([]model.Address)
}

func (m *MockAccountService) AddAddress(ctx context.Context, sessionID string, a model.Address) (*model.Address, error) {
	return address(m.Called(ctx, sessionID, a))
}

func (m *MockAccountService) UpdateAddress(ctx context.Context, sessionID string, a model.Address) (*model.Address, error) {
	return address(m.Called(ctx, sessionID, a))
}

func address(args mock.Arguments) (*model.Address, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Address), args.Error(1)
}

func (m *MockAccountService) DeleteAddress(ctx context.Context, sessionID, addressID string) error {
	return m.Called(ctx, sessionID, addressID).Error(0)
}

func (m *MockAccountService) SetDefaultAddress(ctx context.Context, sessionID, addressID string) error {
	return m.Called(ctx, sessionID, addressID).Error(0)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, sessionID string, req model.OrderRequest) (*model.Order, error) {
	args := m.Called(ctx, sessionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, sessionID string) (*service.OrderHistory, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OrderHistory), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, sessionID, orderID string) (*service.OrderView, error) {
	args := m.Called(ctx, sessionID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OrderView), args.Error(1)
}

func (m *MockOrderService) CreateReturnRequest(ctx context.Context, sessionID string, input model.ReturnRequestInput) (*model.ReturnRequest, error) {
	args := m.Called(ctx, sessionID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReturnRequest), args.Error(1)
}

// MockAdminService is a mock implementation of AdminService.
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) UpsertProduct(ctx context.Context, p *model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockAdminService) UpdateStock(ctx context.Context, productID string, stock int) error {
	return m.Called(ctx, productID, stock).Error(0)
}

func (m *MockAdminService) UpsertCategory(ctx context.Context, c *model.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockAdminService) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	return m.Called(ctx, orderID, status).Error(0)
}

func (m *MockAdminService) UpdateReturnStatus(ctx context.Context, returnID string, status model.ReturnStatus) error {
	return m.Called(ctx, returnID, status).Error(0)
}

func (m *MockAdminService) ReloadContent(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// newRequest builds a request carrying testSession, with body encoded as JSON
// unless it is nil or already a string.
func newRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	return req.WithContext(middleware.WithSessionID(req.Context(), testSession))
}

// serve routes req through a mux with a single pattern so path values resolve.
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}
