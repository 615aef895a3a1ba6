package service

import (
	"context"
	"testing"
	"time"

	"bulkmart/internal/auth"
	"bulkmart/internal/catalog"
	"bulkmart/internal/localstore"
	"bulkmart/internal/model"
	"bulkmart/internal/notify"
	"bulkmart/internal/session"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) ListProducts(ctx context.Context, cursor catalog.Cursor, pageSize int, sort catalog.SortKey) ([]model.Product, catalog.Cursor, error) {
	args := m.Called(ctx, cursor, pageSize, sort)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]model.Product), args.Get(1).(catalog.Cursor), args.Error(2)
}

func (m *MockProductRepository) ListFeatured(ctx context.Context, limit int) ([]model.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) Upsert(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateStock(ctx context.Context, id string, stock int) error {
	args := m.Called(ctx, id, stock)
	return args.Error(0)
}

// MockCategoryRepository is a mock implementation of CategoryRepository.
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCategoryRepository) Upsert(ctx context.Context, category *model.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, orderID string, items []model.OrderItem) error {
	args := m.Called(ctx, tx, orderID, items)
	return args.Error(0)
}

func (m *MockOrderRepository) DecrementStock(ctx context.Context, tx pgx.Tx, productID string, quantity int) error {
	args := m.Called(ctx, tx, productID, quantity)
	return args.Error(0)
}

func (m *MockOrderRepository) ListOrdersForUser(ctx context.Context, email string) ([]model.Order, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockReturnRepository is a mock implementation of ReturnRepository.
type MockReturnRepository struct {
	mock.Mock
}

func (m *MockReturnRepository) Create(ctx context.Context, req *model.ReturnRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockReturnRepository) ListForUser(ctx context.Context, email string) ([]model.ReturnRequest, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReturnRequest), args.Error(1)
}

func (m *MockReturnRepository) ListForOrder(ctx context.Context, orderID string) ([]model.ReturnRequest, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReturnRequest), args.Error(1)
}

func (m *MockReturnRepository) GetByID(ctx context.Context, id string) (*model.ReturnRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReturnRequest), args.Error(1)
}

func (m *MockReturnRepository) UpdateStatus(ctx context.Context, id string, from, to model.ReturnStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

// MockLoader is a mock implementation of content.Loader.
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, path string) (*model.HomeContent, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.HomeContent), args.Error(1)
}

// MockSignaler is a mock implementation of Signaler.
type MockSignaler struct {
	mock.Mock
}

func (m *MockSignaler) Signal(ctx context.Context, topic notify.Topic) error {
	args := m.Called(ctx, topic)
	return args.Error(0)
}

// MockProvider is a mock implementation of auth.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Login(ctx context.Context, email, password string) (auth.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(auth.Session), args.Error(1)
}

func (m *MockProvider) Signup(ctx context.Context, req auth.SignupRequest) (auth.Session, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(auth.Session), args.Error(1)
}

func (m *MockProvider) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockProvider) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx; the services never call them.
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

var testUser = model.User{
	ID:    "u-1",
	Email: "buyer@example.com",
	Name:  "Asha Traders",
	Role:  model.RoleCustomer,
}

func newTestRegistry(t *testing.T, provider auth.Provider, fetcher catalog.PageFetcher) *session.Registry {
	t.Helper()
	r := session.NewRegistry(localstore.NewMemoryStore(), provider, fetcher, session.Config{PageSize: 2}, zerolog.Nop())
	t.Cleanup(r.Close)
	return r
}

// signIn logs sessionID in as testUser through a mocked provider.
func signIn(t *testing.T, provider *MockProvider, sessions *session.Registry, sessionID string) {
	t.Helper()
	provider.On("Login", mock.Anything, testUser.Email, "secret1").Return(auth.Session{
		Token:     "tok-" + sessionID,
		ExpiresAt: time.Now().Add(time.Hour),
		User:      testUser,
	}, nil).Once()

	_, err := sessions.Get(context.Background(), sessionID).Gate.Login(context.Background(), testUser.Email, "secret1")
	require.NoError(t, err)
}

func testProduct(id string, price string, stock, moq int) model.Product {
	return model.Product{
		ID:               id,
		Slug:             "slug-" + id,
		Name:             "Product " + id,
		Brand:            "Acme",
		Price:            decimal.RequireFromString(price),
		StockQuantity:    stock,
		MinOrderQuantity: moq,
		Images:           []string{"https://img.example.com/" + id + ".jpg"},
		CategoryID:       "packaging",
		SellerID:         "seller-1",
		SellerName:       "Acme Wholesale",
		CreatedAt:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testAddress() model.Address {
	return model.Address{
		FullName:     "Asha Traders",
		Phone:        "9876543210",
		AddressLine1: "12 Market Road",
		City:         "Pune",
		State:        "MH",
		Pincode:      "411001",
	}
}
