package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authsvc "github.com/dmitrykozlov/storefront-backend/internal/auth"
	ordersvc "github.com/dmitrykozlov/storefront-backend/internal/orders"
	productsvc "github.com/dmitrykozlov/storefront-backend/internal/products"
	reviewsvc "github.com/dmitrykozlov/storefront-backend/internal/reviews"
	pkgAuth "github.com/dmitrykozlov/storefront-backend/pkg/auth"
	"github.com/dmitrykozlov/storefront-backend/pkg/config"
	"github.com/dmitrykozlov/storefront-backend/pkg/enums"
	"github.com/dmitrykozlov/storefront-backend/pkg/logger"
	"github.com/dmitrykozlov/storefront-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, authsvc.RegisterRequest) (*authsvc.AuthResponse, error) {
	return &authsvc.AuthResponse{}, nil
}

func (stubAuthService) Login(context.Context, authsvc.LoginRequest) (*authsvc.AuthResponse, error) {
	return &authsvc.AuthResponse{}, nil
}

func (stubAuthService) Refresh(context.Context, authsvc.RefreshRequest) (*authsvc.TokenPair, error) {
	return &authsvc.TokenPair{}, nil
}

func (stubAuthService) Logout(context.Context, string) error {
	return nil
}

type stubProductService struct{}

func (stubProductService) Create(_ context.Context, _ enums.Role, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{ID: uuid.New(), Name: input.Name}, nil
}

func (stubProductService) Update(context.Context, enums.Role, uuid.UUID, productsvc.UpdateProductInput) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

func (stubProductService) Delete(context.Context, enums.Role, uuid.UUID) error {
	return nil
}

func (stubProductService) Get(context.Context, uuid.UUID) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

func (stubProductService) List(context.Context, productsvc.ListParams) (*productsvc.ListResult, error) {
	return &productsvc.ListResult{Products: []productsvc.ProductDTO{}}, nil
}

type stubOrderService struct{}

func (stubOrderService) Create(_ context.Context, actor ordersvc.Actor, _ ordersvc.CreateOrderInput) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{ID: uuid.New(), UserID: actor.UserID, Status: "pending"}, nil
}

func (stubOrderService) Get(context.Context, ordersvc.Actor, uuid.UUID) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrderService) List(context.Context, ordersvc.Actor, pagination.Params) (*ordersvc.ListResult, error) {
	return &ordersvc.ListResult{Orders: []ordersvc.OrderDTO{}}, nil
}

func (stubOrderService) Update(context.Context, ordersvc.Actor, uuid.UUID, ordersvc.UpdateOrderInput) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrderService) Delete(context.Context, ordersvc.Actor, uuid.UUID) error {
	return nil
}

func (stubOrderService) AddItem(context.Context, ordersvc.Actor, uuid.UUID, ordersvc.AddItemInput) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

type stubReviewService struct{}

func (stubReviewService) Create(context.Context, reviewsvc.Actor, reviewsvc.CreateReviewInput) (*reviewsvc.ReviewDTO, error) {
	return &reviewsvc.ReviewDTO{}, nil
}

func (stubReviewService) Get(context.Context, reviewsvc.Actor, uuid.UUID) (*reviewsvc.ReviewDTO, error) {
	return &reviewsvc.ReviewDTO{}, nil
}

func (stubReviewService) ListByProduct(context.Context, uuid.UUID, pagination.Params) (*reviewsvc.ListResult, error) {
	return &reviewsvc.ListResult{Reviews: []reviewsvc.ReviewDTO{}}, nil
}

func (stubReviewService) ListPending(context.Context, reviewsvc.Actor, pagination.Params) (*reviewsvc.ListResult, error) {
	return &reviewsvc.ListResult{Reviews: []reviewsvc.ReviewDTO{}}, nil
}

func (stubReviewService) Update(context.Context, reviewsvc.Actor, uuid.UUID, reviewsvc.UpdateReviewInput) (*reviewsvc.ReviewDTO, error) {
	return &reviewsvc.ReviewDTO{}, nil
}

func (stubReviewService) Delete(context.Context, reviewsvc.Actor, uuid.UUID) error {
	return nil
}

func (stubReviewService) Moderate(context.Context, reviewsvc.Actor, uuid.UUID, reviewsvc.ModerateInput) (*reviewsvc.ReviewDTO, error) {
	return &reviewsvc.ReviewDTO{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "storefront-test",
			ExpirationMinutes: 15,
		},
	}
}

func buildTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(Deps{
		Config:         testConfig(),
		Logger:         logger.New(logger.Options{ServiceName: "router-test", Level: zerolog.ErrorLevel, Output: io.Discard}),
		DB:             stubPinger{},
		SessionChecker: stubSessionChecker{},
		AuthService:    stubAuthService{},
		ProductService: stubProductService{},
		OrderService:   stubOrderService{},
		ReviewService:  stubReviewService{},
	})
}

func mintTestToken(t *testing.T, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	require.NoError(t, err)
	return token
}

func TestHealthLive(t *testing.T) {
	router := buildTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicCatalogReads(t *testing.T) {
	router := buildTestRouter(t)

	for _, path := range []string{
		"/api/v1/products",
		"/api/v1/products/" + uuid.NewString(),
		"/api/v1/products/" + uuid.NewString() + "/reviews",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, "GET %s", path)
	}
}

func TestProductWriteRequiresAuth(t *testing.T) {
	router := buildTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"name":"x","price":"1.00","category":"misc","stock":1}`))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductWriteRequiresStaffRole(t *testing.T) {
	router := buildTestRouter(t)

	body := `{"name":"Desk Lamp","price":"19.99","category":"home","stock":3}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, enums.RoleCustomer))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, enums.RoleManager))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestOrdersRequireAuth(t *testing.T) {
	router := buildTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, enums.RoleCustomer))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestModerationRouteRequiresAdmin(t *testing.T) {
	router := buildTestRouter(t)
	target := "/api/v1/reviews/" + uuid.NewString() + "/moderate"

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{"approved":true}`))
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, enums.RoleManager))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{"approved":true}`))
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, enums.RoleAdmin))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
