package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrykozlov/storefront-backend/api/controllers"
	"github.com/dmitrykozlov/storefront-backend/api/middleware"
	authsvc "github.com/dmitrykozlov/storefront-backend/internal/auth"
	ordersvc "github.com/dmitrykozlov/storefront-backend/internal/orders"
	productsvc "github.com/dmitrykozlov/storefront-backend/internal/products"
	reviewsvc "github.com/dmitrykozlov/storefront-backend/internal/reviews"
	"github.com/dmitrykozlov/storefront-backend/internal/users"
	"github.com/dmitrykozlov/storefront-backend/pkg/auth/session"
	"github.com/dmitrykozlov/storefront-backend/pkg/config"
	"github.com/dmitrykozlov/storefront-backend/pkg/db"
	"github.com/dmitrykozlov/storefront-backend/pkg/enums"
	"github.com/dmitrykozlov/storefront-backend/pkg/logger"
	"github.com/dmitrykozlov/storefront-backend/pkg/metrics"
	"github.com/dmitrykozlov/storefront-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionChecker session.AccessSessionChecker
	HTTPMetrics    *metrics.HTTPMetrics
	PromGatherer   prometheus.Gatherer

	AuthService    authsvc.Service
	UsersRepo      *users.Repository
	ProductService productsvc.Service
	OrderService   ordersvc.Service
	ReviewService  reviewsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
		middleware.Instrument(deps.HTTPMetrics, chiRoutePattern),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.PromGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.PromGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
			r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
		})
	})

	// Catalog reads are public; approved reviews ride alongside them.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.ProductService, logg))
		r.Get("/{productId}", controllers.GetProduct(deps.ProductService, logg))
		r.Get("/{productId}/reviews", controllers.ListProductReviews(deps.ReviewService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))

			r.With(middleware.RequireRole(logg, enums.RoleManager, enums.RoleAdmin)).Post("/", controllers.CreateProduct(deps.ProductService, logg))
			r.With(middleware.RequireRole(logg, enums.RoleManager, enums.RoleAdmin)).Patch("/{productId}", controllers.UpdateProduct(deps.ProductService, logg))
			r.With(middleware.RequireRole(logg, enums.RoleManager, enums.RoleAdmin)).Delete("/{productId}", controllers.DeleteProduct(deps.ProductService, logg))

			r.Post("/{productId}/reviews", controllers.CreateReview(deps.ReviewService, logg))
		})
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))

		r.Post("/", controllers.CreateOrder(deps.OrderService, logg))
		r.Get("/", controllers.ListOrders(deps.OrderService, logg))
		r.Get("/{orderId}", controllers.GetOrder(deps.OrderService, logg))
		r.Patch("/{orderId}", controllers.UpdateOrder(deps.OrderService, logg))
		r.Delete("/{orderId}", controllers.DeleteOrder(deps.OrderService, logg))
		r.Post("/{orderId}/items", controllers.AddOrderItem(deps.OrderService, logg))
	})

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))

		r.With(middleware.RequireRole(logg, enums.RoleAdmin)).Get("/pending", controllers.ListPendingReviews(deps.ReviewService, logg))
		r.Get("/{reviewId}", controllers.GetReview(deps.ReviewService, logg))
		r.Patch("/{reviewId}", controllers.UpdateReview(deps.ReviewService, logg))
		r.Delete("/{reviewId}", controllers.DeleteReview(deps.ReviewService, logg))
		r.With(middleware.RequireRole(logg, enums.RoleAdmin)).Post("/{reviewId}/moderate", controllers.ModerateReview(deps.ReviewService, logg))
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))

		r.Get("/me", controllers.CurrentUser(deps.UsersRepo, logg))
		r.With(middleware.RequireRole(logg, enums.RoleAdmin)).Get("/", controllers.ListUsers(deps.UsersRepo, logg))
	})

	return r
}

// chiRoutePattern resolves the matched chi pattern so metrics label by route
// template rather than raw path.
func chiRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}
