package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joaquinvega/mercado-backend/api/controllers"
	"github.com/joaquinvega/mercado-backend/api/middleware"
	"github.com/joaquinvega/mercado-backend/internal/cart"
	"github.com/joaquinvega/mercado-backend/internal/orders"
	"github.com/joaquinvega/mercado-backend/pkg/auth/session"
	"github.com/joaquinvega/mercado-backend/pkg/config"
	"github.com/joaquinvega/mercado-backend/pkg/db"
	"github.com/joaquinvega/mercado-backend/pkg/enums"
	"github.com/joaquinvega/mercado-backend/pkg/logger"
	pkgredis "github.com/joaquinvega/mercado-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	sessions session.AccessSessionChecker,
	roles middleware.RoleResolver,
	cartService cart.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisPinger pkgredis.Pinger
	var idempotencyStore pkgredis.IdempotencyStore
	checkoutLimiter := func(next http.Handler) http.Handler { return next }
	if redisClient != nil {
		redisPinger = redisClient
		idempotencyStore = redisClient
		checkoutPolicy := middleware.NewRateLimitPolicy(
			"checkout",
			cfg.RateLimit.CheckoutWindow,
			cfg.RateLimit.CheckoutLimit,
		)
		checkoutLimiter = middleware.RateLimit(checkoutPolicy, redisClient, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, roles, logg))
		r.Use(middleware.Idempotency(idempotencyStore, cfg.Orders.IdempotencyTTL, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Delete("/items/{itemID}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(checkoutLimiter).
				Post("/", controllers.OrderCreate(ordersService, logg))
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Get("/{orderID}", controllers.OrderDetail(ordersService, logg))
			r.Post("/{orderID}/cancel", controllers.OrderCancel(ordersService, logg))
			r.Patch("/{orderID}/status", controllers.OrderUpdateStatus(ordersService, logg))
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, string(enums.UserRoleSeller), string(enums.UserRoleAdmin)))
			r.Get("/orders", controllers.SellerOrderList(ordersService, logg))
		})
	})

	return r
}
