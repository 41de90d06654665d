package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agrimandi/agrimandi-backend/api/controllers"
	"github.com/agrimandi/agrimandi-backend/api/middleware"
	"github.com/agrimandi/agrimandi-backend/internal/auth"
	"github.com/agrimandi/agrimandi-backend/internal/hubs"
	"github.com/agrimandi/agrimandi-backend/internal/notifications"
	"github.com/agrimandi/agrimandi-backend/internal/orders"
	"github.com/agrimandi/agrimandi-backend/internal/payments"
	"github.com/agrimandi/agrimandi-backend/internal/products"
	"github.com/agrimandi/agrimandi-backend/pkg/config"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
	"github.com/agrimandi/agrimandi-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	authService auth.Service,
	registerService auth.RegisterService,
	productsService products.Service,
	ordersService orders.Service,
	paymentsService payments.Service,
	hubsService hubs.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
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
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.Register(registerService, logg))
		r.Post("/verify-email", controllers.VerifyEmail(registerService, logg))
		r.Post("/resend-code", controllers.ResendCode(registerService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.Login(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productsService, logg))
			r.Post("/", controllers.CreateProduct(productsService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, string(enums.UserRoleHubManager), string(enums.UserRoleAdmin)))
				r.Get("/pending", controllers.ListPendingBulk(productsService, logg))
				r.Post("/{productId}/review", controllers.ReviewProduct(productsService, logg))
			})

			r.Get("/{productId}", controllers.GetProduct(productsService, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(productsService, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(productsService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.PlaceOrder(ordersService, logg))
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderId}", controllers.GetOrder(ordersService, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(ordersService, logg))

			r.With(middleware.RequireRole(logg, string(enums.UserRoleHubManager), string(enums.UserRoleAdmin))).
				Patch("/{orderId}/status", controllers.UpdateOrderStatus(ordersService, logg))
			r.With(middleware.RequireRole(logg, string(enums.UserRoleAdmin))).
				Delete("/{orderId}", controllers.DeleteOrder(ordersService, logg))

			r.Route("/{orderId}/payment", func(r chi.Router) {
				r.Post("/intent", controllers.CreatePaymentIntent(paymentsService, logg))
				r.Post("/verify", controllers.VerifyPayment(paymentsService, logg))
				r.Post("/failed", controllers.MarkPaymentFailed(paymentsService, logg))
			})
		})

		r.Route("/hubs", func(r chi.Router) {
			r.Get("/", controllers.ListHubs(hubsService, logg))
			r.With(middleware.RequireRole(logg, string(enums.UserRoleAdmin))).
				Post("/", controllers.CreateHub(hubsService, logg))

			r.Route("/activities", func(r chi.Router) {
				r.Get("/mine", controllers.ListMyHubActivities(hubsService, logg))
				// hub staff or the record's farmer; the service checks ownership
				r.Post("/{activityId}/otp", controllers.GenerateArrivalOTP(hubsService, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(logg, string(enums.UserRoleHubManager), string(enums.UserRoleAdmin)))
					r.Get("/", controllers.ListHubActivities(hubsService, logg))
					r.Post("/{activityId}/verify", controllers.VerifyArrival(hubsService, logg))
				})
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
