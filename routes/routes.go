package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/academy-system/handlers"
	"github.com/Dosada05/academy-system/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/academy-system/docs"
)

// Handlers собирает все HTTP-обработчики приложения.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Player       *handlers.PlayerHandler
	Subscription *handlers.SubscriptionHandler
	Registration *handlers.RegistrationHandler
	Coach        *handlers.CoachHandler
	News         *handlers.NewsHandler
	Settings     *handlers.SettingsHandler
	Upload       *handlers.UploadHandler
	Dashboard    *handlers.DashboardHandler
	Health       *handlers.HealthHandler
	WebSocket    *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	LoginRateLimit int // запросов в минуту
	Logger         *slog.Logger
}

func SetupRoutes(r chi.Router, h Handlers, opts Options) {
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.Logging(opts.Logger))
	r.Use(chiMiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	authenticate := middleware.Authenticate(opts.JWTSecret)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health.Check)

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(opts.LoginRateLimit, time.Minute)).Post("/login", h.Auth.Login)
			r.Post("/logout", h.Auth.Logout)
			r.With(authenticate, middleware.RequireAdmin).Get("/me", h.Auth.Me)
		})

		// Публичная часть сайта
		r.Get("/players", h.Player.ListPublic)
		r.Get("/players/{playerID}", h.Player.GetPublic)
		r.Get("/coaches", h.Coach.List)
		r.Get("/news", h.News.ListPublished)
		r.Get("/news/{newsID}", h.News.GetPublished)
		r.Get("/settings", h.Settings.Get)
		r.Post("/registrations", h.Registration.Submit)

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireAdmin)

			r.Get("/dashboard", h.Dashboard.Stats)

			r.Route("/players", func(r chi.Router) {
				r.Get("/", h.Player.List)
				r.Post("/", h.Player.Create)
				r.Get("/{playerID}", h.Player.Get)
				r.Patch("/{playerID}", h.Player.Update)
				r.Delete("/{playerID}", h.Player.Delete)
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", h.Subscription.List)
				r.Get("/report", h.Subscription.Report)
				r.Get("/months", h.Subscription.Months)
				r.Put("/{playerID}", h.Subscription.Update)
				r.Get("/{playerID}/payments/{month}", h.Subscription.PaymentStatus)
				r.Put("/{playerID}/payments/{month}", h.Subscription.RecordPayment)
			})

			r.Route("/registrations", func(r chi.Router) {
				r.Get("/", h.Registration.List)
				r.Put("/{registrationID}/status", h.Registration.UpdateStatus)
				r.Delete("/{registrationID}", h.Registration.Delete)
			})

			r.Route("/coaches", func(r chi.Router) {
				r.Post("/", h.Coach.Create)
				r.Put("/reorder", h.Coach.Reorder)
				r.Put("/{coachID}", h.Coach.Update)
				r.Delete("/{coachID}", h.Coach.Delete)
			})

			r.Route("/news", func(r chi.Router) {
				r.Get("/", h.News.ListAll)
				r.Post("/", h.News.Create)
				r.Put("/{newsID}", h.News.Update)
				r.Delete("/{newsID}", h.News.Delete)
			})

			r.Put("/settings", h.Settings.Update)

			r.Post("/uploads", h.Upload.Upload)
			r.Delete("/uploads", h.Upload.Delete)
		})
	})

	// Токен для websocket передаётся через ?token=, браузер не умеет слать заголовки
	r.With(authenticate, middleware.RequireAdmin).Get("/ws/subscriptions", h.WebSocket.ServeSubscriptions)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}`))
	})
}
