// Package leadmarketplace предоставляет маршруты для основного приложения.
package leadmarketplace

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/wedmac/lead-marketplace/internal/http/handlers/admin/activity"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/admin/approveartist"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/admin/bulkmaxclaims"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/admin/claimstats"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/admin/creditadjust"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/admin/defaultartist"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/admin/leadlist"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/admin/distributionrule"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/admin/distributionstatus"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/admin/maxclaims"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/artist/profile"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/auth/login"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/auth/register"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/credit/balance"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/credit/history"
	falseclaimlist "github.com/wedmac/lead-marketplace/internal/http/handlers/falseclaim/list"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/falseclaim/raise"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/falseclaim/resolve"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/health"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/lead/book"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/lead/claim"
	leadcreate "github.com/wedmac/lead-marketplace/internal/http/handlers/lead/create"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/lead/myclaims"
	leadread "github.com/wedmac/lead-marketplace/internal/http/handlers/lead/read"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/subscription/plans"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/subscription/purchase"
	"github.com/wedmac/lead-marketplace/internal/http/handlers/subscription/verify"
	"github.com/wedmac/lead-marketplace/internal/http/middlewarectx"
	"github.com/wedmac/lead-marketplace/internal/lib/jwt"
	artistservice "github.com/wedmac/lead-marketplace/internal/services/artist"
	creditservice "github.com/wedmac/lead-marketplace/internal/services/credit"
	distributionservice "github.com/wedmac/lead-marketplace/internal/services/distribution"
	falseclaimservice "github.com/wedmac/lead-marketplace/internal/services/falseclaim"
	leadservice "github.com/wedmac/lead-marketplace/internal/services/lead"
	subscriptionservice "github.com/wedmac/lead-marketplace/internal/services/subscription"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *repository.Storage,
	jwtMaker jwt.Maker, ch *amqp.Channel,
	artistService *artistservice.Service, leadService *leadservice.Service,
	creditService *creditservice.Service, subscriptionService *subscriptionservice.Service,
	falseclaimService *falseclaimservice.Service, distributionService *distributionservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, artistService).ServeHTTP)
		r.Post("/login", login.New(logger, artistService).ServeHTTP)
		r.Post("/leads", leadcreate.New(logger, leadService).ServeHTTP)
		r.Get("/plans", plans.New(logger, subscriptionService).ServeHTTP)
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/profile", profile.New(logger, artistService).ServeHTTP)
			r.Post("/leads/{id}/claim", claim.New(logger, leadService).ServeHTTP)
			r.Post("/leads/{id}/book", book.New(logger, leadService).ServeHTTP)
			r.Get("/leads/my", myclaims.New(logger, leadService).ServeHTTP)
			r.Get("/leads/{id}", leadread.New(logger, leadService).ServeHTTP)
			r.Get("/credits/balance", balance.New(logger, creditService).ServeHTTP)
			r.Get("/credits/history", history.New(logger, creditService).ServeHTTP)
			r.Post("/subscriptions/purchase", purchase.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/verify", verify.New(logger, subscriptionService).ServeHTTP)
			r.Post("/false-claims", raise.New(logger, falseclaimService).ServeHTTP)

			// Группа только для администраторов
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))
				r.Post("/admin/artists/{id}/moderate", approveartist.New(logger, artistService).ServeHTTP)
				r.Get("/admin/artists/{id}/activity", activity.New(logger, artistService).ServeHTTP)
				r.Post("/admin/artists/{id}/credits", creditadjust.New(logger, creditService).ServeHTTP)
				r.Get("/admin/leads", leadlist.New(logger, leadService).ServeHTTP)
				r.Get("/admin/leads/{id}/max-claims", claimstats.New(logger, leadService).ServeHTTP)
				r.Put("/admin/leads/{id}/max-claims", maxclaims.New(logger, leadService).ServeHTTP)
				r.Put("/admin/leads/max-claims", bulkmaxclaims.New(logger, leadService).ServeHTTP)
				r.Get("/admin/distribution-rules", distributionstatus.New(logger, distributionService).ServeHTTP)
				r.Put("/admin/distribution-rules", distributionrule.New(logger, distributionService).ServeHTTP)
				r.Put("/admin/distribution-rules/default-artist", defaultartist.New(logger, distributionService).ServeHTTP)
				r.Get("/admin/false-claims", falseclaimlist.New(logger, falseclaimService).ServeHTTP)
				r.Post("/admin/false-claims/{id}/resolve", resolve.New(logger, falseclaimService, ch).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
