package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"partner-service/internal/auth/middleware"
	"partner-service/internal/handler"
)

func SetupRoutes(
	r chi.Router,
	h *handler.PartnerHandler,
	auth *middleware.Authenticator,
	rdb *redis.Client,
) chi.Router {
	// ---- Global Middleware ----
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false, // must be false when using "*"
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimiter(rdb, 100, time.Minute, 10*time.Minute, "global"))

	// ---- Mount all routes under /partner/svc ----
	r.Route("/partner/svc", func(pr chi.Router) {

		// ---- Public routes ----
		pr.Group(func(pub chi.Router) {
			pub.Get("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})

			pub.Post("/requests/submit", h.SubmitSignupRequest)
			pub.Post("/register/verify", h.VerifyRegistrationCode)
			pub.Post("/register/complete", h.CompleteRegistration)
			pub.Post("/login", h.Login)
		})

		// ---- Admin routes ----
		pr.Group(func(adm chi.Router) {
			adm.Use(auth.Require(middleware.RolePartnerAdmin))

			adm.Get("/admin/dashboard", h.AdminDashboard)
			adm.Post("/admin/requests/{id}/approve", h.ApproveRequest)
			adm.Post("/admin/accounts/{id}/toggle", h.ToggleStatus)
		})

		// ---- Onboarding routes (any authenticated partner) ----
		pr.Group(func(ob chi.Router) {
			ob.Use(auth.Require())

			ob.Route("/onboarding", func(o chi.Router) {
				o.Get("/draft", h.GetDraft)
				o.Put("/draft", h.SaveDraft)
				o.Delete("/draft", h.DeleteDraft)
				o.Post("/finalize", h.Finalize)
				o.Get("/final", h.GetFinal)
			})
		})
	})

	return r
}
