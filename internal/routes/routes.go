package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cgtm/cgtm_backend/config"
	"github.com/cgtm/cgtm_backend/internal/cache"
	"github.com/cgtm/cgtm_backend/internal/handlers"
	"github.com/cgtm/cgtm_backend/internal/identity"
	"github.com/cgtm/cgtm_backend/internal/middleware"
	"github.com/cgtm/cgtm_backend/internal/pkg/response"
	"github.com/cgtm/cgtm_backend/internal/reminder"
	authService "github.com/cgtm/cgtm_backend/internal/services/auth"
	"github.com/cgtm/cgtm_backend/internal/shiftengine"
	"github.com/cgtm/cgtm_backend/internal/store"
	"github.com/cgtm/cgtm_backend/internal/ws"
)

// Deps are the shared components the route handlers close over.
type Deps struct {
	Store     *store.Client
	Engine    *shiftengine.Engine
	Reminders *reminder.Service
	Identity  *identity.Client
	Cache     cache.Cache
	Hub       *ws.Hub
	Redis     *redis.Client
	Logger    *zap.Logger
}

// Setup initializes and returns the configured router.
func Setup(cfg *config.Config, deps Deps) *chi.Mux {
	jwtAuth := jwtauth.New("HS256", []byte(cfg.JwtSecret), nil)
	jwtService := authService.NewJWTService(cfg.JwtSecret, deps.Redis)
	resetTokens := authService.NewResetTokenStore(deps.Cache)

	authHandler := handlers.NewAuthHandler(deps.Store, jwtService, deps.Identity, resetTokens, deps.Logger)
	shiftsHandler := handlers.NewShiftsHandler(deps.Store, deps.Engine, deps.Hub, deps.Logger)
	adminHandler := handlers.NewAdminHandler(deps.Store, deps.Engine, deps.Hub, deps.Logger)
	reminderHandler := handlers.NewReminderHandler(deps.Reminders, deps.Logger)

	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(jwtauth.Verifier(jwtAuth))
	router.Use(middleware.AddUserToContext())

	// Public routes
	router.Post("/api/auth/admin/login", authHandler.AdminLoginHandler)
	router.Post("/api/auth/caregiver/login", authHandler.CaregiverLoginHandler)
	router.Post("/api/auth/refresh", authHandler.RefreshTokenHandler)
	router.Post("/api/auth/reset-request", authHandler.RequestPasswordResetHandler)
	router.Post("/api/auth/reset-confirm", authHandler.ConfirmPasswordResetHandler)
	// Hit by external cron as well as the in-process loop.
	router.Get("/api/send-shift-reminders", reminderHandler.ScanHandler)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Group(func(r chi.Router) {
		r.Use(jwtauth.Authenticator(jwtAuth))

		r.Post("/api/logout", authHandler.LogoutHandler)
		r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
			userID, _ := middleware.GetUserIDFromContext(req.Context())
			deps.Hub.ServeWS(w, req, userID)
		})

		r.Get("/api/shifts/available", shiftsHandler.GetAvailableShiftsHandler)
		r.Get("/api/shifts/mine", shiftsHandler.GetMyShiftsHandler)
		r.Get("/api/shifts/active", shiftsHandler.GetActiveShiftHandler)
		r.Get("/api/shifts/history", shiftsHandler.GetShiftHistoryHandler)
		r.Post("/api/shifts/{shiftID}/claim", shiftsHandler.ClaimShiftHandler)
		r.Post("/api/shifts/{shiftID}/drop", shiftsHandler.DropShiftHandler)
		r.Post("/api/clock-in", shiftsHandler.ClockInHandler)
		r.Post("/api/clock-out", shiftsHandler.ClockOutHandler)

		// Admin-only
		r.Group(func(sr chi.Router) {
			sr.Use(middleware.AdminOnly())

			sr.Get("/api/admin/users", adminHandler.ListUsersHandler)
			sr.Post("/api/admin/users", adminHandler.CreateUserHandler)
			sr.Patch("/api/admin/users/{userID}", adminHandler.UpdateUserHandler)
			sr.Delete("/api/admin/users/{userID}", adminHandler.DeleteUserHandler)

			sr.Get("/api/admin/scheduled-shifts", adminHandler.ListScheduledShiftsHandler)
			sr.Post("/api/admin/scheduled-shifts", adminHandler.PublishScheduledShiftHandler)
			sr.Put("/api/admin/scheduled-shifts/{shiftID}", adminHandler.UpdateScheduledShiftHandler)
			sr.Delete("/api/admin/scheduled-shifts/{shiftID}", adminHandler.DeleteScheduledShiftHandler)

			sr.Get("/api/admin/shifts", adminHandler.ListShiftsHandler)
			sr.Delete("/api/admin/shifts/{shiftID}", adminHandler.DeleteShiftHandler)
			sr.Post("/api/admin/shifts/{shiftID}/mark-paid", adminHandler.MarkPaidHandler)
			sr.Post("/api/admin/end-active-shift", adminHandler.ForceEndShiftHandler)

			sr.Get("/api/admin/payroll/liability", adminHandler.LiabilityHandler)
			sr.Get("/api/admin/payroll/export", adminHandler.ExportPayrollHandler)

			sr.Post("/api/send-shift-reminders", reminderHandler.SendNowHandler)
		})
	})

	return router
}
