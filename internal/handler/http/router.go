package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/atlashr/hr-backend-go/internal/handler/http/middleware"
	"github.com/atlashr/hr-backend-go/internal/pkg/jwt"
)

func NewRouter(
	jwtService jwt.Service,
	authHandler AuthHandler,
	leaveHandler LeaveHandler,
	timesheetHandler TimesheetHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hr-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", "development"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/leave", func(r chi.Router) {

				r.Route("/types", func(r chi.Router) {
					r.Get("/", leaveHandler.ListTypes)

					// HR only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireHR)
						r.Post("/", leaveHandler.CreateType)
					})
				})

				r.Route("/balances", func(r chi.Router) {
					r.Get("/my", leaveHandler.GetMyBalances)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireManager)
						r.Get("/employee/{employeeID}", leaveHandler.GetEmployeeBalances)
					})

					// HR only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireHR)
						r.Post("/", leaveHandler.OpenBalance)
						r.Get("/{balanceID}/history", leaveHandler.GetBalanceHistory)
						r.Post("/{balanceID}/adjust", leaveHandler.AdjustBalance)
					})
				})

				r.Route("/requests", func(r chi.Router) {
					r.Post("/", leaveHandler.CreateRequest)
					r.Get("/my", leaveHandler.GetMyRequests)
					r.Get("/{requestID}", leaveHandler.GetRequest)
					r.Post("/{requestID}/cancel", leaveHandler.CancelRequest)

					// Manager or HR
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireManager)
						r.Post("/{requestID}/approve", leaveHandler.ApproveRequest)
						r.Post("/{requestID}/deny", leaveHandler.DenyRequest)
					})
				})
			})

			r.Route("/timesheet", func(r chi.Router) {
				r.Post("/clock-in", timesheetHandler.ClockIn)
				r.Post("/clock-out", timesheetHandler.ClockOut)
				r.Post("/breaks/start", timesheetHandler.StartBreak)
				r.Post("/breaks/end", timesheetHandler.EndBreak)

				r.Route("/entries", func(r chi.Router) {
					r.Post("/", timesheetHandler.CreateEntry)
					r.Get("/my", timesheetHandler.GetMyEntries)
					r.Get("/{entryID}", timesheetHandler.GetEntry)
					r.Post("/{entryID}/submit", timesheetHandler.SubmitEntry)
					r.Post("/{entryID}/correct", timesheetHandler.CorrectEntry)

					// Manager or HR
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireManager)
						r.Post("/{entryID}/approve", timesheetHandler.ApproveEntry)
						r.Post("/{entryID}/reject", timesheetHandler.RejectEntry)
					})
				})

				r.Get("/hours/{employeeID}/weekly", timesheetHandler.GetWeeklyHours)
			})
		})
	})
	return r
}
