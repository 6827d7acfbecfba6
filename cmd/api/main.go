package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlashr/hr-backend-go/internal/config"
	"github.com/atlashr/hr-backend-go/internal/domain/audit"
	appHTTP "github.com/atlashr/hr-backend-go/internal/handler/http"
	"github.com/atlashr/hr-backend-go/internal/pkg/clock"
	"github.com/atlashr/hr-backend-go/internal/pkg/cron"
	"github.com/atlashr/hr-backend-go/internal/pkg/database"
	"github.com/atlashr/hr-backend-go/internal/pkg/jwt"
	"github.com/atlashr/hr-backend-go/internal/repository/postgresql"
	authService "github.com/atlashr/hr-backend-go/internal/service/auth"
	leaveService "github.com/atlashr/hr-backend-go/internal/service/leave"
	ledgerService "github.com/atlashr/hr-backend-go/internal/service/ledger"
	"github.com/atlashr/hr-backend-go/internal/service/policy"
	timesheetService "github.com/atlashr/hr-backend-go/internal/service/timesheet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		os.Exit(1)
	}
	defer db.Close()

	userRepo := postgresql.NewUserRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	leaveTypeRepo := postgresql.NewLeaveTypeRepository(db)
	leavePolicyRepo := postgresql.NewLeavePolicyRepository(db)
	leaveBalanceRepo := postgresql.NewLeaveBalanceRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	accrualTxRepo := postgresql.NewAccrualTransactionRepository(db)
	timeEntryRepo := postgresql.NewTimeEntryRepository(db)
	breakEntryRepo := postgresql.NewBreakEntryRepository(db)
	overtimePolicyRepo := postgresql.NewOvertimePolicyRepository(db)

	transactor := postgresql.NewTransactor(db)
	systemClock := clock.SystemClock{}
	calendar := clock.NewWeekdayCalendar()
	auditSink := audit.NewSlogSink(slog.Default())

	jwtSvc := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)
	authSvc := authService.NewService(userRepo, jwtSvc)
	ledgerSvc := ledgerService.NewService(transactor, leaveBalanceRepo, accrualTxRepo, auditSink, systemClock)
	evaluator := policy.NewEvaluator(systemClock, calendar)
	leaveSvc := leaveService.NewService(
		transactor,
		leaveRequestRepo,
		leaveTypeRepo,
		leavePolicyRepo,
		leaveBalanceRepo,
		employeeRepo,
		evaluator,
		ledgerSvc,
		auditSink,
		systemClock,
	)
	timesheetSvc := timesheetService.NewService(
		transactor,
		timeEntryRepo,
		breakEntryRepo,
		overtimePolicyRepo,
		employeeRepo,
		auditSink,
		systemClock,
	)

	authHandler := appHTTP.NewAuthHandler(jwtSvc, authSvc)
	leaveHandler := appHTTP.NewLeaveHandler(leaveSvc, ledgerSvc)
	timesheetHandler := appHTTP.NewTimesheetHandler(timesheetSvc)

	router := appHTTP.NewRouter(jwtSvc, authHandler, leaveHandler, timesheetHandler)

	scheduler := cron.NewScheduler()
	accrualJobs := cron.NewAccrualJobs(leaveBalanceRepo, ledgerSvc, systemClock)
	accrualJobs.Register(scheduler, cfg.Cron.AccrualInterval, cfg.Cron.CarryoverInterval)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
