package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/example/studio-manager/internal/application"
	"github.com/example/studio-manager/internal/calendar"
	"github.com/example/studio-manager/internal/config"
	httptransport "github.com/example/studio-manager/internal/http"
	"github.com/example/studio-manager/internal/persistence"
	"github.com/example/studio-manager/internal/persistence/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootstrap := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	if err := seedAdminAccount(context.Background(), storage, cfg, idGenerator, logger); err != nil {
		logger.Error("failed to seed admin account", "error", err)
		os.Exit(1)
	}

	authService := application.NewAuthService(storage, storage, idGenerator, tokenGenerator, now, cfg.SessionTTL, logger)
	clientService := application.NewClientService(storage, idGenerator, now, logger)
	roomService := application.NewRoomService(storage, idGenerator, now, logger)
	equipmentService := application.NewEquipmentService(storage, idGenerator, now, logger)
	bookingService := application.NewBookingService(storage, idGenerator, now, logger)
	classService := application.NewClassService(storage, bookingService.RoomOracle(), idGenerator, now, logger)
	enrollmentService := application.NewEnrollmentService(storage, idGenerator, now, logger)
	attendanceService := application.NewAttendanceService(storage, idGenerator, now, logger)
	paymentService := application.NewPaymentService(storage, idGenerator, now, logger)

	calendarService := calendar.NewService(storage, storage, storage, idGenerator, now, logger)
	calendarService.Start(cfg.CalendarSyncEvery)
	defer calendarService.Stop()

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:        httptransport.NewAuthHandler(authService, logger),
		Clients:     httptransport.NewClientHandler(clientService, logger),
		Rooms:       httptransport.NewRoomHandler(roomService, logger),
		Equipment:   httptransport.NewEquipmentHandler(equipmentService, logger),
		Classes:     httptransport.NewClassHandler(classService, logger),
		Bookings:    httptransport.NewBookingHandler(bookingService, logger),
		Enrollments: httptransport.NewEnrollmentHandler(enrollmentService, logger),
		Attendance:  httptransport.NewAttendanceHandler(attendanceService, logger),
		Payments:    httptransport.NewPaymentHandler(paymentService, logger),
		Calendar:    httptransport.NewCalendarHandler(calendarService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.URL.Path, "/auth/login") {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("studio API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// newLogger writes JSON records to stderr, or to a size-rotated file when
// STUDIO_LOG_FILE is set.
func newLogger(cfg config.Config) *slog.Logger {
	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// seedAdminAccount creates the first admin on an empty database so that the
// admin-gated /auth/register endpoint is reachable. It only runs when
// STUDIO_ADMIN_PASSWORD is set and the configured username does not exist yet.
func seedAdminAccount(ctx context.Context, accounts persistence.AccountRepository, cfg config.Config, idGenerator func() string, logger *slog.Logger) error {
	if cfg.AdminPassword == "" {
		return nil
	}
	if _, err := accounts.GetAccountByUsername(ctx, cfg.AdminUsername); err == nil {
		return nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return err
	}

	hash, err := application.CreatePasswordHash(cfg.AdminPassword, application.DefaultArgon2idParams)
	if err != nil {
		return err
	}
	created := time.Now().UTC()
	account := persistence.Account{
		ID:           idGenerator(),
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		Role:         "admin",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	if err := accounts.CreateAccount(ctx, account); err != nil {
		return err
	}
	logger.Info("seeded admin account", "username", account.Username, "account_id", account.ID)
	return nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
