// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"booknest/internal/auth"
	"booknest/internal/cart"
	"booknest/internal/catalog"
	"booknest/internal/community"
	"booknest/internal/donation"
	"booknest/internal/messaging"
	"booknest/internal/notification"
	"booknest/internal/platform/config"
	"booknest/internal/profile"
	"booknest/internal/purchase"
	"booknest/internal/realtime"
	"booknest/internal/rental"
	"booknest/internal/result"
	"booknest/internal/storage"
	"booknest/internal/wishlist"
)

const shutdownTimeout = 15 * time.Second

// Server wires every service onto one chi router and owns the realtime hub.
type Server struct {
	cfg      *config.Config
	log      *zap.SugaredLogger
	router   chi.Router
	hub      *realtime.Hub
	stopAuth func()
}

// New builds the services on top of b. objects backs cover uploads and is
// served under /storage/.
func New(cfg *config.Config, b Backends, mailer auth.Mailer, objects *storage.DiskStore, log *zap.SugaredLogger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	hub := realtime.NewHub(log.Named("realtime"))
	authSvc := auth.NewService(b.Accounts, mailer, auth.Options{
		Secret:        cfg.JWTSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		OTPTTL:        cfg.OTPTTL,
		RatePerMinute: cfg.AuthRatePerMinute,
	}, log.Named("auth"))

	profiles := profile.NewService(b.Profiles, log.Named("profile"))
	books := catalog.NewService(b.Books, objects, log.Named("catalog"))
	notes := notification.NewService(b.Notifications, hub, log.Named("notification"))

	s := &Server{
		cfg:  cfg,
		log:  log,
		hub:  hub,
	}
	s.stopAuth = authSvc.OnAuthStateChange(s.onAuthChange)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", hub.ServeWS(authSvc))
	r.Handle("/storage/*", objects.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(authSvc))
		r.Route("/auth", auth.NewHandler(authSvc).Routes)
		r.Route("/profiles", profile.NewHandler(profiles).Routes)
		r.Route("/books", catalog.NewHandler(books).Routes)
		r.Route("/rentals", rental.NewHandler(
			rental.NewService(b.Rentals, books, notes, hub, b.Events, log.Named("rental")),
		).Routes)
		r.Route("/donations", donation.NewHandler(
			donation.NewService(b.Donations, books, notes, hub, b.Events, log.Named("donation")),
		).Routes)
		r.Route("/purchases", purchase.NewHandler(
			purchase.NewService(b.Purchases, books, notes, hub, b.Events, log.Named("purchase")),
		).Routes)
		r.Route("/notifications", notification.NewHandler(notes).Routes)
		r.Route("/messages", messaging.NewHandler(
			messaging.NewService(b.Messages, profiles, notes, hub, log.Named("messaging")),
		).Routes)
		r.Route("/community", community.NewHandler(
			community.NewService(b.Community, notes, log.Named("community")),
		).Routes)
		r.Route("/cart", cart.NewHandler(
			cart.NewService(b.Cart, books, hub, log.Named("cart")),
		).Routes)
		r.Route("/wishlist", wishlist.NewHandler(
			wishlist.NewService(b.Wishlist, books, hub, log.Named("wishlist")),
		).Routes)
	})

	s.router = r
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hub exposes the realtime hub, mainly for tests and diagnostics.
func (s *Server) Hub() *realtime.Hub { return s.hub }

// Run serves on cfg.HTTPAddr until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("HTTP server starting", "addr", s.cfg.HTTPAddr, "store", s.cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Infow("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.log.Infow("Server exited")
	return nil
}

// Close detaches the server from the auth service.
func (s *Server) Close() {
	if s.stopAuth != nil {
		s.stopAuth()
		s.stopAuth = nil
	}
}

// onAuthChange drops the realtime connections of a user who signed out.
func (s *Server) onAuthChange(c auth.Change) {
	if c.Event != auth.SignedOut || c.Session == nil {
		return
	}
	s.hub.Disconnect(c.Session.UserID)
	s.log.Debugw("Disconnected realtime clients on sign-out", "user_id", c.Session.UserID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	result.WriteJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"service":        s.cfg.ServiceName,
		"realtime_users": len(s.hub.ActiveUsers()),
		"connections":    s.hub.ClientCount(),
	})
}

func requestLogger(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debugw("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
