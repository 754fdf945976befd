// Command mockapi serves the fixture storefront API on a local address with
// seeded demo data, so the client can be developed without a real backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitrine-app/vitrine/internal/apitest"
	"github.com/vitrine-app/vitrine/internal/model"
)

func main() {
	fs := flag.NewFlagSet("mockapi", flag.ContinueOnError)

	var addr string
	fs.StringVar(&addr, "addr", ":8080", "")
	fs.StringVar(&addr, "a", ":8080", "")

	var adminEmail string
	fs.StringVar(&adminEmail, "admin", "admin@example.com", "")

	var adminPassword string
	fs.StringVar(&adminPassword, "password", "admin", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: mockapi [flags]

Flags:
  -a, -addr <host:port>   listen address (default: :8080)
  -admin <email>          seeded admin email (default: admin@example.com)
  -password <pass>        seeded admin password (default: admin)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	fixture := apitest.NewServer()
	fixture.SeedUser("Admin", adminEmail, adminPassword, model.RoleAdmin)
	seedProducts(fixture)
	slog.Info("seeded demo data", "admin", adminEmail)

	server := &http.Server{
		Addr:              addr,
		Handler:           loggingMiddleware(fixture.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("mock API listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func seedProducts(fixture *apitest.Server) {
	drafts := []model.ProductDraft{
		{Name: "Ceramic Mug", Description: "Hand-glazed 350ml mug", Price: 9.90, Category: "kitchen", Stock: 24, ImageURL: "https://example.com/img/mug.jpg"},
		{Name: "Linen Towel", Description: "Washed linen kitchen towel", Price: 7.50, Category: "kitchen", Stock: 40, ImageURL: "https://example.com/img/towel.jpg"},
		{Name: "Desk Lamp", Description: "Adjustable warm-light lamp", Price: 34.00, Category: "office", Stock: 12, ImageURL: "https://example.com/img/lamp.jpg"},
		{Name: "Notebook", Description: "A5 dotted, 120 pages", Price: 4.25, Category: "office", Stock: 100, ImageURL: "https://example.com/img/notebook.jpg"},
	}
	for _, d := range drafts {
		fixture.SeedProduct(d)
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs requests with method, path, status, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request", "method", r.Method, "path", r.URL.RequestURI(),
			"status", rec.status, "duration", time.Since(start).Round(time.Millisecond))
	})
}
