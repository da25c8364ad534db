package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/STRATINT/activityscan/internal/auth"
	"github.com/STRATINT/activityscan/internal/metrics"
	"github.com/STRATINT/activityscan/internal/scanner"
	"github.com/STRATINT/activityscan/internal/settings"
)

// Dependencies are the collaborators the API serves. Runs, Auth, Metrics and
// Health are optional.
type Dependencies struct {
	Scans        *scanner.Service
	Settings     settings.Store
	Runs         RunLister
	Auth         *auth.Authenticator
	Metrics      *metrics.Collector
	Health       func(ctx context.Context) error
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// NewRouter configures all API routes.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	scanHandler := NewScanHandler(deps.Scans, deps.Runs, deps.MaxBodyBytes, logger)
	settingsHandler := NewSettingsHandler(deps.Settings, logger)
	authHandler := NewAuthHandler(deps.Auth, logger)
	healthHandler := NewHealthHandler(deps.Health, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.Handle("/api/auth/validate", deps.Auth.Middleware(http.HandlerFunc(authHandler.Validate)))

	mux.HandleFunc("/api/scans", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			scanHandler.CreateScan(w, r)
		case http.MethodGet:
			scanHandler.ListScans(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Reading settings is public; changing them requires a token.
	updateSettings := deps.Auth.Middleware(http.HandlerFunc(settingsHandler.UpdateSettings))
	mux.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			settingsHandler.GetSettings(w, r)
		case http.MethodPut, http.MethodPost:
			updateSettings.ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/healthz", healthHandler.Health)

	var handler http.Handler = mux
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics.Handler())
		handler = deps.Metrics.InstrumentHandler(mux)
	}
	return withCORS(handler)
}

// withCORS sets CORS headers for all responses and answers preflight requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
