package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/middleware/security"
)

// Ledger is the slice of services.LedgerService the API calls.
type Ledger interface {
	CreateTransaction(ctx context.Context, in core.TransactionInput) (int64, error)
	UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) error
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, f core.Filter) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id, accountID int64) error
	Summarize(ctx context.Context, f core.Filter) (core.Summary, error)
	Export(ctx context.Context, f core.Filter) ([]byte, error)

	CreateAccount(ctx context.Context, name string) (int64, error)
	ListAccounts(ctx context.Context, includeArchived bool) ([]core.Account, error)
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	RenameAccount(ctx context.Context, id int64, name string) error
	ArchiveAccount(ctx context.Context, id int64) error
	RestoreAccount(ctx context.Context, id int64) error
	DeleteAccount(ctx context.Context, id int64) error

	Ready(ctx context.Context) error
}

type Server struct {
	http.Server
	ledger      Ledger
	logger      *applog.Logger
	rateLimiter *rateLimiter
	started     time.Time

	// now is the clock used for default date ranges.
	now func() time.Time

	shutdownOnce sync.Once
}

// NewServer wires the routes and returns a ready-to-run server.
func NewServer(addr string, ledger Ledger, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:      ledger,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(writeRequestsPerMinute),
		started:     time.Now(),
		now:         time.Now,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /api/transactions/{id}/delete", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /export.csv", s.handleExport)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("POST /api/accounts/{id}/rename", s.handleRenameAccount)
	mux.HandleFunc("POST /api/accounts/{id}/archive", s.handleArchiveAccount)
	mux.HandleFunc("POST /api/accounts/{id}/restore", s.handleRestoreAccount)
	mux.HandleFunc("POST /api/accounts/{id}/delete", s.handleDeleteAccount)

	s.Handler = withRequestID(
		applog.Middleware(logger)(
			applog.RequestIDMiddleware(requestIDFromContext)(
				security.Headers(security.DefaultHeadersConfig())(
					s.withRequestLogging(mux)))))

	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type requestIDKey struct{}

func requestIDFromContext(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// withRequestID reuses a well-formed X-Request-ID or mints a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withRequestLogging applies the write rate limit, then logs completion
// with the final status.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := extractClientIP(r)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP) {
			applog.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP, applog.FieldPath, r.URL.Path)
			rw.Header().Set("Retry-After", "60")
			writeJSON(rw, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, retry later"})
		} else {
			next.ServeHTTP(rw, r)
		}

		applog.NewStructuredLogger(applog.FromContext(ctx)).
			LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
