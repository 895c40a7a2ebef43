package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"clothshop/backend/internal/domain"
	"clothshop/backend/internal/service"
	"clothshop/backend/internal/store"
	"clothshop/backend/internal/xid"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
	pinLimiter    *attemptLimiter
	log           *zap.Logger
	metrics       *Metrics
}

// New builds the API. A nil metrics disables the /metrics endpoint.
func New(svc *service.Service, auth *AuthManager, allowedOrigin string, log *zap.Logger, metrics *Metrics) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		pinLimiter:    newAttemptLimiter(8, time.Minute),
		log:           log,
		metrics:       metrics,
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	staff := []string{domain.RoleStaff, domain.RoleAdmin}
	admin := domain.RoleAdmin

	mux.HandleFunc("GET /healthz", a.handleHealth)
	if a.metrics != nil {
		mux.Handle("GET /metrics", a.metrics.Handler())
	}
	mux.HandleFunc("POST /api/v1/auth/login", a.handleLogin)

	mux.HandleFunc("GET /api/v1/varieties", a.requireAuth(a.handleListVarieties, staff...))
	mux.HandleFunc("POST /api/v1/varieties", a.requireAuth(a.handleCreateVariety, admin))
	mux.HandleFunc("GET /api/v1/varieties/{id}", a.requireAuth(a.handleGetVariety, staff...))
	mux.HandleFunc("PATCH /api/v1/varieties/{id}", a.requireAuth(a.handleUpdateVariety, admin))
	mux.HandleFunc("PUT /api/v1/varieties/{id}", a.requireAuth(a.handleUpdateVariety, admin))
	mux.HandleFunc("DELETE /api/v1/varieties/{id}", a.requireAuth(a.handleDeleteVariety, admin))

	mux.HandleFunc("GET /api/v1/supplier/inventory", a.requireAuth(a.handleListInventory, staff...))
	mux.HandleFunc("POST /api/v1/supplier/inventory", a.requireAuth(a.handleCreateInventory, staff...))
	mux.HandleFunc("GET /api/v1/supplier/inventory/{id}", a.requireAuth(a.handleGetInventory, staff...))
	mux.HandleFunc("DELETE /api/v1/supplier/inventory/{id}", a.requireAuth(a.handleDeleteInventory, admin))
	mux.HandleFunc("GET /api/v1/supplier/returns", a.requireAuth(a.handleListReturns, staff...))
	mux.HandleFunc("POST /api/v1/supplier/returns", a.requireAuth(a.handleCreateReturn, staff...))
	mux.HandleFunc("GET /api/v1/supplier/returns/{id}", a.requireAuth(a.handleGetReturn, staff...))
	mux.HandleFunc("DELETE /api/v1/supplier/returns/{id}", a.requireAuth(a.handleDeleteReturn, admin))
	mux.HandleFunc("GET /api/v1/supplier/daily-summary/{date}", a.requireAuth(a.handleSupplierDailySummary, staff...))
	mux.HandleFunc("GET /api/v1/supplier/supplier-summary/{date}", a.requireAuth(a.handleSupplierWiseSummary, staff...))

	mux.HandleFunc("GET /api/v1/sales", a.requireAuth(a.handleListSales, staff...))
	mux.HandleFunc("POST /api/v1/sales", a.requireAuth(a.handleCreateSale, staff...))
	mux.HandleFunc("GET /api/v1/sales/{id}", a.requireAuth(a.handleGetSale, staff...))
	mux.HandleFunc("DELETE /api/v1/sales/{id}", a.requireAuth(a.handleDeleteSale, admin))
	mux.HandleFunc("GET /api/v1/sales/daily-summary/{date}", a.requireAuth(a.handleSalesDailySummary, staff...))
	mux.HandleFunc("GET /api/v1/sales/salesperson-summary/{name}/{date}", a.requireAuth(a.handleSalespersonSummary, staff...))

	mux.HandleFunc("GET /api/v1/expenses", a.requireAuth(a.handleListExpenses, staff...))
	mux.HandleFunc("POST /api/v1/expenses", a.requireAuth(a.handleCreateExpense, staff...))
	mux.HandleFunc("GET /api/v1/expenses/{id}", a.requireAuth(a.handleGetExpense, staff...))
	mux.HandleFunc("DELETE /api/v1/expenses/{id}", a.requireAuth(a.handleDeleteExpense, admin))
	mux.HandleFunc("GET /api/v1/expenses/summary/{date}", a.requireAuth(a.handleExpenseSummary, staff...))
	mux.HandleFunc("GET /api/v1/expenses/financial-report/{year}/{month}", a.requireAuth(a.handleFinancialReport, admin))

	mux.HandleFunc("GET /api/v1/reports/daily/{date}", a.requireAuth(a.handleDailyReport, admin))
	mux.HandleFunc("GET /api/v1/reports/profit/{date}", a.requireAuth(a.handleProfitReport, admin))
	mux.HandleFunc("GET /api/v1/audit-logs", a.requireAuth(a.handleAuditLogs, admin))
	mux.HandleFunc("GET /api/v1/users/staff", a.requireAuth(a.handleListStaff, admin))
	mux.HandleFunc("POST /api/v1/users/staff", a.requireAuth(a.handleCreateStaff, admin))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) || errors.Is(err, errInactiveAccount) {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// checkManagerPIN enforces the X-Manager-PIN header under the PIN rate limit.
// It writes the error response and returns false when the request must stop.
func (a *API) checkManagerPIN(w http.ResponseWriter, r *http.Request, action string) bool {
	if !a.pinLimiter.Allow("pin:" + action + ":" + clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many manager pin attempts"))
		return false
	}
	if !a.auth.ValidateManagerPIN(r.Header.Get("X-Manager-PIN")) {
		writeError(w, http.StatusForbidden, errors.New("invalid manager pin"))
		return false
	}
	return true
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" || len(requestID) > 128 {
			requestID = xid.New("req")
		}
		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Manager-PIN, X-Request-ID")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(startedAt)

		// The mux records the matched pattern on r itself.
		a.metrics.Observe(r.Method, r.Pattern, rec.code(), elapsed)
		a.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.code()),
			zap.Duration("duration", elapsed),
			zap.String("request_id", requestID))
	})
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid id %q", store.ErrValidation, raw)
	}
	return id, nil
}

func pathDate(r *http.Request, name string) (domain.Date, error) {
	date, err := domain.ParseDate(r.PathValue(name))
	if err != nil {
		return domain.Date{}, fmt.Errorf("%w: %w", store.ErrValidation, err)
	}
	return date, nil
}

// queryDate parses an optional ?name= date; absent yields the zero date.
func queryDate(r *http.Request, name string) (domain.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return domain.Date{}, nil
	}
	date, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, fmt.Errorf("%w: %w", store.ErrValidation, err)
	}
	return date, nil
}

func parseInt(name string, raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", store.ErrValidation, name)
	}
	return value, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx details stay in the log.
	msg := err.Error()
	if status >= 500 {
		zap.L().Error("internal error", zap.Int("status", status), zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
