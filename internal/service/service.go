package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"clothshop/backend/internal/cache"
	"clothshop/backend/internal/domain"
	"clothshop/backend/internal/store"
	"clothshop/backend/internal/xid"
)

var ErrForbidden = errors.New("forbidden")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo     store.Repository
	reports  cache.ReportCache
	cacheTTL time.Duration
	log      *zap.Logger
}

func New(repo store.Repository, reports cache.ReportCache, cacheTTL time.Duration, log *zap.Logger) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		repo:     repo,
		reports:  reports,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}

// afterWrite records the audit entry and retires every cached report.
func (s *Service) afterWrite(ctx context.Context, action string, entityType string, entityID int64, detail string) {
	s.logAudit(ctx, action, entityType, fmt.Sprintf("%d", entityID), detail)
	if err := s.reports.Invalidate(ctx); err != nil {
		s.log.Warn("report cache invalidation failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("entity", entityType+"/"+entityID),
			zap.Error(err))
	}
}

func (s *Service) ListAuditLogs(ctx context.Context, date domain.Date, limit int) ([]domain.AuditLog, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 100
	}

	var from time.Time
	if date.IsZero() {
		from = time.Now().UTC().Add(-24 * time.Hour)
	} else {
		from = date.Time()
	}
	to := from.Add(24 * time.Hour)

	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrValidation, fmt.Sprintf(format, args...))
}

func asValidation(err error) error {
	return fmt.Errorf("%w: %w", store.ErrValidation, err)
}

func requireText(field string, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", validationError("%s is required", field)
	}
	return trimmed, nil
}

const maxNameLength = 100

// requireName is requireText capped at maxNameLength characters.
func requireName(field string, value string) (string, error) {
	name, err := requireText(field, value)
	if err != nil {
		return "", err
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", validationError("%s must be at most %d characters", field, maxNameLength)
	}
	return name, nil
}

// requirePositive accepts values greater than zero with at most two decimal
// places.
func requirePositive(field string, value decimal.Decimal) error {
	if !value.IsPositive() {
		return validationError("%s must be greater than zero", field)
	}
	if !value.Equal(value.Round(2)) {
		return validationError("%s allows at most 2 decimal places", field)
	}
	return nil
}

func requireDate(field string, value domain.Date) error {
	if value.IsZero() {
		return validationError("%s is required", field)
	}
	return nil
}

// MonthPeriod validates a calendar month and returns its half-open range.
func MonthPeriod(year int, month int) (store.Period, error) {
	if year < 1 || year > 9999 {
		return store.Period{}, validationError("year must be between 1 and 9999")
	}
	if month < 1 || month > 12 {
		return store.Period{}, validationError("month must be between 1 and 12")
	}
	return store.Month(year, time.Month(month)), nil
}
