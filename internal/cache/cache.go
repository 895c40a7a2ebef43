package cache

import (
	"context"
	"time"
)

// ReportCache stores computed report payloads. Keys returned by Key embed
// the current write generation, so Invalidate makes every earlier key
// unreachable without scanning.
type ReportCache interface {
	Key(ctx context.Context, name string) (string, error)
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopReportCache struct{}

func (NoopReportCache) Key(_ context.Context, name string) (string, error) {
	return name, nil
}

func (NoopReportCache) Get(_ context.Context, _ string, _ any) (bool, error) {
	return false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ any, _ time.Duration) error {
	return nil
}

func (NoopReportCache) Invalidate(_ context.Context) error {
	return nil
}
