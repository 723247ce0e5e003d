package usecase

import (
	"context"
	"time"

	"agency-contact-backend/internal/domain"
)

// healthTimeFormat is ISO 8601 with milliseconds, always UTC
const healthTimeFormat = "2006-01-02T15:04:05.000Z07:00"

type healthUsecase struct {
	now func() time.Time
}

// NewHealthUsecase returns a liveness check. now defaults to time.Now.
func NewHealthUsecase(now func() time.Time) domain.HealthUsecase {
	if now == nil {
		now = time.Now
	}
	return &healthUsecase{now: now}
}

func (u *healthUsecase) Check(ctx context.Context) domain.HealthStatus {
	return domain.HealthStatus{
		Status:    "ok",
		Timestamp: u.now().UTC().Format(healthTimeFormat),
	}
}
