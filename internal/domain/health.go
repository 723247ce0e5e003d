package domain

import "context"

// HealthStatus is the body of GET /api/health
type HealthStatus struct {
	Status    string `json:"status" example:"ok"`
	Timestamp string `json:"timestamp" example:"2026-10-19T08:30:00.000Z"`
}

type HealthUsecase interface {
	Check(ctx context.Context) HealthStatus
}
