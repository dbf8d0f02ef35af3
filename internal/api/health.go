package api

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *pgxpool.Pool and by RedisPinger.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisPinger adapts a go-redis client to Pinger.
type RedisPinger struct {
	Client *redis.Client
}

func (p RedisPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}

type HealthHandler struct {
	postgres Pinger
	redis    Pinger
	env      string
	version  string
}

func NewHealthHandler(postgres, redis Pinger, env, version string) *HealthHandler {
	return &HealthHandler{
		postgres: postgres,
		redis:    redis,
		env:      env,
		version:  version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	})
}

// Readiness reports "error" (503) when Postgres is down and "degraded" (200)
// when only Redis is. Without Redis bookings fail with 409 but reads work.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string)
	status := "ok"

	if checkDependency(ctx, h.postgres) {
		deps["postgres"] = "ok"
	} else {
		deps["postgres"] = "down"
		status = "error"
	}

	if checkDependency(ctx, h.redis) {
		deps["redis"] = "ok"
	} else {
		deps["redis"] = "down"
		if status == "ok" {
			status = "degraded"
		}
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	})
}

func checkDependency(ctx context.Context, p Pinger) bool {
	if p == nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return p.Ping(pingCtx) == nil
}
