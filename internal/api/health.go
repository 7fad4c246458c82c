package api

import (
	"context"
	"net/http"
	"time"
)

// Check pings one backing dependency.
type Check func(ctx context.Context) error

type dependency struct {
	name     string
	check    Check
	critical bool
}

type HealthHandler struct {
	deps    []dependency
	env     string
	version string
}

func NewHealthHandler(env, version string) *HealthHandler {
	return &HealthHandler{env: env, version: version}
}

// WithDependency registers a readiness check. A failing critical dependency
// makes the service unready, a failing optional one only degrades it.
func (h *HealthHandler) WithDependency(name string, check Check, critical bool) *HealthHandler {
	h.deps = append(h.deps, dependency{name: name, check: check, critical: critical})
	return h
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

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string, len(h.deps))
	status := "ok"
	for _, d := range h.deps {
		depCtx, depCancel := context.WithTimeout(ctx, time.Second)
		err := d.check(depCtx)
		depCancel()
		if err == nil {
			deps[d.name] = "ok"
			continue
		}
		deps[d.name] = "down"
		if d.critical {
			status = "error"
		} else if status == "ok" {
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
