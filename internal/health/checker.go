package health

import (
	"context"
	"errors"
	"time"

	"github.com/Ayash-Bera/budgetbites/backend/internal/database"
	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	// StatusDisabled marks an optional store that is not configured.
	StatusDisabled = "disabled"
)

// recordedMaxAge bounds how old a persisted health row may be before
// Latest ignores it.
const recordedMaxAge = 5 * time.Minute

// ErrNoRecentHealth is returned by CheckRecorded when no row is fresh enough.
var ErrNoRecentHealth = errors.New("no recent health records")

// Pinger is the storage surface the checker probes.
type Pinger interface {
	PingDatabase(ctx context.Context) error
	PingRedis(ctx context.Context) error
}

// Providers reports whether the upstream APIs have credentials.
type Providers struct {
	GeminiConfigured bool
	PlacesConfigured bool
}

// HealthChecker manages health checks for all services
type HealthChecker struct {
	store      Pinger
	cache      *database.Cache
	healthRepo models.SystemHealthRepository
	providers  Providers
	logger     *logrus.Logger
}

// NewHealthChecker builds a checker. cache and healthRepo may be nil.
func NewHealthChecker(store Pinger, cache *database.Cache, healthRepo models.SystemHealthRepository, providers Providers, logger *logrus.Logger) *HealthChecker {
	return &HealthChecker{
		store:      store,
		cache:      cache,
		healthRepo: healthRepo,
		providers:  providers,
		logger:     logger,
	}
}

// ServiceHealth represents the health status of a service
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

// Snapshot flattens the result to service name -> status.
func (o OverallHealth) Snapshot() map[string]string {
	snapshot := make(map[string]string, len(o.Services))
	for _, service := range o.Services {
		snapshot[service.Name] = service.Status
	}
	return snapshot
}

func (h *HealthChecker) CheckPostgreSQL(ctx context.Context) ServiceHealth {
	return h.checkStore(ctx, "postgresql", h.store.PingDatabase)
}

func (h *HealthChecker) CheckRedis(ctx context.Context) ServiceHealth {
	return h.checkStore(ctx, "redis", h.store.PingRedis)
}

func (h *HealthChecker) checkStore(ctx context.Context, name string, ping func(context.Context) error) ServiceHealth {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := ping(pingCtx)
	responseTime := int(time.Since(start).Milliseconds())

	status := StatusHealthy
	errorMsg := ""
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		status = StatusDisabled
	case err != nil:
		status = StatusUnhealthy
		errorMsg = err.Error()
		h.logger.WithError(err).Errorf("%s health check failed", name)
	}

	return h.record(ServiceHealth{
		Name:         name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	})
}

// CheckProviders reports degraded for upstream APIs without credentials.
// No network call is made.
func (h *HealthChecker) CheckProviders() []ServiceHealth {
	check := func(name string, configured bool) ServiceHealth {
		service := ServiceHealth{
			Name:        name,
			Status:      StatusHealthy,
			LastChecked: time.Now().Format(time.RFC3339),
		}
		if !configured {
			service.Status = StatusDegraded
			service.Error = "api key not configured"
		}
		return h.record(service)
	}

	return []ServiceHealth{
		check("gemini", h.providers.GeminiConfigured),
		check("places", h.providers.PlacesConfigured),
	}
}

func (h *HealthChecker) record(service ServiceHealth) ServiceHealth {
	if h.healthRepo == nil || service.Status == StatusDisabled {
		return service
	}
	if err := h.healthRepo.UpdateServiceHealth(service.Name, service.Status, service.ResponseTime, service.Error); err != nil {
		h.logger.WithError(err).WithField("service", service.Name).Warn("Failed to record health status")
	}
	return service
}

// CheckAll performs health checks on all services
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	services := []ServiceHealth{
		h.CheckPostgreSQL(ctx),
		h.CheckRedis(ctx),
	}
	services = append(services, h.CheckProviders()...)

	return *h.summarize(services)
}

// CheckCached returns the snapshot stored by PeriodicHealthCheck.
func (h *HealthChecker) CheckCached(ctx context.Context) (*OverallHealth, error) {
	if h.cache == nil {
		return nil, database.ErrNotConfigured
	}

	cached, err := h.cache.GetCachedSystemHealth(ctx)
	if err != nil {
		return nil, err
	}

	services := make([]ServiceHealth, 0, len(cached))
	for name, status := range cached {
		services = append(services, ServiceHealth{Name: name, Status: status})
	}
	return h.summarize(services), nil
}

// CheckRecorded rebuilds the overall status from the latest persisted row
// per service, ignoring rows older than recordedMaxAge.
func (h *HealthChecker) CheckRecorded() (*OverallHealth, error) {
	if h.healthRepo == nil {
		return nil, database.ErrNotConfigured
	}

	rows, err := h.healthRepo.GetAllServicesHealth()
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-recordedMaxAge)
	services := make([]ServiceHealth, 0, len(rows))
	for _, row := range rows {
		if row.CheckedAt.Before(cutoff) {
			continue
		}
		services = append(services, ServiceHealth{
			Name:         row.ServiceName,
			Status:       row.Status,
			ResponseTime: row.ResponseTimeMs,
			Error:        row.ErrorMessage,
			LastChecked:  row.CheckedAt.UTC().Format(time.RFC3339),
		})
	}
	if len(services) == 0 {
		return nil, ErrNoRecentHealth
	}
	return h.summarize(services), nil
}

// Latest prefers the redis snapshot, then persisted rows, and only runs the
// checks live when neither is available.
func (h *HealthChecker) Latest(ctx context.Context) OverallHealth {
	if cached, err := h.CheckCached(ctx); err == nil {
		return *cached
	}
	if recorded, err := h.CheckRecorded(); err == nil {
		return *recorded
	} else if !errors.Is(err, database.ErrNotConfigured) && !errors.Is(err, ErrNoRecentHealth) {
		h.logger.WithError(err).Warn("Failed to load recorded health")
	}
	return h.CheckAll(ctx)
}

func (h *HealthChecker) summarize(services []ServiceHealth) *OverallHealth {
	statuses := make([]string, 0, len(services))
	for _, service := range services {
		statuses = append(statuses, service.Status)
	}
	return &OverallHealth{
		Status:   overallStatus(statuses),
		Services: services,
		Uptime:   h.getUptime(),
	}
}

func overallStatus(statuses []string) string {
	overall := StatusHealthy
	for _, status := range statuses {
		if status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if status == StatusDegraded {
			overall = StatusDegraded
		}
	}
	return overall
}

var startTime = time.Now()

func (h *HealthChecker) getUptime() string {
	uptime := time.Since(startTime)
	return uptime.Round(time.Second).String()
}

// PeriodicHealthCheck runs the checks every interval and caches the snapshot
// until ctx is cancelled.
func (h *HealthChecker) PeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			health := h.CheckAll(ctx)

			if h.cache != nil {
				cacheCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				if err := h.cache.CacheSystemHealth(cacheCtx, health.Snapshot(), 2*interval); err != nil {
					h.logger.WithError(err).Error("Failed to cache health status")
				}
				cancel()
			}

			h.logger.WithField("status", health.Status).Debug("Periodic health check completed")
		}
	}
}
