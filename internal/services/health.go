package services

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/cinematch/internal/engine"
	"github.com/temcen/cinematch/internal/metrics"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusDisabled  = "disabled"
)

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

type HealthService struct {
	logger  *logrus.Logger
	metrics *metrics.Metrics
	model   *engine.Model
	timeout time.Duration

	checks   map[string]CheckFunc
	disabled []string
}

type HealthStatus struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]string      `json:"services"`
	Critical    []string               `json:"critical_failures,omitempty"`
	NonCritical []string               `json:"non_critical_failures,omitempty"`
	Latency     time.Duration          `json:"latency,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// NewHealthService reports the engine as the only critical dependency.
// Optional dependencies are added with AddCheck or marked with Disable.
func NewHealthService(model *engine.Model, logger *logrus.Logger, m *metrics.Metrics) *HealthService {
	return &HealthService{
		logger:  logger,
		metrics: m,
		model:   model,
		timeout: 5 * time.Second,
		checks:  make(map[string]CheckFunc),
	}
}

// AddCheck registers a non-critical dependency probe.
func (s *HealthService) AddCheck(name string, check CheckFunc) {
	s.checks[name] = check
}

// Disable lists a dependency that is switched off by configuration.
func (s *HealthService) Disable(name string) {
	s.disabled = append(s.disabled, name)
}

func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{
		Timestamp: start,
		Services:  make(map[string]string),
	}

	if s.model == nil || s.model.Ranker == nil {
		status.Services["engine"] = StatusUnhealthy
		status.Critical = append(status.Critical, "engine")
		s.logger.Error("Critical service engine is unhealthy")
		s.metrics.HealthChecked("engine", false)
	} else {
		status.Services["engine"] = StatusHealthy
		s.metrics.HealthChecked("engine", true)
		status.Details = map[string]interface{}{
			"catalog_items":   s.model.Stats.CatalogItems,
			"vocabulary_size": s.model.Stats.VocabularySize,
			"users":           s.model.Stats.Users,
			"ratings":         s.model.Stats.RatingsUsed,
			"global_mean":     s.model.Preferences.GlobalMean(),
		}
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.checks[name](checkCtx)
		cancel()

		if err != nil {
			status.Services[name] = StatusUnhealthy
			status.NonCritical = append(status.NonCritical, name)
			s.logger.WithError(err).Warnf("Non-critical service %s is unhealthy", name)
			s.metrics.HealthChecked(name, false)
			continue
		}
		status.Services[name] = StatusHealthy
		s.metrics.HealthChecked(name, true)
	}

	for _, name := range s.disabled {
		status.Services[name] = StatusDisabled
	}

	switch {
	case len(status.Critical) > 0:
		status.Status = StatusUnhealthy
	case len(status.NonCritical) > 0:
		status.Status = StatusDegraded
	default:
		status.Status = StatusHealthy
	}
	status.Latency = time.Since(start)

	return status
}
