package health

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// severity orders statuses so the overall status is the worst check.
func (s Status) severity() int {
	switch s {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	}
	return 0
}

// CheckResult is the outcome of one dependency check
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthResponse is the liveness body
type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse is the readiness body. Ready is false only when a check is
// unhealthy; a degraded dependency keeps the service in rotation.
type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Checker checks one dependency
type Checker func(ctx context.Context) CheckResult

// QueueProbe reports whether the event sink is connected.
type QueueProbe interface {
	Healthy() bool
}

// Config lists the dependencies to check. Nil dependencies are skipped.
type Config struct {
	Version string
	DB      *sql.DB
	Redis   *redis.Client
	Queue   QueueProbe
	Timeout time.Duration
}

// Service runs the registered checks for the readiness probe
type Service struct {
	started time.Time
	version string
	timeout time.Duration
	log     *zap.Logger

	mu       sync.RWMutex
	checkers map[string]Checker
}

func NewService(config *Config, log *zap.Logger) *Service {
	s := &Service{
		started:  time.Now(),
		version:  config.Version,
		timeout:  config.Timeout,
		log:      log,
		checkers: make(map[string]Checker),
	}
	if s.timeout <= 0 {
		s.timeout = 5 * time.Second
	}

	if config.DB != nil {
		s.RegisterChecker("database", PingChecker("database", StatusUnhealthy, config.DB.PingContext, log))
	}
	if config.Redis != nil {
		client := config.Redis
		s.RegisterChecker("redis", PingChecker("redis", StatusUnhealthy, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}, log))
	}
	if config.Queue != nil {
		s.RegisterChecker("events", queueChecker(config.Queue))
	}
	return s
}

// RegisterChecker adds or replaces a named check
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	s.checkers[name] = checker
	s.mu.Unlock()
	s.log.Debug("Registered health checker", zap.String("name", name))
}

// Health answers the liveness probe without touching dependencies
func (s *Service) Health(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Timestamp: time.Now(),
	}
}

// Ready runs every check concurrently, each bounded by the check timeout.
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for name, c := range s.checkers {
		checkers[name] = c
	}
	s.mu.RUnlock()

	type named struct {
		name   string
		result CheckResult
	}
	out := make(chan named, len(checkers))
	for name, check := range checkers {
		go func(name string, check Checker) {
			checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			out <- named{name: name, result: check(checkCtx)}
		}(name, check)
	}

	resp := &ReadyResponse{
		Ready:  true,
		Status: StatusHealthy,
		Checks: make(map[string]CheckResult, len(checkers)),
	}
	for range checkers {
		n := <-out
		resp.Checks[n.name] = n.result
		if n.result.Status.severity() > resp.Status.severity() {
			resp.Status = n.result.Status
		}
	}
	resp.Ready = resp.Status != StatusUnhealthy
	resp.Timestamp = time.Now()
	return resp
}

// PingChecker turns a ping function into a Checker. A failed ping reports
// onFailure.
func PingChecker(name string, onFailure Status, ping func(ctx context.Context) error, log *zap.Logger) Checker {
	return func(ctx context.Context) CheckResult {
		start := time.Now()
		err := ping(ctx)
		result := CheckResult{
			Name:      name,
			Status:    StatusHealthy,
			Message:   "connection ok",
			Duration:  time.Since(start),
			Timestamp: start,
		}
		if err != nil {
			result.Status = onFailure
			result.Message = fmt.Sprintf("ping failed: %v", err)
			log.Warn("Health check failed", zap.String("name", name), zap.Error(err))
		}
		return result
	}
}

// queueChecker reports a disconnected event sink as degraded: publishing is
// best effort and bookings keep working without it.
func queueChecker(q QueueProbe) Checker {
	return func(ctx context.Context) CheckResult {
		result := CheckResult{
			Name:      "events",
			Status:    StatusHealthy,
			Message:   "connected",
			Timestamp: time.Now(),
		}
		if !q.Healthy() {
			result.Status = StatusDegraded
			result.Message = "event sink disconnected"
		}
		return result
	}
}
