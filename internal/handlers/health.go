// internal/handlers/health.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/ammerola/preloved-be/internal/core/ports"
	"github.com/ammerola/preloved-be/internal/pkg/config"
)

// QueueInspector is the part of *asynq.Inspector the health check reads.
type QueueInspector interface {
	Queues() ([]string, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	Servers() ([]*asynq.ServerInfo, error)
}

// Probe checks one dependency. Critical probes also gate readiness.
type Probe struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) (map[string]any, error)
}

// ProbeResult is one entry of a HealthReport.
type ProbeResult struct {
	Status  string         `json:"status"`
	Error   string         `json:"error,omitempty"`
	Latency string         `json:"latency"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthReport is the /health response body.
type HealthReport struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ProbeResult `json:"services"`
	Runtime     RuntimeInfo            `json:"runtime"`
}

type RuntimeInfo struct {
	GoVersion    string `json:"go_version"`
	Goroutines   int    `json:"goroutines"`
	HeapAllocMB  uint64 `json:"heap_alloc_mb"`
	NumGC        uint32 `json:"num_gc"`
	GCPauseTotal string `json:"gc_pause_total"`
}

// HealthHandler serves liveness and readiness from a set of probes run
// concurrently.
type HealthHandler struct {
	responder
	probes  []Probe
	version string
	env     string
	started time.Time
}

// NewHealthHandler probes the database, the cache and, when queues is not
// nil, the task queue.
func NewHealthHandler(
	database ports.Database,
	items ports.ItemRepository,
	cache ports.Cache,
	queues QueueInspector,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	probes := []Probe{
		{Name: "database", Critical: true, Check: databaseProbe(database, items)},
		{Name: "redis", Critical: true, Check: func(ctx context.Context) (map[string]any, error) {
			return nil, cache.Ping(ctx)
		}},
	}
	if queues != nil {
		probes = append(probes, Probe{Name: "asynq", Check: queueProbe(queues)})
	}

	return &HealthHandler{
		responder: responder{logger: logger.With(slog.String("handler", "health"))},
		probes:    probes,
		version:   cfg.App.Version,
		env:       cfg.App.Environment,
		started:   time.Now(),
	}
}

// Health handles GET /health. Any failing probe reports "degraded" with 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	results, healthy := h.run(ctx, h.probes)

	report := HealthReport{
		Status:      "healthy",
		Version:     h.version,
		Environment: h.env,
		Uptime:      time.Since(h.started).Round(time.Second).String(),
		Timestamp:   time.Now().UTC(),
		Services:    results,
		Runtime:     runtimeInfo(),
	}
	status := http.StatusOK
	if !healthy {
		report.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-store")
	h.respondJSON(w, status, report)
}

// Readiness handles GET /ready using only the critical probes.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var critical []Probe
	for _, p := range h.probes {
		if p.Critical {
			critical = append(critical, p)
		}
	}
	results, ready := h.run(ctx, critical)

	states := make(map[string]string, len(results))
	for name, res := range results {
		states[name] = res.Status
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	h.respondJSON(w, status, map[string]any{"ready": ready, "details": states})
}

func (h *HealthHandler) run(ctx context.Context, probes []Probe) (map[string]ProbeResult, bool) {
	results := make([]ProbeResult, len(probes))

	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			start := time.Now()
			details, err := p.Check(ctx)
			res := ProbeResult{Status: "healthy", Details: details}
			if err != nil {
				res.Status = "unhealthy"
				res.Error = err.Error()
				h.logger.WarnContext(ctx, "health probe failed",
					slog.String("probe", p.Name),
					slog.String("error", err.Error()))
			}
			res.Latency = time.Since(start).String()
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]ProbeResult, len(probes))
	healthy := true
	for i, p := range probes {
		out[p.Name] = results[i]
		healthy = healthy && results[i].Status == "healthy"
	}
	return out, healthy
}

func databaseProbe(database ports.Database, items ports.ItemRepository) func(context.Context) (map[string]any, error) {
	return func(ctx context.Context) (map[string]any, error) {
		if err := database.Ping(ctx); err != nil {
			return nil, err
		}
		details := map[string]any{"pool": database.Stats()}
		if items != nil {
			if n, err := items.Count(ctx); err == nil {
				details["catalog_items"] = n
			}
		}
		return details, nil
	}
}

func queueProbe(queues QueueInspector) func(context.Context) (map[string]any, error) {
	return func(context.Context) (map[string]any, error) {
		names, err := queues.Queues()
		if err != nil {
			return nil, err
		}

		sizes := make(map[string]any, len(names))
		for _, name := range names {
			info, err := queues.GetQueueInfo(name)
			if err != nil {
				continue
			}
			sizes[name] = map[string]int{
				"pending":   info.Pending,
				"active":    info.Active,
				"scheduled": info.Scheduled,
				"retry":     info.Retry,
				"archived":  info.Archived,
			}
		}

		details := map[string]any{"queues": sizes}
		if servers, err := queues.Servers(); err == nil {
			workers := 0
			for _, s := range servers {
				workers += len(s.ActiveWorkers)
			}
			details["servers"] = len(servers)
			details["workers"] = workers
		}
		return details, nil
	}
}

func runtimeInfo() RuntimeInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeInfo{
		GoVersion:    runtime.Version(),
		Goroutines:   runtime.NumGoroutine(),
		HeapAllocMB:  m.HeapAlloc >> 20,
		NumGC:        m.NumGC,
		GCPauseTotal: time.Duration(m.PauseTotalNs).String(),
	}
}
