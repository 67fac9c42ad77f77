// internal/workers/server.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/ammerola/preloved-be/internal/pkg/config"
)

const maxRetryDelay = 10 * time.Minute

// Schedule is one periodic task.
type Schedule struct {
	Every time.Duration
	Cron  string // used when Every is zero
	Task  *asynq.Task
}

func (s Schedule) spec() string {
	if s.Every > 0 {
		return "@every " + s.Every.String()
	}
	return s.Cron
}

// Server runs the task processors and the periodic scheduler together.
type Server struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *slog.Logger
}

// RedisOpt is the asynq connection for cfg.
func RedisOpt(cfg config.AsynqConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func NewServer(cfg config.AsynqConfig, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "asynq"))
	opt := RedisOpt(cfg)

	return &Server{
		srv: asynq.NewServer(opt, asynq.Config{
			Concurrency:     cfg.Concurrency,
			Queues:          cfg.Queues,
			StrictPriority:  cfg.StrictPriority,
			ShutdownTimeout: cfg.ShutdownTimeout,
			RetryDelayFunc:  RetryDelay,
			Logger:          asynqLogger{logger},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				logger.ErrorContext(ctx, "task failed",
					slog.String("type", t.Type()),
					slog.Int("retried", retried),
					slog.String("error", err.Error()))
			}),
			HealthCheckFunc: func(err error) {
				if err != nil {
					logger.Error("redis health check failed", slog.String("error", err.Error()))
				}
			},
		}),
		scheduler: asynq.NewScheduler(opt, &asynq.SchedulerOpts{
			Logger:   asynqLogger{logger},
			Location: time.UTC,
		}),
		mux:    asynq.NewServeMux(),
		logger: logger,
	}
}

// Handle routes a task type to fn.
func (s *Server) Handle(taskType string, fn asynq.HandlerFunc) {
	s.mux.HandleFunc(taskType, fn)
}

// Schedule registers periodic tasks with the scheduler.
func (s *Server) Schedule(schedules ...Schedule) error {
	for _, sc := range schedules {
		id, err := s.scheduler.Register(sc.spec(), sc.Task)
		if err != nil {
			return fmt.Errorf("schedule %s: %w", sc.Task.Type(), err)
		}
		s.logger.Debug("task scheduled",
			slog.String("type", sc.Task.Type()),
			slog.String("spec", sc.spec()),
			slog.String("entry_id", id))
	}
	return nil
}

// Run serves until ctx is cancelled or either loop fails, then stops both.
func (s *Server) Run(ctx context.Context) error {
	if err := s.srv.Start(s.mux); err != nil {
		return fmt.Errorf("start task server: %w", err)
	}
	if err := s.scheduler.Start(); err != nil {
		s.srv.Shutdown()
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	s.logger.Info("stopping task server")

	var g errgroup.Group
	g.Go(func() error { s.scheduler.Shutdown(); return nil })
	g.Go(func() error { s.srv.Shutdown(); return nil })
	return g.Wait()
}

// RetryDelay doubles from one second per retry, capped at ten minutes.
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	if n < 0 {
		n = 0
	}
	if n >= 10 {
		return maxRetryDelay
	}
	return min(time.Second<<n, maxRetryDelay)
}

// DefaultSchedules refreshes the catalog once per snapshot lifetime and
// runs the housekeeping tasks.
func DefaultSchedules(snapshotTTL, cleanupEvery time.Duration) []Schedule {
	if cleanupEvery <= 0 {
		cleanupEvery = time.Hour
	}
	return []Schedule{
		{Every: snapshotTTL, Task: NewCatalogRefreshTask()},
		{Every: cleanupEvery, Task: NewCleanupTempFilesTask()},
		{Cron: "@daily", Task: NewCleanupOldJobsTask()},
	}
}

type asynqLogger struct{ l *slog.Logger }

func (a asynqLogger) Debug(args ...any) { a.l.Debug(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...any)  { a.l.Info(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...any)  { a.l.Warn(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...any) { a.l.Error(fmt.Sprint(args...)) }

func (a asynqLogger) Fatal(args ...any) {
	a.l.Error(fmt.Sprint(args...), slog.Bool("fatal", true))
	os.Exit(1)
}
