package chrono

import (
	"context"
	"fmt"
	"time"

	"readshelf/internal/components/telemetry"

	"github.com/robfig/cron/v3"
)

// Scheduler runs jobs on standard 5 field cron specs, descriptors like
// "@daily" and "@every 6h" are accepted too.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(tel telemetry.API, location *time.Location) Scheduler {
	logger := cronLogger{tel: tel}
	cronner := cron.New(
		cron.WithLogger(logger),
		cron.WithLocation(location),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return Scheduler{cron: cronner}
}

// ValidateSpec reports whether `spec` can be scheduled.
func ValidateSpec(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}

func (s Scheduler) Schedule(spec string, callback func()) error {
	_, err := s.cron.AddFunc(spec, callback)
	return err
}

// Next returns the next activation time of every scheduled job.
func (s Scheduler) Next() []time.Time {
	var out []time.Time
	for _, entry := range s.cron.Entries() {
		out = append(out, entry.Next)
	}
	return out
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

type cronLogger struct {
	tel telemetry.API
}

func (l cronLogger) formatParams(keysAndValues []any) []any {
	params := []any{}
	for i := 0; i < len(keysAndValues)/2; i++ {
		idx := i * 2
		key := keysAndValues[idx]
		value := keysAndValues[idx+1]
		params = append(params, fmt.Sprintf("%v: %v", key, value))
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug(
		fmt.Sprintf("cron: %s", msg),
		l.formatParams(keysAndValues)...,
	)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.tel.ReportBroken(
		"cron",
		fmt.Errorf("%s: %w", msg, err),
		l.formatParams(keysAndValues),
	)
}
