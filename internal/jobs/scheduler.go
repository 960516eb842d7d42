package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"dreamreel/internal/ids"
)

// Scheduler periodically enqueues retention sweeps of the generated
// assets directory. Without it the directory grows forever.
type Scheduler struct {
	cron   *cron.Cron
	queue  *redis.Client
	stream string
	log    zerolog.Logger
}

func NewScheduler(queue *redis.Client, stream string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		queue:  queue,
		stream: stream,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	// Hourly sweep of expired assets.
	if _, err := s.cron.AddFunc("0 0 * * * *", s.enqueueSweep); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop, waiting up to five seconds for a running
// job to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) enqueueSweep() {
	if err := s.enqueueTask(map[string]any{
		"type":  "sweep",
		"jobId": ids.New(),
	}); err != nil {
		s.log.Error().Err(err).Msg("enqueue sweep failed")
	}
}

func (s *Scheduler) enqueueTask(payload map[string]any) error {
	if s.queue == nil {
		return nil
	}
	_, err := s.queue.XAdd(context.Background(), &redis.XAddArgs{
		Stream: s.stream,
		Values: payload,
	}).Result()
	return err
}
