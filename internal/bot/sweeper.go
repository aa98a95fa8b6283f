package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/time/rate"

	"github.com/raphaelgruber/watson-stark/internal/channel"
	"github.com/raphaelgruber/watson-stark/internal/metrics"
	"github.com/raphaelgruber/watson-stark/internal/models"
)

// DefaultSweepInterval is how often due reminders are collected.
const DefaultSweepInterval = time.Minute

// ReminderQueue is the reminder store as seen by the sweeper. Complete must
// report true only for the caller that flipped the reminder to completed.
type ReminderQueue interface {
	Due(ctx context.Context, now time.Time) ([]models.Reminder, error)
	Complete(ctx context.Context, id string) (bool, error)
}

// Sweeper delivers due reminders. Each reminder is claimed before it is
// sent, so a reminder is pushed at most once even with several sweepers.
type Sweeper struct {
	queue          ReminderQueue
	senders        map[string]channel.Sender
	defaultChannel string
	interval       time.Duration
	limiter        *rate.Limiter
	metrics        *metrics.Collector
	logger         *slog.Logger
	now            func() time.Time
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithInterval overrides DefaultSweepInterval.
func WithInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSendRate caps outbound reminder pushes per second.
func WithSendRate(perSecond float64) SweeperOption {
	return func(s *Sweeper) { s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

// WithDefaultChannel routes reminders stored without a channel.
func WithDefaultChannel(name string) SweeperOption {
	return func(s *Sweeper) { s.defaultChannel = name }
}

// WithSweeperMetrics records sweep timings and delivery events.
func WithSweeperMetrics(m *metrics.Collector) SweeperOption {
	return func(s *Sweeper) { s.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) { s.now = now }
}

// NewSweeper creates a Sweeper pushing through senders, keyed by channel name.
func NewSweeper(queue ReminderQueue, senders map[string]channel.Sender, logger *slog.Logger, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		queue:          queue,
		senders:        senders,
		defaultChannel: channel.Telegram,
		interval:       DefaultSweepInterval,
		limiter:        rate.NewLimiter(rate.Limit(20), 1),
		logger:         logger,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on a fixed interval until ctx is cancelled. A sweep that
// overruns the interval delays the next one instead of overlapping it.
func (s *Sweeper) Run(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			if _, err := s.SweepOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("reminder sweep failed", "error", err)
			}
		}),
		gocron.WithName("reminder_sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("register sweep job: %w", err)
	}

	s.logger.Info("reminder sweeper started", "interval", s.interval)
	scheduler.Start()

	<-ctx.Done()
	s.logger.Info("stopping reminder sweeper")
	return scheduler.Shutdown()
}

// SweepOnce delivers every reminder due now and returns how many were sent.
// Delivery failures are logged and do not stop the sweep.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordTiming(metrics.OpReminderSweep, time.Since(start))
		}
	}()

	due, err := s.queue.Due(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}

	sent := 0
	for _, r := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if s.deliver(ctx, r) {
			sent++
		}
	}

	if len(due) > 0 {
		s.logger.Info("reminder sweep complete", "due", len(due), "sent", sent)
	}
	return sent, nil
}

func (s *Sweeper) deliver(ctx context.Context, r models.Reminder) bool {
	id, err := models.RecordIDString(r.ID)
	if err != nil {
		s.logger.Warn("reminder has unusable id", "error", err)
		return false
	}
	log := s.logger.With("reminder_id", id, "user_id", r.UserID)

	name := r.Channel
	if name == "" {
		name = s.defaultChannel
	}
	sender, ok := s.senders[name]
	if !ok {
		// Left pending for a process that serves this channel.
		log.Warn("no sender for reminder channel", "channel", name)
		s.event(metrics.EventReminderSkipped)
		return false
	}

	claimed, err := s.queue.Complete(ctx, id)
	if err != nil {
		log.Error("claim reminder", "error", err)
		return false
	}
	if !claimed {
		log.Debug("reminder already delivered")
		s.event(metrics.EventReminderSkipped)
		return false
	}

	if err := s.limiter.Wait(ctx); err != nil {
		log.Error("reminder claimed but not sent", "error", err)
		return false
	}
	if err := sender.Send(ctx, r.UserID, "⏰ Reminder: "+r.ReminderText); err != nil {
		log.Error("send reminder", "channel", name, "error", err)
		s.event(metrics.EventMessageFailure)
		return false
	}

	log.Info("reminder sent", "channel", name)
	s.event(metrics.EventReminderSent)
	return true
}

func (s *Sweeper) event(name string) {
	if s.metrics != nil {
		s.metrics.IncEvent(name)
	}
}
