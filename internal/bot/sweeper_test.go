package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/raphaelgruber/watson-stark/internal/channel"
	"github.com/raphaelgruber/watson-stark/internal/metrics"
	"github.com/raphaelgruber/watson-stark/internal/models"
)

type fakeQueue struct {
	mu        sync.Mutex
	reminders []models.Reminder
	completed map[string]bool
	dueErr    error
}

func newFakeQueue(rs ...models.Reminder) *fakeQueue {
	return &fakeQueue{reminders: rs, completed: map[string]bool{}}
}

func (q *fakeQueue) Due(_ context.Context, now time.Time) ([]models.Reminder, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.dueErr != nil {
		return nil, q.dueErr
	}
	var due []models.Reminder
	for _, r := range q.reminders {
		if !q.completed[models.MustRecordIDString(r.ID)] && !r.ReminderTime.After(now) {
			due = append(due, r)
		}
	}
	return due, nil
}

func (q *fakeQueue) Complete(_ context.Context, id string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.completed[id] {
		return false, nil
	}
	q.completed[id] = true
	return true, nil
}

type sent struct {
	to   string
	text string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (s *fakeSender) Send(_ context.Context, to, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sent{to, text})
	return nil
}

func (s *fakeSender) messages() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.sent...)
}

var sweepNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func reminder(id, user, ch, text string, at time.Time) models.Reminder {
	return models.Reminder{
		ID:           surrealmodels.NewRecordID("reminder", id),
		UserID:       user,
		Channel:      ch,
		ReminderText: text,
		ReminderTime: at,
	}
}

func TestSweepOnceDeliversDueReminders(t *testing.T) {
	q := newFakeQueue(
		reminder("r1", "42", channel.Telegram, "call mom", sweepNow.Add(-time.Minute)),
		reminder("r2", "whatsapp:+15550001", channel.WhatsApp, "water plants", sweepNow.Add(-time.Second)),
		reminder("r3", "42", channel.Telegram, "later", sweepNow.Add(time.Hour)),
	)
	tg, wa := &fakeSender{}, &fakeSender{}
	m := metrics.NewCollector()
	s := NewSweeper(q, map[string]channel.Sender{channel.Telegram: tg, channel.WhatsApp: wa}, discard(),
		WithClock(func() time.Time { return sweepNow }), WithSweeperMetrics(m), WithSendRate(1000))

	n, err := s.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []sent{{"42", "⏰ Reminder: call mom"}}, tg.messages())
	assert.Equal(t, []sent{{"whatsapp:+15550001", "⏰ Reminder: water plants"}}, wa.messages())
	assert.Equal(t, int64(2), m.Events()[metrics.EventReminderSent])
	assert.False(t, q.completed["r3"])

	n, err = s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "completed reminders are never sent again")
}

func TestConcurrentSweepsSendOnce(t *testing.T) {
	q := newFakeQueue(reminder("r1", "42", channel.Telegram, "stand up", sweepNow.Add(-time.Minute)))
	tg := &fakeSender{}
	senders := map[string]channel.Sender{channel.Telegram: tg}
	clock := WithClock(func() time.Time { return sweepNow })

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = NewSweeper(q, senders, discard(), clock).SweepOnce(context.Background())
		}()
	}
	wg.Wait()

	assert.Len(t, tg.messages(), 1)
}

func TestSweepLeavesUnroutableRemindersPending(t *testing.T) {
	q := newFakeQueue(reminder("r1", "whatsapp:+1", channel.WhatsApp, "x", sweepNow.Add(-time.Minute)))
	m := metrics.NewCollector()
	s := NewSweeper(q, map[string]channel.Sender{channel.Telegram: &fakeSender{}}, discard(),
		WithClock(func() time.Time { return sweepNow }), WithSweeperMetrics(m))

	n, err := s.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, q.completed["r1"])
	assert.Equal(t, int64(1), m.Events()[metrics.EventReminderSkipped])
}

func TestSweepDefaultChannel(t *testing.T) {
	q := newFakeQueue(reminder("r1", "42", "", "legacy", sweepNow.Add(-time.Minute)))
	tg := &fakeSender{}
	s := NewSweeper(q, map[string]channel.Sender{channel.Telegram: tg}, discard(),
		WithClock(func() time.Time { return sweepNow }))

	n, err := s.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "⏰ Reminder: legacy", tg.messages()[0].text)
}

func TestSweepSendFailureIsNotRetried(t *testing.T) {
	q := newFakeQueue(reminder("r1", "42", channel.Telegram, "x", sweepNow.Add(-time.Minute)))
	tg := &fakeSender{err: errors.New("chat not found")}
	m := metrics.NewCollector()
	s := NewSweeper(q, map[string]channel.Sender{channel.Telegram: tg}, discard(),
		WithClock(func() time.Time { return sweepNow }), WithSweeperMetrics(m))

	n, err := s.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, q.completed["r1"], "claimed before sending")
	assert.Equal(t, int64(1), m.Events()[metrics.EventMessageFailure])
}

func TestSweepQueueError(t *testing.T) {
	q := newFakeQueue()
	q.dueErr = errors.New("db down")
	s := NewSweeper(q, nil, discard())

	_, err := s.SweepOnce(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestRunSweepsImmediatelyAndStops(t *testing.T) {
	q := newFakeQueue(reminder("r1", "42", channel.Telegram, "now", sweepNow.Add(-time.Minute)))
	tg := &fakeSender{}
	s := NewSweeper(q, map[string]channel.Sender{channel.Telegram: tg}, discard(),
		WithClock(func() time.Time { return sweepNow }), WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return len(tg.messages()) == 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
