package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/types/notification"
)

// Channel is the NOTIFY channel the user_challenges trigger writes to.
const Channel = "user_challenges_changes"

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

type Publisher interface {
	Publish(event notification.ProgressEvent)
}

// Listener holds one pool connection in LISTEN mode and forwards every
// notification to the publisher.
type Listener struct {
	pool      *pgxpool.Pool
	publisher Publisher
	log       *logrus.Entry
}

func NewListener(pool *pgxpool.Pool, publisher Publisher, log *logrus.Entry) *Listener {
	return &Listener{
		pool:      pool,
		publisher: publisher,
		log:       log.WithField("component", "realtime_listener"),
	}
}

// Run listens until ctx is cancelled, reconnecting with backoff when the
// connection drops. A session that got as far as LISTEN starts the backoff
// over.
func (l *Listener) Run(ctx context.Context) {
	retry := newBackoff()

	for {
		err := l.listen(ctx, retry.reset)
		if ctx.Err() != nil {
			return
		}

		wait := retry.next()
		l.log.WithError(err).WithField("retry_in", wait.String()).Warn("Realtime listener disconnected")

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// listen holds its connection outside the pool and closes it on return, so a
// LISTENing session is never handed to another caller.
func (l *Listener) listen(ctx context.Context, listening func()) error {
	pooled, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	conn := pooled.Hijack()
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	listening()
	l.log.WithField("channel", Channel).Info("Listening for progress changes")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		event, err := ParseEvent(n.Payload)
		if err != nil {
			l.log.WithError(err).Warn("Ignoring malformed notification")
			continue
		}
		l.publisher.Publish(event)
	}
}

type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: minBackoff}
}

// next returns the wait before the coming retry and doubles it, up to
// maxBackoff.
func (b *backoff) next() time.Duration {
	wait := b.current
	b.current *= 2
	if b.current > maxBackoff {
		b.current = maxBackoff
	}
	return wait
}

func (b *backoff) reset() {
	b.current = minBackoff
}

func ParseEvent(payload string) (notification.ProgressEvent, error) {
	var event notification.ProgressEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return event, fmt.Errorf("failed to decode notification: %w", err)
	}
	if event.UserID == uuid.Nil {
		return event, fmt.Errorf("notification without user_id")
	}
	return event, nil
}
