package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/metrics"
	"greenMuensterAPI/internal/types/challenge"
	"greenMuensterAPI/internal/types/notification"
)

var ErrQueueFull = errors.New("notification queue full")

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

type DeviceTokenLister interface {
	ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error)
}

// NotificationDispatcher sends medal pushes from a small worker pool so a
// slow push provider never holds up a trip save.
type NotificationDispatcher struct {
	devices      DeviceTokenLister
	pushProvider PushNotificationProvider
	log          *logrus.Entry
	workers      int
	jobQueue     chan *DispatchJob
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

type DispatchJob struct {
	UserID         uuid.UUID
	ChallengeTitle string
	Tier           challenge.Tier
}

func NewNotificationDispatcher(devices DeviceTokenLister, log *logrus.Entry) *NotificationDispatcher {
	d := &NotificationDispatcher{
		devices:  devices,
		log:      log.WithField("component", "notification_dispatcher"),
		workers:  5,
		jobQueue: make(chan *DispatchJob, 100),
		stopChan: make(chan struct{}),
	}

	d.startWorkers()
	return d
}

// Allow injecting the real FCM provider from main.go
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.send(ctx, job); err != nil {
		metrics.RecordTierNotification(string(job.Tier), false)
		d.log.WithError(err).WithFields(logrus.Fields{
			"user_id": job.UserID,
			"tier":    job.Tier,
		}).Warn("Push failed")
		return
	}
	metrics.RecordTierNotification(string(job.Tier), true)
}

func (d *NotificationDispatcher) send(ctx context.Context, job *DispatchJob) error {
	if d.pushProvider == nil {
		return fmt.Errorf("no push provider configured")
	}

	tokens, err := d.devices.ListDeviceTokens(ctx, job.UserID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		d.log.WithField("user_id", job.UserID).Debug("Skipping push: no device tokens")
		return nil
	}

	title, body := TierMessage(job.ChallengeTitle, job.Tier)
	return d.pushProvider.SendPush(ctx, tokens, title, body, map[string]any{
		"type":      "challenge_tier",
		"challenge": job.ChallengeTitle,
		"tier":      string(job.Tier),
	})
}

// TierMessage is the push copy for reaching tier in a challenge.
func TierMessage(challengeTitle string, tier challenge.Tier) (title, body string) {
	switch tier {
	case challenge.TierGold:
		return "Gold medal!", fmt.Sprintf("You completed %s. Amazing work for Münster's air!", challengeTitle)
	case challenge.TierSilver:
		return "Silver medal!", fmt.Sprintf("You're two thirds through %s. Keep going!", challengeTitle)
	default:
		return "Bronze medal!", fmt.Sprintf("You earned bronze in %s.", challengeTitle)
	}
}

// NotifyTierReached queues the push and never waits. When the queue is full
// the push is dropped and ErrQueueFull is returned.
func (d *NotificationDispatcher) NotifyTierReached(_ context.Context, userID uuid.UUID, challengeTitle string, tier challenge.Tier) error {
	job := &DispatchJob{UserID: userID, ChallengeTitle: challengeTitle, Tier: tier}

	select {
	case d.jobQueue <- job:
		return nil
	default:
		metrics.RecordTierNotification(string(tier), false)
		d.log.WithFields(logrus.Fields{
			"user_id": userID,
			"tier":    tier,
		}).Warn("Notification queue full, dropping push")
		return ErrQueueFull
	}
}

// Stop ends the workers. Jobs still queued are dropped.
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopChan) })
	d.wg.Wait()
}
