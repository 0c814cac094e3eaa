// Package scheduler runs the club's periodic background jobs
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/ulysses-club/odissea/app/middleware"
	businessflow "github.com/ulysses-club/odissea/business_flow"
	"github.com/ulysses-club/odissea/config"
)

// WeeklyNotifier broadcasts the upcoming-meeting reminder to the subscriber
// list once a week, at the configured weekday and local time
type WeeklyNotifier struct {
	meetingFlow      businessflow.MeetingFlow
	subscriptionFlow businessflow.SubscriptionFlow
	cfg              config.SchedulerConfig
	location         *time.Location
}

// NewWeeklyNotifier creates the reminder scheduler. An unknown timezone falls
// back to UTC rather than failing startup.
func NewWeeklyNotifier(
	meetingFlow businessflow.MeetingFlow,
	subscriptionFlow businessflow.SubscriptionFlow,
	cfg config.SchedulerConfig,
) *WeeklyNotifier {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("Unknown scheduler timezone %q, using UTC: %v", cfg.Timezone, err)
		location = time.UTC
	}
	return &WeeklyNotifier{
		meetingFlow:      meetingFlow,
		subscriptionFlow: subscriptionFlow,
		cfg:              cfg,
		location:         location,
	}
}

// Start launches the notifier loop in a background goroutine and returns a
// stop function
func (n *WeeklyNotifier) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			wait := time.Until(n.nextRun(time.Now().In(n.location)))
			log.Printf("Weekly reminder scheduled in %s", wait.Round(time.Second))

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				n.runOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// nextRun returns the first configured weekday/hour/minute strictly after now
func (n *WeeklyNotifier) nextRun(now time.Time) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(),
		n.cfg.NotifyHour, n.cfg.NotifyMinute, 0, 0, now.Location())

	daysAhead := (n.cfg.NotifyWeekday - int(now.Weekday()) + 7) % 7
	run = run.AddDate(0, 0, daysAhead)
	if !run.After(now) {
		run = run.AddDate(0, 0, 7)
	}
	return run
}

// runOnce sends one reminder round. Nothing goes out while no meeting is
// announced; the slot is simply skipped until the next week.
func (n *WeeklyNotifier) runOnce(ctx context.Context) {
	meeting := n.meetingFlow.CurrentMeeting(ctx)
	if !meeting.IsAnnounced() {
		log.Println("Skipping weekly reminder: next meeting is not announced")
		return
	}

	text := "🔔 Напоминание о встрече киноклуба!\n\n" + businessflow.FormatMeeting(meeting)
	report, err := n.subscriptionFlow.Broadcast(ctx, text)
	if err != nil {
		log.Println("Weekly reminder broadcast failed", err)
		return
	}
	middleware.ObserveBroadcast(report.Delivered, report.Failed, report.Pruned)
	log.Printf("Weekly reminder sent: delivered=%d failed=%d pruned=%d",
		report.Delivered, report.Failed, report.Pruned)
}
