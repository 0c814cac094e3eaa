package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ulysses-club/odissea/config"
)

func notifierWith(weekday, hour, minute int) *WeeklyNotifier {
	return &WeeklyNotifier{
		cfg: config.SchedulerConfig{
			NotifyWeekday: weekday,
			NotifyHour:    hour,
			NotifyMinute:  minute,
		},
		location: time.UTC,
	}
}

func TestNextRun(t *testing.T) {
	// Wednesday 2026-08-26 10:00 UTC
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

	t.Run("LaterThisWeek", func(t *testing.T) {
		n := notifierWith(int(time.Friday), 14, 0)
		run := n.nextRun(now)
		assert.Equal(t, time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC), run)
	})

	t.Run("LaterToday", func(t *testing.T) {
		n := notifierWith(int(time.Wednesday), 14, 30)
		run := n.nextRun(now)
		assert.Equal(t, time.Date(2026, 8, 26, 14, 30, 0, 0, time.UTC), run)
	})

	t.Run("EarlierTodayRollsToNextWeek", func(t *testing.T) {
		n := notifierWith(int(time.Wednesday), 9, 0)
		run := n.nextRun(now)
		assert.Equal(t, time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC), run)
	})

	t.Run("ExactlyNowRollsToNextWeek", func(t *testing.T) {
		n := notifierWith(int(time.Wednesday), 10, 0)
		run := n.nextRun(now)
		assert.Equal(t, time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC), run)
	})

	t.Run("EarlierWeekdayWrapsAround", func(t *testing.T) {
		n := notifierWith(int(time.Monday), 19, 0)
		run := n.nextRun(now)
		assert.Equal(t, time.Date(2026, 8, 31, 19, 0, 0, 0, time.UTC), run)
		assert.Equal(t, time.Monday, run.Weekday())
	})

	t.Run("AlwaysStrictlyInTheFuture", func(t *testing.T) {
		n := notifierWith(int(time.Sunday), 0, 0)
		for day := 0; day < 7; day++ {
			probe := now.AddDate(0, 0, day)
			run := n.nextRun(probe)
			assert.True(t, run.After(probe))
			assert.Equal(t, time.Sunday, run.Weekday())
		}
	})
}
