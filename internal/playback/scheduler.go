package playback

import "time"

// CancelFunc cancels a scheduled tick. It is safe to call more than once.
type CancelFunc func()

// Scheduler schedules the next playback tick after a delay. The engine
// schedules at most one tick at a time; tests substitute a manual
// implementation to drive ticks deterministically without wall-clock waits.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) CancelFunc
}

// TimerScheduler schedules ticks on real timers.
type TimerScheduler struct{}

// Schedule runs fn after delay unless cancelled first.
func (TimerScheduler) Schedule(delay time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(delay, fn)
	return func() { t.Stop() }
}
