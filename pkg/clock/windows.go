package clock

import "time"

// SlotDue reports whether a scheduled instant has arrived, tolerating a
// match window before it. A tick that lands up to window early
// still fires (so slow cron cadence doesn't skip a slot), and any tick at
// or after the slot fires too — the result is stable once true, since the
// caller consumes the slot (pops it, marks the task in progress, etc.)
// on the same tick.
func SlotDue(slot time.Time, now time.Time, window time.Duration) bool {
	return !now.Before(slot.Add(-window))
}

// IsKickOffReminderTime reports whether the PRE_KICK_OFF_REMINDER task is
// due: reminderOffset before the release's kick-off date.
func IsKickOffReminderTime(kickOffDate time.Time, reminderOffset time.Duration, now time.Time, window time.Duration) bool {
	return SlotDue(kickOffDate.Add(-reminderOffset), now, window)
}

// IsBranchForkTime reports whether FORK_BRANCH is due: at the release's
// kick-off date.
func IsBranchForkTime(kickOffDate time.Time, now time.Time, window time.Duration) bool {
	return SlotDue(kickOffDate, now, window)
}

// IsRegressionSlotTime reports whether a scheduled regression-cycle slot
// (the head of CronJob.UpcomingRegressions) is due.
func IsRegressionSlotTime(slotTime time.Time, now time.Time, window time.Duration) bool {
	return SlotDue(slotTime, now, window)
}
