package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts standard five-field cron expressions.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks if a cron schedule string is valid.
func ValidateCronSchedule(schedule string) error {
	_, err := scheduleParser.Parse(schedule)
	return err
}

// NextRunTime calculates when a schedule fires next after from.
func NextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := scheduleParser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// CronDescription returns a human-readable description of a cron schedule.
func CronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 6 * * *":
		return "Daily at 06:00"
	case "30 3 * * *":
		return "Daily at 03:30"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}
