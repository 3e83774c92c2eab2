package lending

import "time"

const day = 24 * time.Hour

// CalculateFine charges perDay for every whole day returned is past due.
// Returning on or before the due date, or less than a full day late, costs
// nothing.
func CalculateFine(due, returned time.Time, perDay int) int {
	if !returned.After(due) {
		return 0
	}
	daysLate := int(returned.Sub(due) / day)
	return daysLate * perDay
}
