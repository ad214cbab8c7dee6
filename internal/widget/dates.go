package widget

import (
	"time"

	"finndex/internal/domain"
)

// DefaultWindowDays is how many options a date selector holds.
const DefaultWindowDays = 365

// BuildDateOptions returns windowDays consecutive calendar days, oldest
// first, where the newest is offsetDays before today's local calendar day.
func BuildDateOptions(today time.Time, offsetDays, windowDays int) []string {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if offsetDays < 0 {
		offsetDays = 0
	}

	// Noon keeps AddDate on the right day across DST transitions.
	y, m, d := today.Date()
	anchor := time.Date(y, m, d, 12, 0, 0, 0, today.Location())

	dates := make([]string, 0, windowDays)
	for i := offsetDays + windowDays - 1; i >= offsetDays; i-- {
		dates = append(dates, domain.FormatDate(anchor.AddDate(0, 0, -i)))
	}
	return dates
}
