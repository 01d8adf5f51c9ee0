package trial

import (
	"fmt"
	"time"
)

// FormatTimeAgo renders the age of a trial relative to now, e.g. "42s ago",
// "3m ago", "5h ago", "2d ago". Timestamps in the future count as zero.
func FormatTimeAgo(timestamp int64, now time.Time) string {
	seconds := (now.UnixMilli() - timestamp) / 1000
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	}
	return fmt.Sprintf("%dd ago", seconds/86400)
}

// FormatSessionDuration renders how long the history spans: "45s", "2m 5s", "1h 7m".
func FormatSessionDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}
