package shared

import (
	"time"
)

// TimestampLayout is the layout used for timestamped output directories.
const TimestampLayout = "2006-01-02_1504"

// Timestamp returns the shared timestamp for a run's output directory.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
