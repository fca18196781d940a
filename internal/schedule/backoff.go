package schedule

import "time"

const maxBackoffShift = 16

// RetryDelay returns the wait before the next attempt: base doubled for each
// failure already on the books. attempt is the 1-based number of the attempt
// that just failed.
func RetryDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return base << shift
}
