package youtube

import (
	"math"
	"regexp"
	"strconv"
)

var isoDurationRE = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// MaxDurationSeconds is the ceiling ParseDuration saturates at.
const MaxDurationSeconds = math.MaxInt32

// ParseDuration decodes an ISO-8601 duration such as PT1M30S into seconds.
// Missing components count as zero and tokens that do not match decode to 0.
// Components too large to represent saturate at MaxDurationSeconds, so an absurd
// duration is never mistaken for a short one.
func ParseDuration(token string) int {
	m := isoDurationRE.FindStringSubmatch(token)
	if m == nil {
		return 0
	}

	var total int64
	for i, factor := range []int64{1, 24, 60, 60} {
		n, ok := component(m[i+1])
		if !ok {
			return MaxDurationSeconds
		}
		total = total*factor + n
		if total > MaxDurationSeconds {
			return MaxDurationSeconds
		}
	}
	return int(total)
}

// component decodes one numeric field; false means it overflowed.
func component(s string) (int64, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n > MaxDurationSeconds {
		return 0, false
	}
	return n, true
}

// parseCount decodes the provider's decimal-string counters, treating missing or
// malformed values as zero.
func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
