package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FormatBytes renders n with a 1024 base and at most two decimals,
// e.g. 1536 -> "1.5 KB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	v, i := float64(n), 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + " " + byteUnits[i]
}

// FormatTTL renders a TTL in seconds. -1 means no expiration and anything
// lower means the key is gone.
func FormatTTL(ttl int64) string {
	switch {
	case ttl == -1:
		return "No expiration"
	case ttl < -1:
		return "Expired"
	case ttl == 1:
		return "1 second"
	}
	return fmt.Sprintf("%d seconds (%s)", ttl, FormatDuration(time.Duration(ttl)*time.Second))
}

// FormatDuration renders d as "1d 2h 3m 4s". Zero units other than
// seconds are omitted.
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs <= 0 {
		return "0s"
	}
	days := secs / 86400
	hours := (secs % 86400) / 3600
	mins := (secs % 3600) / 60
	secs %= 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%dm", mins))
	}
	parts = append(parts, fmt.Sprintf("%ds", secs))
	return strings.Join(parts, " ")
}

// FormatRatio renders a numeric string with two decimals; anything that does
// not parse is returned unchanged.
func FormatRatio(s string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
