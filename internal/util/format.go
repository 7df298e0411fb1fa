package util

import (
	"fmt"
	"time"
)

// FormatDuration formats a duration as m:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	m := total / 60
	s := total % 60
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatRate formats a frame rate with one decimal.
func FormatRate(fps float64) string {
	if fps < 0 {
		fps = 0
	}
	return fmt.Sprintf("%.1f fps", fps)
}

// FormatSeconds formats a duration as seconds with one decimal.
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
