package utils

import (
	"math"
	"strconv"
)

var byteUnits = []string{"B", "KB", "MB", "GB"}

// FormatBytes renders a byte count for display: base 1024, one decimal,
// trailing ".0" dropped ("0 B", "10 KB", "1.5 MB").
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	const k = 1024.0
	i := int(math.Floor(math.Log(float64(n)) / math.Log(k)))
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}
	v := float64(n) / math.Pow(k, float64(i))
	v = math.Round(v*10) / 10
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}
