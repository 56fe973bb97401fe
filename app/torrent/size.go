package torrent

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var unitMultipliers = map[string]float64{
	"B":   1,
	"KB":  1e3,
	"MB":  1e6,
	"GB":  1e9,
	"TB":  1e12,
	"KiB": 1 << 10,
	"MiB": 1 << 20,
	"GiB": 1 << 30,
	"TiB": 1 << 40,
}

// ParseSize converts a number and unit into bytes. KB..TB are powers of
// 1000, KiB..TiB powers of 1024. The result is truncated.
func ParseSize(num, unit string) (int64, error) {
	num = strings.ReplaceAll(strings.TrimSpace(num), ",", "")
	unit = strings.TrimSpace(unit)

	multiplier, ok := unitMultipliers[unit]
	if !ok {
		return 0, fmt.Errorf("unknown size unit %q", unit)
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil || value < 0 || math.IsNaN(value) {
		return 0, fmt.Errorf("invalid size number %q", num)
	}

	bytes := value * multiplier
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("size %s %s out of range", num, unit)
	}
	return int64(bytes), nil
}

// ParseDecimalSize reads a size from a tracker that labels decimal units
// with an iB suffix ("2.50 GiB" meaning 2.5e9).
func ParseDecimalSize(num, unit string) (int64, error) {
	return ParseSize(num, strings.Replace(strings.TrimSpace(unit), "iB", "B", 1))
}

// ParseBinarySize reads a size from a tracker that uses binary units but may
// omit the i ("1.5 GB" meaning 1.5 GiB).
func ParseBinarySize(num, unit string) (int64, error) {
	unit = strings.TrimSpace(unit)
	if len(unit) == 2 && unit != "iB" && strings.HasSuffix(unit, "B") {
		unit = unit[:1] + "iB"
	}
	return ParseSize(num, unit)
}
