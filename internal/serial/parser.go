// Package serial turns the knee brace's newline-delimited text protocol into
// measurements. Lines look like:
//
//	Angle: 45.3 Roll: 1.2 Pitch: -0.8 Yaw: 0.1
//
// Labels are fixed and case-sensitive; values are signed decimals.
package serial

import (
	"regexp"
	"strconv"
)

// Reading is one parsed device sample, before it becomes a stored
// measurement.
type Reading struct {
	Angle float64
	Roll  float64
	Pitch float64
	Yaw   float64
	Raw   string
}

var (
	anglePattern = regexp.MustCompile(`Angle:\s*(-?\d+(?:\.\d+)?)`)
	rollPattern  = regexp.MustCompile(`Roll:\s*(-?\d+(?:\.\d+)?)`)
	pitchPattern = regexp.MustCompile(`Pitch:\s*(-?\d+(?:\.\d+)?)`)
	yawPattern   = regexp.MustCompile(`Yaw:\s*(-?\d+(?:\.\d+)?)`)
)

// ParseLine extracts the four labeled values from one line. All four labels
// must be present and numeric; otherwise the line yields no reading. Parse
// failure is a normal outcome for a garbled or partial line, never an error.
func ParseLine(line string) (Reading, bool) {
	angle, ok := extract(anglePattern, line)
	if !ok {
		return Reading{}, false
	}
	roll, ok := extract(rollPattern, line)
	if !ok {
		return Reading{}, false
	}
	pitch, ok := extract(pitchPattern, line)
	if !ok {
		return Reading{}, false
	}
	yaw, ok := extract(yawPattern, line)
	if !ok {
		return Reading{}, false
	}

	return Reading{
		Angle: angle,
		Roll:  roll,
		Pitch: pitch,
		Yaw:   yaw,
		Raw:   line,
	}, true
}

func extract(pattern *regexp.Regexp, line string) (float64, bool) {
	match := pattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
