// Package timex provides duration helpers shared by the config layers.
package timex

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var lifetimeRe = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseLifetime parses a token lifetime such as "15m" or "30d".
// Anything time.ParseDuration accepts is accepted too.
func ParseLifetime(s string) (time.Duration, error) {
	if m := lifetimeRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid lifetime %q: %w", s, err)
		}
		unit := time.Second
		switch m[2] {
		case "m":
			unit = time.Minute
		case "h":
			unit = time.Hour
		case "d":
			unit = 24 * time.Hour
		}
		return time.Duration(n) * unit, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid lifetime %q: %w", s, err)
	}
	return d, nil
}

// Duration wraps time.Duration so that it can be read from JSON either as a
// lifetime string ("1s", "30d") or as integer nanoseconds, and from
// environment variables as text.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		return d.UnmarshalText([]byte(value))
	default:
		return errors.New("invalid duration")
	}
}

func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := ParseLifetime(string(b))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MinutesUntil returns the whole minutes from now until t, rounded up.
// A past t yields 0.
func MinutesUntil(now, t time.Time) int {
	left := t.Sub(now)
	if left <= 0 {
		return 0
	}
	m := left / time.Minute
	if left%time.Minute != 0 {
		m++
	}
	return int(m)
}
