package manifest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Duration is a time span that decodes from either integer seconds
// (kill_timeout = 30) or a duration string (kill_timeout = "30s").
// It always encodes as a duration string.
type Duration struct {
	time.Duration
}

// Seconds returns a Duration of n seconds.
func Seconds(n int) Duration {
	return Duration{time.Duration(n) * time.Second}
}

// maxSeconds is the largest whole number of seconds a time.Duration holds.
const maxSeconds = math.MaxInt64 / int64(time.Second)

// FromSeconds converts n seconds to a time.Duration. It fails instead of
// wrapping when n is out of range.
func FromSeconds(n int64) (time.Duration, error) {
	if n > maxSeconds || n < -maxSeconds {
		return 0, fmt.Errorf("duration of %d seconds is out of range", n)
	}
	return time.Duration(n) * time.Second, nil
}

func fromFloatSeconds(f float64) (time.Duration, error) {
	if math.IsNaN(f) || f > float64(maxSeconds) || f < -float64(maxSeconds) {
		return 0, fmt.Errorf("duration of %v seconds is out of range", f)
	}
	return time.Duration(f * float64(time.Second)), nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (d *Duration) UnmarshalTOML(v any) error {
	var err error
	switch val := v.(type) {
	case int64:
		d.Duration, err = FromSeconds(val)
	case float64:
		d.Duration, err = fromFloatSeconds(val)
	case string:
		d.Duration, err = parseDuration(val)
	default:
		return fmt.Errorf("invalid duration %v: must be seconds or a duration string", v)
	}
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case float64:
		parsed, err := fromFloatSeconds(val)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	case string:
		parsed, err := parseDuration(val)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration %s: must be seconds or a duration string", string(data))
	}
}

// parseDuration accepts bare integer seconds as well as Go duration strings.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return FromSeconds(n)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
