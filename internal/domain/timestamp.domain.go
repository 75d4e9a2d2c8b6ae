package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Timestamp carries the date representations that show up inside stored
// draft payloads: RFC3339 strings, unix-millisecond numbers, and
// {"seconds":..,"nanos":..} objects from older client builds. It is a
// tagged union; Normalize is the only way to get a canonical time out.
type Timestamp struct {
	kind tsKind

	str     string
	millis  int64
	seconds int64
	nanos   int64
}

type tsKind int

const (
	tsUnset tsKind = iota
	tsRFC3339
	tsUnixMillis
	tsSecondsNanos
)

var ErrUnknownTimestamp = errors.New("unrecognized timestamp representation")

func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp{kind: tsRFC3339, str: t.UTC().Format(time.RFC3339Nano)}
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		t.kind = tsRFC3339
		t.str = s
		return nil
	}

	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		t.kind = tsUnixMillis
		t.millis = ms
		return nil
	}

	var obj struct {
		Seconds *int64 `json:"seconds"`
		Nanos   int64  `json:"nanos"`
	}
	if err := json.Unmarshal(b, &obj); err == nil && obj.Seconds != nil {
		t.kind = tsSecondsNanos
		t.seconds = *obj.Seconds
		t.nanos = obj.Nanos
		return nil
	}

	return ErrUnknownTimestamp
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	norm, err := t.Normalize()
	if err != nil {
		return nil, err
	}
	return json.Marshal(norm.UTC().Format(time.RFC3339Nano))
}

// Normalize converts any stored representation to a canonical UTC time.
func (t Timestamp) Normalize() (time.Time, error) {
	switch t.kind {
	case tsRFC3339:
		parsed, err := time.Parse(time.RFC3339Nano, t.str)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339, t.str)
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", t.str, ErrUnknownTimestamp)
		}
		return parsed.UTC(), nil
	case tsUnixMillis:
		return time.UnixMilli(t.millis).UTC(), nil
	case tsSecondsNanos:
		return time.Unix(t.seconds, t.nanos).UTC(), nil
	default:
		return time.Time{}, ErrUnknownTimestamp
	}
}

func (t Timestamp) IsZero() bool {
	return t.kind == tsUnset
}

// CanonicalizeTimestamps rewrites date-valued wizard answers (keys ending
// in "_at" or "_date") to canonical RFC3339 UTC strings, whatever
// representation the client stored them in. Values that parse as none of
// the known representations are left untouched rather than rejected; the
// draft is the client's scratch space.
func CanonicalizeTimestamps(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
		if v == nil || !timestampKey(k) {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			continue
		}
		var ts Timestamp
		if err := json.Unmarshal(raw, &ts); err != nil {
			continue
		}
		norm, err := ts.Normalize()
		if err != nil {
			continue
		}
		out[k] = norm.Format(time.RFC3339Nano)
	}
	return out
}

func timestampKey(k string) bool {
	return strings.HasSuffix(k, "_at") || strings.HasSuffix(k, "_date")
}
