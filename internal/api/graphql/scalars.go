package graphql

import (
	"fmt"
	"strconv"
	"time"

	"github.com/feral-file/ff-ledger/internal/api/shared/constants"
)

// MarshalTime serializes a Time scalar in UTC
func MarshalTime(t time.Time) string {
	return t.UTC().Format(constants.TIME_FORMAT)
}

// UnmarshalTime parses a Time scalar input; a nil value means the argument was omitted
func UnmarshalTime(name string, v any) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("invalid %s: expected a string, got %T", name, v)
	}
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{constants.TIME_FORMAT, constants.DATE_FORMAT} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s: expected RFC 3339 timestamp or YYYY-MM-DD date", name)
}

// MarshalUint64 writes counters as strings to avoid JavaScript number precision issues
func MarshalUint64(n int64) string {
	if n < 0 {
		n = 0
	}
	return strconv.FormatUint(uint64(n), 10)
}
