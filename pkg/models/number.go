package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a lenient numeric form value. It accepts a JSON number or a
// numeric string; anything else (missing, null, empty, non-numeric) decodes
// to 0 instead of failing the request.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*n = 0
			return nil
		}
		*n = parseNumber(s)
		return nil
	}

	*n = parseNumber(string(b))
	return nil
}

func (n Number) Float() float64 {
	return float64(n)
}

// Int truncates toward zero, the way an integer form field is read. Values
// outside the int32 range read as 0.
func (n Number) Int() int {
	f := float64(n)
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}

func parseNumber(s string) Number {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Number(f)
}
