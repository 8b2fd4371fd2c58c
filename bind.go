package livetune

import (
	"strconv"
	"strings"
	"time"
)

// binding pairs a parameter name with a typed program variable. The
// orchestrator exclusively owns its binding table; a binding lives from
// Bind* until Unbind/UnbindAll or owner teardown.
type binding interface {
	// apply parses raw into the bound variable. On conversion failure it
	// leaves the variable untouched and returns false.
	apply(raw string) bool
	// applyDefault resets the bound variable to its declared default.
	applyDefault()
}

// slot is the single generic implementation behind the typed Bind methods.
type slot[T any] struct {
	ptr     *T
	def     T
	convert func(string) (T, bool)
}

func (s *slot[T]) apply(raw string) bool {
	v, ok := s.convert(raw)
	if !ok {
		return false
	}
	*s.ptr = v
	return true
}

func (s *slot[T]) applyDefault() {
	*s.ptr = s.def
}

func newSlot[T any](ptr *T, def T, convert func(string) (T, bool)) *slot[T] {
	return &slot[T]{ptr: ptr, def: def, convert: convert}
}

// Boolean literals accepted by ConvertBool, lowercase.
var (
	boolTrueLiterals  = []string{"true", "yes", "1", "on"}
	boolFalseLiterals = []string{"false", "no", "0", "off"}
)

// ConvertBool parses s as a boolean. Accepted literals are true/yes/1/on
// and false/no/0/off, case-insensitive.
func ConvertBool(s string) (bool, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, lit := range boolTrueLiterals {
		if s == lit {
			return true, true
		}
	}
	for _, lit := range boolFalseLiterals {
		if s == lit {
			return false, true
		}
	}
	return false, false
}

// ConvertInt parses s as an int. Values written as floats are truncated.
func ConvertInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), true
	}
	return 0, false
}

// ConvertInt64 parses s as an int64. Values written as floats are truncated.
func ConvertInt64(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

// ConvertFloat64 parses s as a float64.
func ConvertFloat64(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ConvertString returns s with one level of surrounding quotes removed.
// Both double and single quotes are recognized. Never fails.
func ConvertString(s string) (string, bool) {
	return unquote(strings.TrimSpace(s)), true
}

// ConvertDuration parses s with time.ParseDuration. A bare number is
// rejected; units are required ("250ms", "1.5s").
func ConvertDuration(s string) (time.Duration, bool) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return d, true
}

// unquote strips one matching pair of surrounding quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Scalar is the set of value types parameters convert to.
type Scalar interface {
	bool | int | int64 | float64 | string
}

// convertScalar parses raw into the scalar type T using the matching
// Convert function.
func convertScalar[T Scalar](raw string) (T, bool) {
	var out T
	ok := false
	switch p := any(&out).(type) {
	case *bool:
		*p, ok = ConvertBool(raw)
	case *int:
		*p, ok = ConvertInt(raw)
	case *int64:
		*p, ok = ConvertInt64(raw)
	case *float64:
		*p, ok = ConvertFloat64(raw)
	case *string:
		*p, ok = ConvertString(raw)
	}
	if !ok {
		var zero T
		return zero, false
	}
	return out, true
}
