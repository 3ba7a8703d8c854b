package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numericStrip = regexp.MustCompile(`[^0-9.\-]`)

// Finite coerces a heterogeneously-encoded stored value into a finite float.
// Nil pointers, empty strings, unparseable strings and non-finite results all
// degrade to nil rather than an error; historical rows must never break the
// read path.
func Finite(raw any) *float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case *float64:
		if v == nil {
			return nil
		}
		return Finite(*v)
	case *string:
		if v == nil {
			return nil
		}
		return Finite(*v)
	case *int:
		if v == nil {
			return nil
		}
		return Finite(float64(*v))
	case float64:
		return finiteOrNil(v)
	case float32:
		return finiteOrNil(float64(v))
	case int:
		return finiteOrNil(float64(v))
	case int32:
		return finiteOrNil(float64(v))
	case int64:
		return finiteOrNil(float64(v))
	case uint:
		return finiteOrNil(float64(v))
	case json.Number:
		return Finite(v.String())
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return finiteOrNil(f)
	default:
		return nil
	}
}

func finiteOrNil(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// NormalizeNumeric coerces price-like stored values into a number. Direct
// coercion is tried first; failing that, everything except digits, '.' and '-'
// is stripped and the parse retried. The fallback is 0, never nil: sorting and
// arithmetic downstream depend on a number being present.
func NormalizeNumeric(raw any) float64 {
	if f := Finite(raw); f != nil {
		return *f
	}

	var s string
	switch v := raw.(type) {
	case nil:
		return 0
	case string:
		s = v
	case *string:
		if v == nil {
			return 0
		}
		s = *v
	default:
		s = fmt.Sprintf("%v", raw)
	}

	s = numericStrip.ReplaceAllString(s, "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// NormalizeStringArray resolves the stored representation of images/features
// into an ordered string slice. The same logical field has been written as
// JSON arrays, bare strings and NULLs by different producers over time, so the
// fallbacks are layered: JSON array, JSON scalar, then the trimmed original
// string as a single element. Malformed data never produces an error.
func NormalizeStringArray(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return []string{}
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, stringify(e))
		}
		return out
	case *string:
		if v == nil {
			return []string{}
		}
		return NormalizeStringArray(*v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return []string{}
		}
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err == nil {
			switch p := parsed.(type) {
			case []any:
				out := make([]string, 0, len(p))
				for _, e := range p {
					out = append(out, stringify(e))
				}
				return out
			case nil:
				return []string{}
			default:
				return []string{stringify(p)}
			}
		}
		return []string{s}
	default:
		return []string{stringify(v)}
	}
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
