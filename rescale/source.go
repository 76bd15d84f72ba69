package rescale

import (
	"fmt"

	"github.com/YuminosukeSato/atomscale/config"
	"github.com/YuminosukeSato/atomscale/pkg/errors"
	"github.com/YuminosukeSato/atomscale/stats"
)

// SourceKind tags a Source.
type SourceKind int

const (
	// SourceDisabled means the rescale is turned off (config null).
	SourceDisabled SourceKind = iota
	// SourceRequest is a statistic request resolved against the dataset.
	SourceRequest
	// SourceLiteral is a scalar given directly in the config.
	SourceLiteral
	// SourceLiteralVector is a vector given directly in the config.
	SourceLiteralVector
)

func (k SourceKind) String() string {
	switch k {
	case SourceRequest:
		return "request"
	case SourceLiteral:
		return "literal"
	case SourceLiteralVector:
		return "literal_vector"
	default:
		return "disabled"
	}
}

// Source says where a scale or shift comes from.
type Source struct {
	kind    SourceKind
	request string
	value   stats.Value
}

// Disabled returns the null source.
func Disabled() Source { return Source{kind: SourceDisabled} }

// FromRequest returns a source resolved from a statistic request.
func FromRequest(request string) Source { return Source{kind: SourceRequest, request: request} }

// Literal returns a scalar source.
func Literal(x float64) Source { return Source{kind: SourceLiteral, value: stats.Scalar(x)} }

// LiteralVector returns a vector source.
func LiteralVector(xs []float64) Source {
	return Source{kind: SourceLiteralVector, value: stats.Vector(xs)}
}

// Kind returns the source tag.
func (s Source) Kind() SourceKind { return s.kind }

// IsDisabled reports whether s is null.
func (s Source) IsDisabled() bool { return s.kind == SourceDisabled }

// Request returns the statistic request of a SourceRequest, or "".
func (s Source) Request() string { return s.request }

// Value returns the literal value, or none for requests and disabled sources.
func (s Source) Value() stats.Value { return s.value }

func (s Source) String() string {
	switch s.kind {
	case SourceRequest:
		return s.request
	case SourceLiteral, SourceLiteralVector:
		return s.value.String()
	default:
		return "null"
	}
}

// ParseSource interprets a config value: a string is a statistic request, a
// number a scalar, a sequence of numbers a vector, nil disables. Anything
// else is an InvalidScaleSourceTypeError naming key.
func ParseSource(key string, v interface{}) (Source, error) {
	switch x := v.(type) {
	case nil:
		return Disabled(), nil
	case string:
		return FromRequest(x), nil
	case Source:
		return x, nil
	case stats.Value:
		switch {
		case x.IsNone():
			return Disabled(), nil
		case x.IsScalar():
			return Literal(x.Float()), nil
		default:
			return LiteralVector(x.Floats()), nil
		}
	case []float64:
		return LiteralVector(x), nil
	case []interface{}:
		xs := make([]float64, len(x))
		for i, e := range x {
			f, ok := toFloat(e)
			if !ok {
				return Source{}, errors.NewInvalidScaleSourceTypeError(fmt.Sprintf("%s[%d]", key, i), e)
			}
			xs[i] = f
		}
		return LiteralVector(xs), nil
	}
	if f, ok := toFloat(v); ok {
		return Literal(f), nil
	}
	return Source{}, errors.NewInvalidScaleSourceTypeError(key, v)
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}

// sourceFromConfig reads key from cfg, falling back to def only when the key
// is absent. An explicit null disables the source.
func sourceFromConfig(cfg *config.Config, key string, def Source) (Source, error) {
	v, ok := cfg.Get(key)
	if !ok {
		return def, nil
	}
	return ParseSource(key, v)
}

// collectRequests returns the distinct statistic requests of sources in
// order of first appearance.
func collectRequests(sources ...Source) []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range sources {
		if s.kind != SourceRequest || seen[s.request] {
			continue
		}
		seen[s.request] = true
		out = append(out, s.request)
	}
	return out
}

// substitute maps each source to its value: resolved for requests, literal
// otherwise. resolved is aligned with requests.
func substitute(s Source, requests []string, resolved []stats.Value) stats.Value {
	if s.kind != SourceRequest {
		return s.value
	}
	for i, r := range requests {
		if r == s.request {
			return resolved[i]
		}
	}
	return stats.None()
}

// placeholder returns v for configured sources and none for disabled ones.
func placeholder(s Source, v float64) stats.Value {
	if s.IsDisabled() {
		return stats.None()
	}
	return stats.Scalar(v)
}
