package stats

import (
	"github.com/YuminosukeSato/atomscale/pkg/errors"
)

// Slot is one deduplicated statistics computation.
type Slot struct {
	Field string
	Mode  Mode
}

func (s Slot) key() string {
	// Mode already carries the granularity prefix, so the field and the
	// prefixed mode together identify a computation.
	return s.Field + "\x00" + string(s.Mode)
}

// Index locates the value of one request inside the provider results.
type Index struct {
	Slot  int
	Tuple int
}

// Plan is the deduplicated set of computations for a list of requests
// together with the index map that reconstructs each request's value.
type Plan struct {
	Requests []Request
	Slots    []Slot
	Index    []Index
}

// NewPlan parses every request and collapses them into slots. mean and std
// of the same field and granularity share one mean_std slot. No request is
// accepted unless all of them parse.
func NewPlan(requests []string) (*Plan, error) {
	p := &Plan{
		Requests: make([]Request, 0, len(requests)),
		Index:    make([]Index, 0, len(requests)),
	}
	seen := make(map[string]int, len(requests))

	for _, raw := range requests {
		req, err := ParseRequest(raw)
		if err != nil {
			return nil, err
		}
		slot := Slot{Field: req.Field, Mode: req.Mode()}
		id, ok := seen[slot.key()]
		if !ok {
			id = len(p.Slots)
			seen[slot.key()] = id
			p.Slots = append(p.Slots, slot)
		}
		p.Requests = append(p.Requests, req)
		p.Index = append(p.Index, Index{Slot: id, Tuple: req.Kind.TupleIndex()})
	}
	return p, nil
}

// Fields returns the field of every slot, in slot order.
func (p *Plan) Fields() []string {
	out := make([]string, len(p.Slots))
	for i, s := range p.Slots {
		out[i] = s.Field
	}
	return out
}

// Modes returns the mode of every slot, in slot order.
func (p *Plan) Modes() []Mode {
	out := make([]Mode, len(p.Slots))
	for i, s := range p.Slots {
		out[i] = s.Mode
	}
	return out
}

// Gather picks each request's value out of the provider results after
// checking that they match the plan's shape.
func (p *Plan) Gather(results [][]Value) ([]Value, error) {
	if len(results) != len(p.Slots) {
		return nil, errors.NewStatisticsShapeError("", "", len(p.Slots), len(results))
	}
	for i, s := range p.Slots {
		if len(results[i]) != s.Mode.TupleLen() {
			return nil, errors.NewStatisticsShapeError(s.Field, string(s.Mode), s.Mode.TupleLen(), len(results[i]))
		}
	}

	out := make([]Value, len(p.Index))
	for i, idx := range p.Index {
		out[i] = results[idx.Slot][idx.Tuple]
	}
	return out, nil
}
