package stats

import (
	"strings"

	"github.com/YuminosukeSato/atomscale/pkg/errors"
)

const datasetPrefix = "dataset_"

// Granularity is the aggregation level of a statistic.
type Granularity int

const (
	// Global aggregates over every selected value of the field.
	Global Granularity = iota
	// PerSpecies aggregates separately for each atom type.
	PerSpecies
	// PerAtom normalizes a per-frame field by the frame's atom count first.
	PerAtom
)

// Prefix returns the request/mode prefix of g ("" for Global).
func (g Granularity) Prefix() string {
	switch g {
	case PerSpecies:
		return "per_species_"
	case PerAtom:
		return "per_atom_"
	default:
		return ""
	}
}

func (g Granularity) String() string {
	switch g {
	case PerSpecies:
		return "per_species"
	case PerAtom:
		return "per_atom"
	default:
		return "global"
	}
}

// Kind is the statistic requested.
type Kind int

const (
	KindMean Kind = iota
	KindStd
	KindRMS
)

func (k Kind) String() string {
	switch k {
	case KindStd:
		return "std"
	case KindRMS:
		return "rms"
	default:
		return "mean"
	}
}

// TupleIndex is the position of k within the result tuple of its mode.
// mean and std share one (mean, std) tuple; rms is a 1-tuple.
func (k Kind) TupleIndex() int {
	if k == KindStd {
		return 1
	}
	return 0
}

func parseKind(s string) (Kind, bool) {
	switch s {
	case "mean":
		return KindMean, true
	case "std":
		return KindStd, true
	case "rms":
		return KindRMS, true
	}
	return 0, false
}

// Request is a parsed statistic request such as "dataset_per_species_forces_rms".
type Request struct {
	Raw         string
	Granularity Granularity
	Field       string
	Kind        Kind
}

// ParseRequest tokenizes a statistic request string.
//
// Grammar: [dataset_] [per_species_ | per_atom_] field _ (mean|std|rms).
// The field may itself contain underscores; only the last token is the kind.
func ParseRequest(raw string) (Request, error) {
	name := strings.TrimPrefix(raw, datasetPrefix)

	granularity := Global
	switch {
	case strings.HasPrefix(name, PerSpecies.Prefix()):
		name = strings.TrimPrefix(name, PerSpecies.Prefix())
		granularity = PerSpecies
	case strings.HasPrefix(name, PerAtom.Prefix()):
		name = strings.TrimPrefix(name, PerAtom.Prefix())
		granularity = PerAtom
	}
	if granularity != Global &&
		(strings.HasPrefix(name, PerSpecies.Prefix()) || strings.HasPrefix(name, PerAtom.Prefix())) {
		return Request{}, errors.NewInvalidStatRequestError(raw, "per_species_ and per_atom_ are mutually exclusive")
	}

	cut := strings.LastIndex(name, "_")
	kindToken, field := name, ""
	if cut >= 0 {
		field, kindToken = name[:cut], name[cut+1:]
	}
	kind, ok := parseKind(kindToken)
	if !ok {
		return Request{}, errors.NewUnsupportedStatisticKindError(raw, kindToken)
	}
	if field == "" {
		return Request{}, errors.NewInvalidStatRequestError(raw, "empty field name")
	}

	return Request{Raw: raw, Granularity: granularity, Field: field, Kind: kind}, nil
}

// Mode returns the aggregation mode that computes r.
func (r Request) Mode() Mode {
	if r.Kind == KindRMS {
		return Mode(r.Granularity.Prefix() + "rms")
	}
	return Mode(r.Granularity.Prefix() + "mean_std")
}

// String reassembles the canonical form, without the dataset_ prefix.
func (r Request) String() string {
	return r.Granularity.Prefix() + r.Field + "_" + r.Kind.String()
}

// Mode identifies one statistics pass over a field.
type Mode string

const (
	ModeMeanStd           Mode = "mean_std"
	ModeRMS               Mode = "rms"
	ModePerSpeciesMeanStd Mode = "per_species_mean_std"
	ModePerSpeciesRMS     Mode = "per_species_rms"
	ModePerAtomMeanStd    Mode = "per_atom_mean_std"
	ModePerAtomRMS        Mode = "per_atom_rms"
)

// IsRMS reports whether m is one of the rms modes.
func (m Mode) IsRMS() bool {
	return strings.HasSuffix(string(m), "rms")
}

// TupleLen is the number of values a provider returns for m.
func (m Mode) TupleLen() int {
	if m.IsRMS() {
		return 1
	}
	return 2
}

// Granularity returns the aggregation level of m.
func (m Mode) Granularity() Granularity {
	switch {
	case strings.HasPrefix(string(m), PerSpecies.Prefix()):
		return PerSpecies
	case strings.HasPrefix(string(m), PerAtom.Prefix()):
		return PerAtom
	default:
		return Global
	}
}

// Valid reports whether m is one of the six known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeMeanStd, ModeRMS, ModePerSpeciesMeanStd, ModePerSpeciesRMS, ModePerAtomMeanStd, ModePerAtomRMS:
		return true
	}
	return false
}
