package data

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/atomscale/core/parallel"
	"github.com/YuminosukeSato/atomscale/pkg/errors"
	"github.com/YuminosukeSato/atomscale/pkg/log"
	"github.com/YuminosukeSato/atomscale/stats"
)

// parallelSlotThreshold is the number of requested statistics above which
// slots are computed concurrently.
const parallelSlotThreshold = 2

// InMemoryDataset is a list of frames held in memory. It implements
// stats.Provider.
type InMemoryDataset struct {
	frames    []Frame
	numTypes  int
	typeNames []string
	logger    log.Logger
}

// NewInMemoryDataset validates frames and wraps them. numTypes <= 0 infers
// the number of species from the largest atom type present.
func NewInMemoryDataset(frames []Frame, numTypes int, typeNames []string) (*InMemoryDataset, error) {
	if len(frames) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "NewInMemoryDataset")
	}
	if numTypes <= 0 {
		for _, f := range frames {
			for _, t := range f.AtomTypes {
				if t+1 > numTypes {
					numTypes = t + 1
				}
			}
		}
	}
	if len(typeNames) > 0 && len(typeNames) != numTypes {
		return nil, errors.NewValidationError("type_names", fmt.Sprintf("expected %d names", numTypes), typeNames)
	}
	for i := range frames {
		if err := frames[i].validate(i, numTypes); err != nil {
			return nil, err
		}
	}
	return &InMemoryDataset{
		frames:    frames,
		numTypes:  numTypes,
		typeNames: typeNames,
		logger:    log.GetLogger(),
	}, nil
}

// SetLogger replaces the logger used for statistics passes.
func (d *InMemoryDataset) SetLogger(l log.Logger) {
	d.logger = l
}

// Len returns the number of frames.
func (d *InMemoryDataset) Len() int { return len(d.frames) }

// NumTypes returns the number of species.
func (d *InMemoryDataset) NumTypes() int { return d.numTypes }

// TypeNames returns the species names, if known.
func (d *InMemoryDataset) TypeNames() []string { return d.typeNames }

// Frame returns frame i.
func (d *InMemoryDataset) Frame(i int) *Frame { return &d.frames[i] }

// Statistics implements stats.Provider. Each (field, mode) pair is an
// independent pass over frames 0, stride, 2*stride, ...; passes may run
// concurrently and each writes only its own result slot.
func (d *InMemoryDataset) Statistics(fields []string, modes []stats.Mode, stride int) ([][]stats.Value, error) {
	if len(fields) != len(modes) {
		return nil, errors.NewValueError("InMemoryDataset.Statistics",
			fmt.Sprintf("%d fields but %d modes", len(fields), len(modes)))
	}
	if stride < 1 {
		return nil, errors.NewValidationError("stride", "must be a positive integer", stride)
	}

	selected := d.sample(stride)
	d.logger.Debug("dataset statistics pass",
		log.ComponentKey, "data",
		log.OperationKey, log.OperationStatistic,
		log.FramesKey, len(d.frames),
		log.FramesUsedKey, len(selected),
		log.SlotsKey, len(fields),
	)
	if stride > 1 && len(selected) < 2 && len(d.frames) > 1 {
		errors.Warn(errors.NewSamplingWarning(stride, len(d.frames), len(selected)))
	}

	results := make([][]stats.Value, len(fields))
	errs := make([]error, len(fields))
	parallel.ForEach(len(fields), parallelSlotThreshold, func(i int) {
		results[i], errs[i] = d.statistic(selected, CanonicalField(fields[i]), modes[i])
		if errs[i] != nil {
			errs[i] = errors.Wrapf(errs[i], "%s/%s", fields[i], modes[i])
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (d *InMemoryDataset) sample(stride int) []*Frame {
	out := make([]*Frame, 0, (len(d.frames)+stride-1)/stride)
	for i := 0; i < len(d.frames); i += stride {
		out = append(out, &d.frames[i])
	}
	return out
}

// fieldKind reports whether field is a graph or node field. Every selected
// frame must carry it with the same kind.
func fieldKind(frames []*Frame, field string) (isNode bool, err error) {
	for i, f := range frames {
		_, g := f.Graph[field]
		_, n := f.Node[field]
		switch {
		case !g && !n:
			return false, errors.NewValidationError("field", fmt.Sprintf("not present in sampled frame %d", i), field)
		case i == 0:
			isNode = n
		case n != isNode:
			return false, errors.NewValidationError("field", "mixes per-frame and per-atom values", field)
		}
	}
	return isNode, nil
}

func (d *InMemoryDataset) statistic(frames []*Frame, field string, mode stats.Mode) ([]stats.Value, error) {
	if !mode.Valid() {
		return nil, errors.NewValueError("InMemoryDataset.Statistics", fmt.Sprintf("unknown mode %q", mode))
	}
	isNode, err := fieldKind(frames, field)
	if err != nil {
		return nil, err
	}

	switch mode.Granularity() {
	case stats.PerAtom:
		if isNode {
			return nil, errors.NewValidationError("field", "per_atom statistics need a per-frame field", field)
		}
		x := make([]float64, len(frames))
		for i, f := range frames {
			x[i] = f.Graph[field] / float64(f.NumAtoms())
		}
		return scalarStatistic(x, mode), nil

	case stats.PerSpecies:
		if isNode {
			return d.perSpeciesNode(frames, field, mode), nil
		}
		if mode.IsRMS() {
			return nil, errors.NewValidationError("field", "per_species_rms is only defined for per-atom fields", field)
		}
		return d.perSpeciesGraph(frames, field)

	default:
		return scalarStatistic(flatten(frames, field, isNode), mode), nil
	}
}

func flatten(frames []*Frame, field string, isNode bool) []float64 {
	var x []float64
	for _, f := range frames {
		if !isNode {
			x = append(x, f.Graph[field])
			continue
		}
		m := f.Node[field]
		for atom := range f.AtomTypes {
			x = append(x, m.RawRowView(atom)...)
		}
	}
	return x
}

// scalarStatistic returns (mean, std) with population std, or (rms,).
func scalarStatistic(x []float64, mode stats.Mode) []stats.Value {
	if mode.IsRMS() {
		return []stats.Value{stats.Scalar(rms(x))}
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	return []stats.Value{stats.Scalar(mean), stats.Scalar(std)}
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}

// perSpeciesNode groups every component of a per-atom field by the species
// of its atom. Species absent from the sample get zeros.
func (d *InMemoryDataset) perSpeciesNode(frames []*Frame, field string, mode stats.Mode) []stats.Value {
	groups := make([][]float64, d.numTypes)
	for _, f := range frames {
		m := f.Node[field]
		for atom, t := range f.AtomTypes {
			groups[t] = append(groups[t], m.RawRowView(atom)...)
		}
	}

	if mode.IsRMS() {
		out := make([]float64, d.numTypes)
		for s, g := range groups {
			if len(g) > 0 {
				out[s] = rms(g)
			}
		}
		return []stats.Value{stats.Vector(out)}
	}

	means := make([]float64, d.numTypes)
	stds := make([]float64, d.numTypes)
	for s, g := range groups {
		if len(g) > 0 {
			means[s], stds[s] = stat.PopMeanStdDev(g, nil)
		}
	}
	return []stats.Value{stats.Vector(means), stats.Vector(stds)}
}

// perSpeciesGraph fits E_frame ≈ Σ_s n_s(frame)·μ_s by least squares. The
// std is that of the per-atom residual, shared by every species.
func (d *InMemoryDataset) perSpeciesGraph(frames []*Frame, field string) ([]stats.Value, error) {
	counts := mat.NewDense(len(frames), d.numTypes, nil)
	target := mat.NewVecDense(len(frames), nil)
	for i, f := range frames {
		for _, t := range f.AtomTypes {
			counts.Set(i, t, counts.At(i, t)+1)
		}
		target.SetVec(i, f.Graph[field])
	}

	var mu mat.VecDense
	if err := mu.SolveVec(counts, target); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) || errors.Is(err, mat.ErrSingular) {
			return nil, errors.Wrapf(errors.ErrSingularMatrix,
				"species composition does not determine per-species %s: %v", field, err)
		}
		return nil, errors.Wrap(err, "per-species least squares")
	}
	if err := errors.CheckVector("per_species_"+field+"_mean", &mu); err != nil {
		return nil, err
	}

	var fitted mat.VecDense
	fitted.MulVec(counts, &mu)
	residual := make([]float64, len(frames))
	for i, f := range frames {
		residual[i] = (target.AtVec(i) - fitted.AtVec(i)) / float64(f.NumAtoms())
	}
	_, std := stat.PopMeanStdDev(residual, nil)
	if err := errors.CheckScalar("per_species_"+field+"_std", std); err != nil {
		return nil, err
	}

	stds := make([]float64, d.numTypes)
	for s := range stds {
		stds[s] = std
	}
	return []stats.Value{stats.FromVec(&mu), stats.Vector(stds)}, nil
}
