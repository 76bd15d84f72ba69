package rescale

import (
	"github.com/YuminosukeSato/atomscale/config"
	"github.com/YuminosukeSato/atomscale/data"
	"github.com/YuminosukeSato/atomscale/nn"
	"github.com/YuminosukeSato/atomscale/pkg/errors"
	"github.com/YuminosukeSato/atomscale/pkg/log"
	"github.com/YuminosukeSato/atomscale/stats"
)

// Spec is the decided global rescale, consumed by nn.NewRescaleOutput.
type Spec struct {
	ScaleKeys      []string
	ScaleBy        stats.Value
	ShiftKeys      []string
	ShiftBy        stats.Value
	TrainableScale bool
	TrainableShift bool
}

// Params converts s for nn.NewRescaleOutput.
func (s *Spec) Params() nn.RescaleParams {
	return nn.RescaleParams{
		ScaleKeys:      s.ScaleKeys,
		ScaleBy:        s.ScaleBy,
		ShiftKeys:      s.ShiftKeys,
		ShiftBy:        s.ShiftBy,
		TrainableScale: s.TrainableScale,
		TrainableShift: s.TrainableShift,
	}
}

// DefaultScaleSource is the force RMS when the model predicts forces and the
// total energy standard deviation otherwise.
func DefaultScaleSource(outputFields []string) Source {
	for _, f := range outputFields {
		if f == data.ForceKey {
			return FromRequest("dataset_force_rms")
		}
	}
	return FromRequest("dataset_energy_std")
}

// DefaultShiftSource is the total energy mean.
func DefaultShiftSource() Source {
	return FromRequest("dataset_energy_mean")
}

func contains(xs []string, x string) bool {
	for _, e := range xs {
		if e == x {
			return true
		}
	}
	return false
}

// GlobalSpec decides the global rescale for a model producing outputFields.
//
// With initialize the request sources are resolved against provider in one
// call; otherwise provider is not touched and configured sources become the
// placeholders scale 1.0 and shift 0.0.
func GlobalSpec(outputFields []string, cfg *config.Config, provider stats.Provider, initialize bool, opts ...Option) (*Spec, error) {
	s := newSettings(opts)
	logger := s.logger.With(log.ComponentKey, "rescale", log.VariantKey, log.VariantGlobal)
	m := newMachine(logger)
	m.to(Validating)

	scaleSrc, err := sourceFromConfig(cfg, GlobalScaleKey, DefaultScaleSource(outputFields))
	if err != nil {
		return nil, err
	}
	shiftSrc, err := sourceFromConfig(cfg, GlobalShiftKey, DefaultShiftSource())
	if err != nil {
		return nil, err
	}
	options, err := DecodeOptions(cfg)
	if err != nil {
		return nil, err
	}

	var scale, shift stats.Value
	if initialize {
		requests := collectRequests(scaleSrc, shiftSrc)
		var resolved []stats.Value
		if len(requests) > 0 {
			m.to(ComputingStats)
			resolved, err = (&stats.Resolver{Logger: logger}).Resolve(requests, provider, options.Stride)
			if err != nil {
				return nil, errors.Wrap(err, "global rescale")
			}
		} else {
			m.to(SkippingStats)
		}
		scale = substitute(scaleSrc, requests, resolved)
		shift = substitute(shiftSrc, requests, resolved)

		if err := scale.Check(GlobalScaleKey); err != nil {
			return nil, err
		}
		if err := shift.Check(GlobalShiftKey); err != nil {
			return nil, err
		}
		if scale.IsScalar() && scale.Float() < s.threshold {
			logger.Error("global scale below threshold",
				log.ScaleKey, scale.Float(),
				log.ErrorCodeKey, log.ErrorDegenerateScale,
				log.SuggestionKey, GlobalScaleKey+": null",
			)
			return nil, errors.NewDegenerateScaleError(scale.Float(), s.threshold)
		}
		logger.Debug("initial outputs rescaled", log.ScaleKey, scale.String(), log.ShiftKey, shift.String())
	} else {
		m.to(SkippingStats)
		scale = placeholder(scaleSrc, 1.0)
		shift = placeholder(shiftSrc, 0.0)
	}

	spec := &Spec{
		ScaleBy:        scale,
		ShiftBy:        shift,
		TrainableScale: options.TrainableScale,
		TrainableShift: options.TrainableShift,
	}
	for _, k := range []string{data.TotalEnergyKey, data.PerAtomEnergyKey, data.ForceKey} {
		if contains(outputFields, k) {
			spec.ScaleKeys = append(spec.ScaleKeys, k)
		}
	}
	if contains(outputFields, data.TotalEnergyKey) {
		spec.ShiftKeys = []string{data.TotalEnergyKey}
	}

	m.to(Configured)
	return spec, nil
}

// RescaleEnergyEtc wraps model in a global rescale of its energy-based
// outputs. See GlobalSpec for how the scale and shift are chosen.
func RescaleEnergyEtc(model nn.Model, cfg *config.Config, provider stats.Provider, initialize bool, opts ...Option) (*nn.RescaleOutput, *Spec, error) {
	spec, err := GlobalSpec(model.OutputFields(), cfg, provider, initialize, opts...)
	if err != nil {
		return nil, nil, err
	}
	out, err := nn.NewRescaleOutput(model, spec.Params())
	if err != nil {
		return nil, nil, err
	}
	return out, spec, nil
}
