package rescale

import (
	"github.com/YuminosukeSato/atomscale/config"
	"github.com/YuminosukeSato/atomscale/data"
	"github.com/YuminosukeSato/atomscale/nn"
	"github.com/YuminosukeSato/atomscale/pkg/errors"
	"github.com/YuminosukeSato/atomscale/pkg/log"
	"github.com/YuminosukeSato/atomscale/stats"
)

// PerSpeciesParams are handed to the inserted per-species module.
type PerSpeciesParams struct {
	Field     string
	OutField  string
	Scales    stats.Value
	Shifts    stats.Value
	Trainable bool
}

func (p *PerSpeciesParams) moduleParams() map[string]interface{} {
	return map[string]interface{}{
		"field":     p.Field,
		"out_field": p.OutField,
		"scales":    p.Scales,
		"shifts":    p.Shifts,
		"trainable": p.Trainable,
	}
}

// PerSpeciesRescale inserts a per-species scale/shift on the per-atom energy
// just before the total energy sum. For a force model the module goes into
// the wrapped energy graph. The returned model is model itself.
//
// A configured global shift conflicts with the per-species shift and is
// rejected before anything else. With initialize, per-species scales are
// divided by the global scale, since the global rescale is applied on top.
// Without it, configured scales and shifts both become the placeholder 1.0.
func PerSpeciesRescale(model nn.Model, cfg *config.Config, provider stats.Provider, initialize bool, opts ...Option) (nn.Model, *PerSpeciesParams, error) {
	s := newSettings(opts)
	logger := s.logger.With(log.ComponentKey, "rescale", log.VariantKey, log.VariantPerSpecies)
	m := newMachine(logger)
	m.to(Validating)

	if v, ok := cfg.Get(GlobalShiftKey); ok && v != nil {
		logger.Error("conflicting shift configuration", log.ErrorCodeKey, log.ErrorConflictShift)
		return nil, nil, errors.NewConflictingShiftConfigError(v)
	}

	outputs := model.OutputFields()
	globalScaleSrc, err := sourceFromConfig(cfg, GlobalScaleKey, DefaultScaleSource(outputs))
	if err != nil {
		return nil, nil, err
	}
	scalesSrc, err := sourceFromConfig(cfg, PerSpeciesScalesKey, Disabled())
	if err != nil {
		return nil, nil, err
	}
	shiftsSrc, err := sourceFromConfig(cfg, PerSpeciesShiftsKey, Disabled())
	if err != nil {
		return nil, nil, err
	}
	options, err := DecodeOptions(cfg)
	if err != nil {
		return nil, nil, err
	}

	graph := nn.EnergyGraph(model)
	if graph == nil {
		return nil, nil, errors.NewValidationError("model", "cannot insert modules into this model", model.OutputFields())
	}

	logger.Info("Enable per species scale/shift")

	var scales, shifts stats.Value
	if initialize {
		requests := collectRequests(scalesSrc, shiftsSrc, globalScaleSrc)
		var resolved []stats.Value
		if len(requests) > 0 {
			m.to(ComputingStats)
			resolved, err = (&stats.Resolver{Logger: logger}).Resolve(requests, provider, options.Stride)
			if err != nil {
				return nil, nil, errors.Wrap(err, "per-species rescale")
			}
		} else {
			m.to(SkippingStats)
		}
		scales = substitute(scalesSrc, requests, resolved)
		shifts = substitute(shiftsSrc, requests, resolved)
		globalScale := substitute(globalScaleSrc, requests, resolved)

		for key, v := range map[string]stats.Value{PerSpeciesScalesKey: scales, PerSpeciesShiftsKey: shifts, GlobalScaleKey: globalScale} {
			if err := v.Check(key); err != nil {
				return nil, nil, err
			}
		}
		if !globalScale.IsNone() {
			if scales, err = scales.Div(globalScale); err != nil {
				return nil, nil, errors.Wrap(err, "dividing per-species scales by the global scale")
			}
		}
		logger.Debug("per species parameters", log.ScaleKey, scales.String(), log.ShiftKey, shifts.String())
	} else {
		m.to(SkippingStats)
		scales = placeholder(scalesSrc, 1.0)
		shifts = placeholder(shiftsSrc, 1.0)
	}

	params := &PerSpeciesParams{
		Field:     data.PerAtomEnergyKey,
		OutField:  data.PerAtomEnergyKey,
		Scales:    scales,
		Shifts:    shifts,
		Trainable: options.TrainablePerSpecies,
	}
	err = graph.Insert(nn.InsertOptions{
		Anchor:  nn.TotalEnergySumName,
		Name:    nn.PerSpeciesScaleShiftName,
		Builder: nn.NewPerSpeciesScaleShift,
		Params:  params.moduleParams(),
		Shared:  cfg,
		Prepend: true,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "inserting per-species scale/shift")
	}
	logger.Debug("inserted module", log.AnchorKey, nn.TotalEnergySumName, log.ModelNameKey, nn.PerSpeciesScaleShiftName)

	m.to(Configured)
	return model, params, nil
}
