// Package stats resolves declarative statistic requests ("dataset_force_rms",
// "per_species_energy_std", ...) into values computed by a dataset.
//
// Requests are parsed up front, collapsed into the minimal set of
// computations, and handed to the dataset in a single Statistics call.
package stats

import (
	"strings"

	"github.com/YuminosukeSato/atomscale/pkg/errors"
	"github.com/YuminosukeSato/atomscale/pkg/log"
)

// Provider is the dataset statistics capability.
//
// Statistics returns one tuple per (fields[i], modes[i]) pair, computed over
// every stride-th sample. Tuples have length 2 (mean, std) for mean_std modes
// and length 1 (rms) for rms modes.
type Provider interface {
	Statistics(fields []string, modes []Mode, stride int) ([][]Value, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(fields []string, modes []Mode, stride int) ([][]Value, error)

// Statistics implements Provider.
func (f ProviderFunc) Statistics(fields []string, modes []Mode, stride int) ([][]Value, error) {
	return f(fields, modes, stride)
}

// Resolver resolves statistic requests against a Provider.
type Resolver struct {
	// Logger receives debug records; nil uses log.GetLogger().
	Logger log.Logger
}

// Resolve is shorthand for (&Resolver{}).Resolve.
func Resolve(requests []string, provider Provider, stride int) ([]Value, error) {
	return (&Resolver{}).Resolve(requests, provider, stride)
}

// Resolve returns one Value per request, aligned with requests. Duplicate and
// mean/std-paired requests share computations; the provider is called at
// most once and never when requests is empty or any request is malformed.
func (r *Resolver) Resolve(requests []string, provider Provider, stride int) ([]Value, error) {
	if len(requests) == 0 {
		return []Value{}, nil
	}
	if stride < 1 {
		return nil, errors.NewValidationError("dataset_statistics_stride", "must be a positive integer", stride)
	}

	plan, err := NewPlan(requests)
	if err != nil {
		return nil, err
	}

	logger := r.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	logger = logger.With(log.ComponentKey, "stats", log.OperationKey, log.OperationResolve)
	logger.Debug("computing dataset statistics",
		log.RequestsKey, len(requests),
		log.SlotsKey, len(plan.Slots),
		log.StrideKey, stride,
	)

	var results [][]Value
	fields, modes := plan.Fields(), plan.Modes()
	err = errors.SafeExecute("dataset statistics", func() error {
		var statErr error
		results, statErr = provider.Statistics(fields, modes, stride)
		return statErr
	})
	if err != nil {
		return nil, errors.Wrapf(err, "computing statistics for %s", strings.Join(fields, ", "))
	}

	values, err := plan.Gather(results)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		logger.Debug("resolved statistic",
			log.RequestKey, requests[i],
			log.FieldKey, plan.Requests[i].Field,
			log.ModeKey, string(plan.Requests[i].Mode()),
			"value", v.String(),
		)
	}
	return values, nil
}
