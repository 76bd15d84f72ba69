package rescale

import (
	"github.com/YuminosukeSato/atomscale/config"
	"github.com/YuminosukeSato/atomscale/pkg/errors"
	"github.com/YuminosukeSato/atomscale/pkg/log"
)

// Config keys read by the configurators.
const (
	GlobalScaleKey          = "global_rescale_scale"
	GlobalShiftKey          = "global_rescale_shift"
	StrideKey               = "dataset_statistics_stride"
	TrainableScaleKey       = "trainable_global_rescale_scale"
	TrainableShiftKey       = "trainable_global_rescale_shift"
	PerSpeciesPrefix        = "PerSpeciesScaleShift_"
	PerSpeciesScalesKey     = PerSpeciesPrefix + "scales"
	PerSpeciesShiftsKey     = PerSpeciesPrefix + "shifts"
	PerSpeciesTrainableKey  = PerSpeciesPrefix + "trainable"
	DefaultRescaleThreshold = 1e-6
)

// Options are the typed, non-source settings of a configurator.
type Options struct {
	Stride              int  `mapstructure:"dataset_statistics_stride"`
	TrainableScale      bool `mapstructure:"trainable_global_rescale_scale"`
	TrainableShift      bool `mapstructure:"trainable_global_rescale_shift"`
	TrainablePerSpecies bool `mapstructure:"PerSpeciesScaleShift_trainable"`
}

// DefaultOptions returns the settings used for absent keys.
func DefaultOptions() Options {
	return Options{Stride: 1}
}

// DecodeOptions reads Options from cfg on top of DefaultOptions.
func DecodeOptions(cfg *config.Config) (Options, error) {
	opts := DefaultOptions()
	stride, err := cfg.Int(StrideKey, opts.Stride)
	if err != nil {
		return opts, err
	}
	if err := cfg.Decode(&opts); err != nil {
		return opts, errors.Wrap(err, "rescale options")
	}
	opts.Stride = stride
	if opts.Stride < 1 {
		return opts, errors.NewValidationError(StrideKey, "must be a positive integer", opts.Stride)
	}
	return opts, nil
}

// Option configures a configurator call.
type Option func(*settings)

type settings struct {
	logger    log.Logger
	threshold float64
}

func newSettings(opts []Option) *settings {
	s := &settings{threshold: DefaultRescaleThreshold}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = log.GetLogger()
	}
	return s
}

// WithLogger sets the logger for state transitions and results
func WithLogger(l log.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithThreshold overrides the minimum accepted global scale
func WithThreshold(threshold float64) Option {
	return func(s *settings) {
		s.threshold = threshold
	}
}
