// Package log defines standard attribute keys for statistics and rescale logging.
//
// Using these keys keeps records from the resolver, the dataset and the
// configurators filterable by a common vocabulary. Keys follow a hierarchical
// naming convention ("stat.field", "rescale.scale").

package log

// Operation context.
const (
	// ModelNameKey identifies the model being configured.
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: see the Operation* constants below.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	// Examples: "stats", "rescale", "data", "nn"
	ComponentKey = "ml.component"
)

// Statistic request context.
const (
	// RequestKey is a raw statistic request string, e.g. "dataset_force_rms".
	RequestKey = "stat.request"

	// FieldKey is the dataset field a statistic is computed on.
	FieldKey = "stat.field"

	// ModeKey is the aggregation mode, e.g. "per_species_mean_std".
	ModeKey = "stat.mode"

	// StrideKey is the sampling interval used for dataset statistics.
	StrideKey = "stat.stride"

	// SlotsKey is the number of deduplicated computations requested.
	SlotsKey = "stat.slots"

	// RequestsKey is the number of requests before deduplication.
	RequestsKey = "stat.requests"

	// FramesKey is the number of frames in the dataset.
	FramesKey = "data.frames"

	// FramesUsedKey is the number of frames selected by the stride.
	FramesUsedKey = "data.frames_used"
)

// Rescale context.
const (
	// VariantKey identifies the configurator: "global" or "per_species".
	VariantKey = "rescale.variant"

	// StateKey records configurator state transitions.
	StateKey = "rescale.state"

	// ScaleKey records the resolved scale value.
	ScaleKey = "rescale.scale"

	// ShiftKey records the resolved shift value.
	ShiftKey = "rescale.shift"

	// InitializeKey records whether statistics were computed.
	InitializeKey = "rescale.initialize"

	// AnchorKey records the module a per-species module was inserted next to.
	AnchorKey = "nn.anchor"
)

// Error context.
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides a hint for resolving an issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationResolve   = "resolve"
	OperationConfigure = "configure"
	OperationInsert    = "insert"
	OperationStatistic = "statistics"

	VariantGlobal     = "global"
	VariantPerSpecies = "per_species"

	ErrorDegenerateScale = "DEGENERATE_SCALE"
	ErrorUnsupportedKind = "UNSUPPORTED_KIND"
	ErrorConflictShift   = "CONFLICTING_SHIFT"
)
