package observer

import (
	"mercator-hq/ganymede/pkg/pipeline/recorder"
)

// Re-export recorder input types for convenience, so embedding
// applications only import this package for ingestion.
type (
	// ObserveInput describes a complete, already-executed unit of work
	// for the one-shot Observe call.
	ObserveInput = recorder.UnitInput

	// StageOutcome is the caller-facing description of one completed
	// pipeline stage.
	StageOutcome = recorder.StageOutcome

	// ActiveUnit is the builder for one in-flight unit of work returned
	// by StartUnit.
	ActiveUnit = recorder.ActiveUnit
)
