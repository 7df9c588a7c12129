package pipeline

// EventKind discriminates the payload carried by a feed event.
type EventKind string

const (
	// EventUnitRecorded is published when a finalized unit enters the store.
	EventUnitRecorded EventKind = "unit_record"
	// EventReportRecorded is published when a drift report enters the store.
	EventReportRecorded EventKind = "drift_report"
)

// Event is delivered to feed subscribers for each newly recorded unit or
// drift report. Exactly one of Unit and Report is set, matching Kind.
// Payloads are clones: subscribers may retain them freely.
//
// The feed exists so that an external publisher can forward records to a
// monitoring platform; the engine itself has no knowledge of whether a
// publisher is attached, and delivery never blocks producers.
type Event struct {
	Kind   EventKind
	Unit   *UnitRecord
	Report *DriftReport
}
