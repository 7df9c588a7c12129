// Ganymede is an embeddable telemetry and drift-detection engine for
// multi-stage agent pipelines.
//
// The ganymede command operates on the local data directory written by an
// embedding application, providing:
//   - Windowed summaries of recorded pipeline units
//   - Statistical drift analysis against an established baseline
//   - Versioned baseline management
//   - Journal retention cleanup
//   - JSON/CSV export of units and drift reports
//
// Usage:
//
//	# Summarize the last 24 hours
//	ganymede summary
//
//	# List recent units
//	ganymede units --limit 20
//
//	# Establish a new baseline from recent units
//	ganymede baseline set --samples 100
//
//	# Run one drift analysis cycle
//	ganymede drift analyze
//
//	# Export units as JSON
//	ganymede export units --output units.json
//
//	# Show version information
//	ganymede version
//
// For complete documentation, see: https://github.com/mercator-hq/ganymede
package main

func main() {
	Execute()
}
