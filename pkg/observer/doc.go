// Package observer is the embeddable entry point for pipeline
// telemetry and drift detection.
//
// An Observer wires the record store, ingestion recorder, baseline
// manager, drift detector and summary aggregator from one configuration
// and exposes them on a single value. Host applications embed it
// directly; there is no server to run.
//
// # Ingestion
//
// One-shot, for pipelines that report after the fact:
//
//	obs, err := observer.NewFromFile("ganymede.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer obs.Close()
//
//	unit, err := obs.Observe(ctx, observer.ObserveInput{
//	    Strategy: "react",
//	    Stages: []observer.StageOutcome{
//	        {Stage: "analyst", DurationMS: 412, OutputText: answer, Model: "claude-3-5-sonnet", Success: true},
//	    },
//	    Success: true,
//	})
//
// Incremental, for live pipelines:
//
//	active := obs.StartUnit("react", nil)
//	// ... after each stage completes:
//	active.AddStage(observer.StageOutcome{Stage: "retrieval", DurationMS: 88, Success: true})
//	unit, err := active.Finalize(true)
//
// # Queries
//
// Recent, Unit, Window, Summarize, Alerts and DriftHistory read current
// state. SetBaseline freezes a reference window; Analyze compares the
// current window against it on demand.
//
// # Background work
//
// Start runs the optional cron schedules (retention cleanup, periodic
// analysis) and the configuration watcher that hot-reloads drift
// thresholds. Everything Start launches stops with Stop, context
// cancellation, or Close.
package observer
