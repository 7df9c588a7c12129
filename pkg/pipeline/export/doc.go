// Package export provides exporters for unit records and drift reports.
//
// # Export Formats
//
//   - JSON: single record or array, with optional pretty-printing
//   - CSV: flattened schema with header row and proper escaping
//
// # JSON Export
//
//	exporter := export.NewJSONExporter(true)
//	err := exporter.ExportUnits(ctx, units, os.Stdout)
//
// # CSV Export
//
//	exporter := export.NewCSVExporter(true)
//	f, _ := os.Create("units.csv")
//	defer f.Close()
//	err := exporter.ExportUnits(ctx, units, f)
//
// # Streaming
//
// Unit records support a streaming form fed from a channel, so large
// journal ranges can be exported without loading every record into
// memory. Drift report history is bounded and needs no streaming form.
//
// # Error Handling
//
// Exporters return a pipeline.ExportError wrapping the underlying JSON
// encoding, CSV escaping, or writer error.
package export
