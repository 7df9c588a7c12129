package export

import (
	"context"
	"encoding/json"
	"io"

	"mercator-hq/ganymede/pkg/pipeline"
)

// JSONExporter exports unit records and drift reports to JSON format.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// ExportUnits writes unit records to the provided writer in JSON format.
// If Pretty is true, the JSON will be indented for readability.
//
// A single record is exported as a JSON object; multiple records as an
// array of objects.
func (e *JSONExporter) ExportUnits(ctx context.Context, units []*pipeline.UnitRecord, w io.Writer) error {
	if len(units) == 0 {
		// Write empty array
		_, err := w.Write([]byte("[]"))
		return err
	}

	var data []byte
	var err error

	if len(units) == 1 {
		data, err = e.marshal(units[0])
	} else {
		data, err = e.marshal(units)
	}
	if err != nil {
		return pipeline.NewExportError("json", len(units), err)
	}

	if _, err := w.Write(data); err != nil {
		return pipeline.NewExportError("json", len(units), err)
	}
	return nil
}

// ExportReports writes drift reports to the provided writer in JSON
// format, with the same single-object/array shape as ExportUnits.
func (e *JSONExporter) ExportReports(ctx context.Context, reports []*pipeline.DriftReport, w io.Writer) error {
	if len(reports) == 0 {
		_, err := w.Write([]byte("[]"))
		return err
	}

	var data []byte
	var err error

	if len(reports) == 1 {
		data, err = e.marshal(reports[0])
	} else {
		data, err = e.marshal(reports)
	}
	if err != nil {
		return pipeline.NewExportError("json", len(reports), err)
	}

	if _, err := w.Write(data); err != nil {
		return pipeline.NewExportError("json", len(reports), err)
	}
	return nil
}

// ExportUnitStream exports unit records from a channel to a JSON array.
// This is memory-efficient for large result sets as it streams records
// one at a time instead of loading all records in memory. Drift report
// history is bounded, so only units get a streaming form.
func (e *JSONExporter) ExportUnitStream(ctx context.Context, unitsCh <-chan *pipeline.UnitRecord, w io.Writer) error {
	// Write opening bracket
	if _, err := w.Write([]byte("[")); err != nil {
		return pipeline.NewExportError("json", 0, err)
	}

	first := true
	recordCount := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case unit, ok := <-unitsCh:
			if !ok {
				// Channel closed - write closing bracket and return
				if _, err := w.Write([]byte("]")); err != nil {
					return pipeline.NewExportError("json", recordCount, err)
				}
				return nil
			}

			// Write comma and newline before all but first record
			if !first {
				if _, err := w.Write([]byte(",")); err != nil {
					return pipeline.NewExportError("json", recordCount, err)
				}
				if e.Pretty {
					if _, err := w.Write([]byte("\n")); err != nil {
						return pipeline.NewExportError("json", recordCount, err)
					}
				}
			}
			first = false

			data, err := e.marshalStreamed(unit)
			if err != nil {
				return pipeline.NewExportError("json", recordCount, err)
			}
			if _, err := w.Write(data); err != nil {
				return pipeline.NewExportError("json", recordCount, err)
			}

			recordCount++
		}
	}
}

// marshal serializes a value honoring the Pretty setting.
func (e *JSONExporter) marshal(v interface{}) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// marshalStreamed serializes one streamed record. Pretty output indents
// relative to the enclosing array.
func (e *JSONExporter) marshalStreamed(v interface{}) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(v, "  ", "  ")
	}
	return json.Marshal(v)
}
