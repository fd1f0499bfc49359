package record

import (
	"bytes"
	"encoding/json"
	"fmt"

	domrec "github.com/kailas-cloud/esquery/internal/domain/record"
)

// decodeRecord turns a stored JSON object into a record. Numbers are kept as
// json.Number so large ids survive the round trip.
func decodeRecord(id, docType string, raw []byte) (domrec.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return domrec.Record{}, fmt.Errorf("decode record: %w", err)
	}
	if fields == nil {
		return domrec.Record{}, fmt.Errorf("decode record: not an object")
	}
	delete(fields, domrec.IDField)
	return domrec.Reconstruct(id, docType, 0, fields), nil
}
