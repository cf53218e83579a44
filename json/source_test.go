package json_test

import (
	"io"
	"strings"
	"testing"

	"github.com/spindash/spindash/json"
)

func drain(t *testing.T, src *json.Source) []map[string]interface{} {
	t.Helper()
	var recs []map[string]interface{}
	for {
		rec, err := src.Record()
		if err == io.EOF {
			return recs
		}
		if err != nil {
			t.Fatalf("reading record: %v", err)
		}
		recs = append(recs, rec)
	}
}

func TestSourceArray(t *testing.T) {
	src := json.NewSource(strings.NewReader(`[
		{"artistName": "A", "msPlayed": 100},
		{"artistName": "B", "msPlayed": 200}
	]`))
	recs := drain(t, src)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[1]["artistName"] != "B" {
		t.Fatalf("bad record: %v", recs[1])
	}
}

func TestSourceWrappedArray(t *testing.T) {
	src := json.NewSource(strings.NewReader(`{
		"metadata": {"merged_at": "2024-01-01", "files_processed": 3},
		"streaming_history": [
			{"artistName": "A"},
			{"artistName": "B"},
			{"artistName": "C"}
		]
	}`))
	recs := drain(t, src)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
}

func TestSourceEmptyArray(t *testing.T) {
	src := json.NewSource(strings.NewReader(`[]`))
	if recs := drain(t, src); len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
}

func TestSourceNoArrayInObject(t *testing.T) {
	src := json.NewSource(strings.NewReader(`{"user_data": {"country": "DE"}}`))
	_, err := src.Record()
	if err == nil || err == io.EOF {
		t.Fatalf("expected a decode error, got %v", err)
	}
	// The error is reported once, then EOF.
	if _, err := src.Record(); err != io.EOF {
		t.Fatalf("expected io.EOF after error, got %v", err)
	}
}

func TestSourceCorruptElement(t *testing.T) {
	src := json.NewSource(strings.NewReader(`[{"a": 1}, {"b": `))
	rec, err := src.Record()
	if err != nil || rec["a"] != float64(1) {
		t.Fatalf("first record should decode: %v, %v", rec, err)
	}
	if _, err := src.Record(); err == nil || err == io.EOF {
		t.Fatalf("expected a decode error, got %v", err)
	}
	if _, err := src.Record(); err != io.EOF {
		t.Fatalf("expected io.EOF after error, got %v", err)
	}
}

func TestSourceScalarInput(t *testing.T) {
	src := json.NewSource(strings.NewReader(`42`))
	if _, err := src.Record(); err == nil || err == io.EOF {
		t.Fatalf("expected an error for non-container input, got %v", err)
	}
}
