package validation

import (
	"encoding/json"
	"testing"

	"github.com/julianstephens/datebook/internal/errors"
	"github.com/julianstephens/datebook/internal/models"
)

func TestValidateEntry(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "legacy string", input: `"buy milk"`, want: true},
		{name: "empty legacy string", input: `""`, want: false},
		{name: "text only", input: `{"text": "valid object"}`, want: true},
		{name: "text with times", input: `{"text": "t", "start": "9:00", "end": "10:30"}`, want: true},
		{name: "end of day", input: `{"text": "t", "end": "24:00"}`, want: true},
		{name: "missing text", input: `{"start": "09:00"}`, want: false},
		{name: "empty text", input: `{"text": ""}`, want: false},
		{name: "non-string text", input: `{"text": 5}`, want: false},
		{name: "extraneous field", input: `{"text": "t", "random": "object"}`, want: false},
		{name: "unrelated object", input: `{"random": "object"}`, want: false},
		{name: "empty object", input: `{}`, want: false},
		{name: "invalid start", input: `{"text": "maybe valid", "start": "notValid"}`, want: false},
		{name: "invalid end", input: `{"text": "t", "end": "25:00"}`, want: false},
		{name: "empty start", input: `{"text": "t", "start": ""}`, want: false},
		{name: "null start", input: `{"text": "t", "start": null}`, want: false},
		{name: "numeric start", input: `{"text": "t", "start": 900}`, want: false},
		{name: "number", input: `1`, want: false},
		{name: "null", input: `null`, want: false},
		{name: "array", input: `["a"]`, want: false},
		{name: "empty input", input: ``, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateEntry(json.RawMessage(tt.input)); got != tt.want {
				t.Errorf("ValidateEntry(%s) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateEntryBatch(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "empty array", input: `[]`, want: true},
		{name: "mixed valid", input: `["a", {"text": "b", "start": "10:00"}]`, want: true},
		{name: "one invalid", input: `[{"text": "valid object"}, {"random": "object"}]`, want: false},
		{name: "kitchen sink", input: `[1, {}, null]`, want: false},
		{name: "not an array", input: `"invalid data"`, want: false},
		{name: "object", input: `{"text": "a"}`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateEntryBatch(json.RawMessage(tt.input)); got != tt.want {
				t.Errorf("ValidateEntryBatch(%s) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeEntryBatchErrors(t *testing.T) {
	tests := []struct {
		name        string
		input       json.RawMessage
		wantKind    errors.Kind
		wantMessage string
	}{
		{name: "absent", input: nil, wantKind: errors.KindNoEntryData, wantMessage: "No Entry Data"},
		{name: "string", input: json.RawMessage(`"invalid data"`), wantKind: errors.KindInvalidEntryData, wantMessage: "Data must be an array of entry objects"},
		{name: "number", input: json.RawMessage(`5`), wantKind: errors.KindInvalidEntryData, wantMessage: "Data must be an array of entry objects"},
		{name: "invalid element", input: json.RawMessage(`[{"text": "ok"}, {"text": "bad", "start": "x"}]`), wantKind: errors.KindInvalidEntry, wantMessage: "Data included an Invalid Entry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEntryBatch(tt.input)
			if errors.KindOf(err) != tt.wantKind {
				t.Fatalf("DecodeEntryBatch() kind = %v, want %v", errors.KindOf(err), tt.wantKind)
			}
			if errors.Message(err) != tt.wantMessage {
				t.Errorf("DecodeEntryBatch() message = %q, want %q", errors.Message(err), tt.wantMessage)
			}
		})
	}
}

func TestDecodeEntryBatchNormalizesLegacyStrings(t *testing.T) {
	entries, err := DecodeEntryBatch(json.RawMessage(`["plain", {"text": "timed", "start": "09:00"}]`))
	if err != nil {
		t.Fatalf("DecodeEntryBatch() error: %v", err)
	}

	want := []models.Entry{{Text: "plain"}, {Text: "timed", Start: "09:00"}}
	if len(entries) != len(want) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(want))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entries[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestValidateEntryValue(t *testing.T) {
	if err := ValidateEntryValue(models.Entry{Text: "a", Start: "09:00", End: "24:00"}); err != nil {
		t.Errorf("ValidateEntryValue() unexpected error: %v", err)
	}
	if err := ValidateEntryValue(models.Entry{}); errors.KindOf(err) != errors.KindInvalidEntry {
		t.Errorf("ValidateEntryValue(empty) kind = %v", errors.KindOf(err))
	}
	if err := ValidateEntryValue(models.Entry{Text: "a", End: "9"}); errors.KindOf(err) != errors.KindInvalidEntry {
		t.Errorf("ValidateEntryValue(bad end) kind = %v", errors.KindOf(err))
	}
}
