package llm

import (
	"testing"
)

type metadataPayload struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func TestDecodeJSONDirect(t *testing.T) {
	var out metadataPayload
	if err := DecodeJSON(`{"title":"Hello","tags":["a","b"]}`, &out); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if out.Title != "Hello" || len(out.Tags) != 2 {
		t.Fatalf("unexpected payload: %#v", out)
	}
}

func TestDecodeJSONStripsCodeFence(t *testing.T) {
	var out metadataPayload
	raw := "```json\n{\"title\":\"Fenced\",\"tags\":[]}\n```"
	if err := DecodeJSON(raw, &out); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if out.Title != "Fenced" {
		t.Fatalf("unexpected title: %q", out.Title)
	}
}

func TestDecodeJSONStripsThinkBlock(t *testing.T) {
	var out metadataPayload
	raw := "<think>\nLet me reason about the title first...\n</think>\n{\"title\":\"Thought\",\"tags\":[]}"
	if err := DecodeJSON(raw, &out); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if out.Title != "Thought" {
		t.Fatalf("unexpected title: %q", out.Title)
	}
}

func TestDecodeJSONExtractsFromProse(t *testing.T) {
	var out metadataPayload
	raw := `Sure! Here is your metadata: {"title":"Embedded","tags":["x"]} Hope that helps!`
	if err := DecodeJSON(raw, &out); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if out.Title != "Embedded" {
		t.Fatalf("unexpected title: %q", out.Title)
	}
}

func TestDecodeJSONRepairsTrailingComma(t *testing.T) {
	var out metadataPayload
	raw := `{"title":"Trailing","tags":["a","b",],}`
	if err := DecodeJSON(raw, &out); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if out.Title != "Trailing" || len(out.Tags) != 2 {
		t.Fatalf("unexpected payload: %#v", out)
	}
}

func TestDecodeJSONDoubleEncoded(t *testing.T) {
	var out metadataPayload
	raw := `"{\"title\":\"Nested\",\"tags\":[]}"`
	if err := DecodeJSON(raw, &out); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if out.Title != "Nested" {
		t.Fatalf("unexpected title: %q", out.Title)
	}
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	var out metadataPayload
	if err := DecodeJSON("no json anywhere here", &out); err == nil {
		t.Fatal("expected error for non-JSON payload")
	}
	if err := DecodeJSON("", &out); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestCleanJSONSalvagesFirstValueFromMixedText(t *testing.T) {
	raw := `{"title":"First","tags":[]} trailing prose the model added {`
	got := CleanJSON(raw)
	var out metadataPayload
	if err := DecodeJSON(got, &out); err != nil {
		t.Fatalf("DecodeJSON on cleaned payload: %v", err)
	}
	if out.Title != "First" {
		t.Fatalf("expected the first complete object, got %#v", out)
	}
}
