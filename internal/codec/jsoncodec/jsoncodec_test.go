package jsoncodec

import "testing"

func TestParse_ArrayOfRecords(t *testing.T) {
	data := []byte(`[{"deck":"A","model":"basic","fields":{"front":"Q","back":"A"},"tags":["t1"]}]`)
	records, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 || records[0].Deck != "A" || records[0].Fields["front"] != "Q" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestMarshal_ProducesNonEmptyOutput(t *testing.T) {
	doc := Document{Version: 1, Deck: "A", Notes: []ExportedNote{{Model: "basic", Fields: map[string]string{"front": "Q", "back": "A"}}}}
	b, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(b) == 0 {
		t.Fatalf("want non-empty output")
	}
}
