package csvcodec

import "testing"

func TestParse_ScenarioFive(t *testing.T) {
	data := "deck,model,front,back,tags\nA,basic,Q,A,t1"
	records, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("want one record, got %d", len(records))
	}
	r := records[0]
	if r.Deck != "A" || r.Model != "basic" || r.Fields["front"] != "Q" || r.Fields["back"] != "A" {
		t.Fatalf("unexpected record: %+v", r)
	}
	if len(r.Tags) != 1 || r.Tags[0] != "t1" {
		t.Fatalf("want tags=[t1], got %v", r.Tags)
	}
}

func TestParse_UnknownColumnsIgnored(t *testing.T) {
	data := "deck,model,front,back,extraneous\nA,basic,Q,A,whatever"
	records, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("want one record, got %d", len(records))
	}
}

func TestTSVToCSV_RoundTrips(t *testing.T) {
	tsv := "deck\tmodel\tfront\tback\nA\tbasic\tQ\tA"
	csvText, err := TSVToCSV(tsv)
	if err != nil {
		t.Fatalf("TSVToCSV: %v", err)
	}
	records, err := Parse(csvText)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 || records[0].Fields["front"] != "Q" {
		t.Fatalf("unexpected records: %+v", records)
	}
}
