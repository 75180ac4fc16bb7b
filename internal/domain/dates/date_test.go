package dates

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateJSONRoundTrip(t *testing.T) {
	var payload struct {
		Dob *Date `json:"dob"`
	}
	if err := json.Unmarshal([]byte(`{"dob":"1990-04-12"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Dob == nil || payload.Dob.String() != "1990-04-12" {
		t.Fatalf("unexpected date %+v", payload.Dob)
	}
	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"dob":"1990-04-12"}` {
		t.Fatalf("unexpected json %s", out)
	}
}

func TestParseAcceptsRFC3339(t *testing.T) {
	d, err := Parse("2025-03-01T10:00:00Z")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2025-03-01" {
		t.Fatalf("expected 2025-03-01, got %s", d)
	}
	if _, err := Parse("03/01/2025"); err == nil {
		t.Fatal("expected error for unsupported layout")
	}
}

func TestOverlapsIsInclusive(t *testing.T) {
	a1, a2 := Of(2025, time.March, 1), Of(2025, time.March, 5)
	if !Overlaps(a1, a2, Of(2025, time.March, 5), Of(2025, time.March, 9)) {
		t.Fatal("ranges touching on the last day should overlap")
	}
	if Overlaps(a1, a2, Of(2025, time.March, 6), Of(2025, time.March, 9)) {
		t.Fatal("adjacent ranges should not overlap")
	}
}
