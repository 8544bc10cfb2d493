package grn

import (
	"encoding/json"
	"testing"
)

func TestIDJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		id   ID
		out  string
	}{
		{name: "number", raw: `12345`, id: "12345", out: `12345`},
		{name: "numeric string becomes number", raw: `"77"`, id: "77", out: `77`},
		{name: "text", raw: `"T100"`, id: "T100", out: `"T100"`},
		{name: "null", raw: `null`, id: "", out: `null`},
		{name: "decimal", raw: `1.5`, id: "1.5", out: `1.5`},
		{name: "leading zeros dropped", raw: `"00123"`, id: "00123", out: `123`},
		{name: "all zeros", raw: `"000"`, id: "000", out: `0`},
		{name: "padded decimal", raw: `"00.5"`, id: "00.5", out: `0.5`},
		{name: "zero point", raw: `"0.5"`, id: "0.5", out: `0.5`},
		{name: "padded text stays text", raw: `"007A"`, id: "007A", out: `"007A"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			if err := json.Unmarshal([]byte(tt.raw), &id); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.raw, err)
			}
			if id != tt.id {
				t.Fatalf("Unmarshal(%s) = %q want %q", tt.raw, id, tt.id)
			}

			out, err := json.Marshal(id)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(out) != tt.out {
				t.Fatalf("Marshal(%q) = %s want %s", id, out, tt.out)
			}
		})
	}
}

func TestIDRejectsObjects(t *testing.T) {
	var id ID
	if err := json.Unmarshal([]byte(`{"a":1}`), &id); err == nil {
		t.Fatal("expected an error for an object")
	}
}
