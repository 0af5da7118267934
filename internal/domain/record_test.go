package domain

import "testing"

func TestRecord_At(t *testing.T) {
	rec := Record{
		"id":   7.0,
		"name": "ada",
		"address": map[string]any{
			"city": "oslo",
			"geo":  map[string]any{"lat": 59.9},
		},
		"tags": []any{"a", "b"},
	}

	tests := []struct {
		name        string
		path        string
		want        any
		wantPresent bool
	}{
		{"top level", "name", "ada", true},
		{"nested", "address.city", "oslo", true},
		{"deeply nested", "address.geo.lat", 59.9, true},
		{"missing leaf", "address.zip", nil, false},
		{"missing root", "owner.name", nil, false},
		{"segment through scalar", "name.first", nil, false},
		{"segment through sequence", "tags.0", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, present := rec.At(tt.path)
			if present != tt.wantPresent {
				t.Fatalf("present = %v, want %v", present, tt.wantPresent)
			}
			if present && got != tt.want {
				t.Errorf("At(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestRecord_ID(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"numeric id", Record{"id": 42.0}, "42"},
		{"string id", Record{"id": "abc"}, "abc"},
		{"integer id", Record{"id": 7}, "7"},
		{"missing id", Record{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.ID(DefaultIDField); got != tt.want {
				t.Errorf("ID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecord_Clone(t *testing.T) {
	rec := Record{"id": 1.0, "name": "ada"}
	clone := rec.Clone()

	clone["name"] = "bob"
	if rec["name"] != "ada" {
		t.Error("mutating the clone must not touch the original")
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"float64", 2.5, 2.5, true},
		{"int", 7, 7, true},
		{"int64", int64(-3), -3, true},
		{"uint", uint(9), 9, true},
		{"numeric string", "12.5", 12.5, true},
		{"padded numeric string", " 4 ", 4, true},
		{"empty string", "", 0, false},
		{"word", "seven", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Number(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Number(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "x", "x"},
		{"whole float", 42.0, "42"},
		{"fractional float", 2.5, "2.5"},
		{"int", 7, "7"},
		{"bool", true, "true"},
		{"nil", nil, ""},
		{"map", map[string]any{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stringify(tt.in); got != tt.want {
				t.Errorf("Stringify(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
