package model

import (
	"errors"
	"testing"
)

func TestPatchApply(t *testing.T) {
	orig := Property{ID: 3, Location: "London E1", Address: "London E1", Beds: 5, Baths: 2, Rent: 6000, Deposit: 7000}

	rent := 6100
	loc := "London E2"
	got := Patch{Rent: &rent, Location: &loc}.Apply(orig)

	if got.Rent != 6100 || got.Location != "London E2" {
		t.Errorf("patched fields not applied: %+v", got)
	}
	if got.ID != 3 || got.Beds != 5 || got.Baths != 2 || got.Deposit != 7000 || got.Address != "London E1" {
		t.Errorf("unpatched fields changed: %+v", got)
	}
	if orig.Rent != 6000 {
		t.Error("Apply mutated its input")
	}
}

func TestPatchEmpty(t *testing.T) {
	if !(Patch{}).Empty() {
		t.Error("zero patch should be empty")
	}
	zero := 0
	if (Patch{Beds: &zero}).Empty() {
		t.Error("patch setting beds to 0 is not empty")
	}
}

func TestNormalizeContract(t *testing.T) {
	p := Property{Location: " Luton LU2 ", Contract: "  "}
	p.Normalize()
	if p.Contract != DefaultContract {
		t.Errorf("expected default contract, got %q", p.Contract)
	}
	if p.Location != "Luton LU2" {
		t.Errorf("expected trimmed location, got %q", p.Location)
	}

	p = Property{Contract: "1 Year"}
	p.Normalize()
	if p.Contract != "1 Year" {
		t.Errorf("explicit contract overwritten: %q", p.Contract)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Property
		wantErr bool
	}{
		{"ok", Property{Location: "Bristol BS7", Beds: 4, Baths: 2, Rent: 2500}, false},
		{"zero rooms", Property{Location: "Studio"}, false},
		{"no location", Property{Beds: 1}, true},
		{"negative beds", Property{Location: "x", Beds: -1}, true},
		{"negative baths", Property{Location: "x", Baths: -2}, true},
		{"negative rent", Property{Location: "x", Rent: -1}, true},
	}

	for _, tt := range tests {
		err := tt.p.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
	}
}

func TestDefaultsAreCopies(t *testing.T) {
	a := Defaults()
	if len(a) != 10 {
		t.Fatalf("expected 10 default properties, got %d", len(a))
	}
	a[0].Rent = 1

	b := Defaults()
	if b[0].Rent == 1 {
		t.Error("Defaults returned shared backing storage")
	}

	seen := map[int]bool{}
	for _, p := range b {
		if seen[p.ID] {
			t.Errorf("duplicate default id %d", p.ID)
		}
		seen[p.ID] = true
	}
}
