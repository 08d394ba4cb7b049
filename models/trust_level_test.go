package models

import "testing"

func TestTrustLevel_AtLeast(t *testing.T) {
	tests := []struct {
		actual   TrustLevel
		required TrustLevel
		want     bool
	}{
		{LevelRead, LevelRead, true},
		{LevelRead, LevelWrite, false},
		{LevelRead, LevelAdmin, false},
		{LevelWrite, LevelRead, true},
		{LevelWrite, LevelWrite, true},
		{LevelWrite, LevelAdmin, false},
		{LevelAdmin, LevelRead, true},
		{LevelAdmin, LevelWrite, true},
		{LevelAdmin, LevelAdmin, true},
	}

	for _, tt := range tests {
		if got := tt.actual.AtLeast(tt.required); got != tt.want {
			t.Errorf("%v.AtLeast(%v) = %v, want %v", tt.actual, tt.required, got, tt.want)
		}
	}
}

func TestTrustLevel_NamesRoundTrip(t *testing.T) {
	for _, level := range []TrustLevel{LevelRead, LevelWrite, LevelAdmin} {
		got, ok := TrustLevelByName(level.String())
		if !ok {
			t.Fatalf("TrustLevelByName(%q) not found", level.String())
		}
		if got != level {
			t.Fatalf("TrustLevelByName(%q) = %v, want %v", level.String(), got, level)
		}
	}
}

func TestTrustLevelByName_Unknown(t *testing.T) {
	if _, ok := TrustLevelByName("OWNER"); ok {
		t.Fatalf("expected unknown level name to be rejected")
	}
	if TrustLevel(0).String() != "UNKNOWN" {
		t.Fatalf("zero level String() = %q, want UNKNOWN", TrustLevel(0).String())
	}
}
