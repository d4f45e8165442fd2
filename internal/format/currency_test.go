package format

import "testing"

func TestCAD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{11_800_000, "$11,800,000"},
		{0, "$0"},
		{999.6, "$1,000"},
	}
	for _, tt := range tests {
		if got := CAD(tt.in); got != tt.want {
			t.Errorf("CAD(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCADCompact(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2_300_000_000, "$2.3B"},
		{11_800_000, "$11.8M"},
		{950_000, "$950,000"},
	}
	for _, tt := range tests {
		if got := CADCompact(tt.in); got != tt.want {
			t.Errorf("CADCompact(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(0.305); got != "30.5%" {
		t.Errorf("Percent(0.305) = %q", got)
	}
}
