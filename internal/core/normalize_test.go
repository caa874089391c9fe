package core

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"John Smith", "john smith"},
		{"  JOHN   smith ", "john smith"},
		{"José Álvarez", "jose alvarez"},
		{"O'Neil-Smith", "oneil smith"},
		{"J.R. Ewing", "jr ewing"},
		{"Straße", "strasse"},
		{"Team Alpha #2", "team alpha 2"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		in, first, last string
	}{
		{"John Smith", "John", "Smith"},
		{"Smith, John", "John", "Smith"},
		{"Mary Ann Jones", "Mary Ann", "Jones"},
		{"Cher", "", "Cher"},
		{"  ", "", ""},
	}
	for _, tt := range tests {
		first, last := splitFullName(tt.in)
		if first != tt.first || last != tt.last {
			t.Errorf("splitFullName(%q) = (%q, %q), want (%q, %q)", tt.in, first, last, tt.first, tt.last)
		}
	}
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"\ufeffFirst_Name", "first name"},
		{`="Lane #"`, "lane #"},
		{"E-Mail", "e mail"},
		{"  Bowler   ID ", "bowler id"},
	}
	for _, tt := range tests {
		if got := normalizeHeader(tt.in); got != tt.want {
			t.Errorf("normalizeHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
