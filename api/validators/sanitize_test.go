package validators

import "testing"

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"trims", "  Toyota ", 0, "Toyota"},
		{"collapses spaces", "Land \t  Rover", 0, "Land Rover"},
		{"drops control chars", "Mazda\x00\x07", 0, "Mazda"},
		{"truncates runes", "Škoda Octavia", 5, "Škoda"},
		{"empty", "   ", 10, ""},
	}
	for _, tc := range cases {
		if got := SanitizeString(tc.input, tc.max); got != tc.want {
			t.Fatalf("%s: expected %q got %q", tc.name, tc.want, got)
		}
	}
}
