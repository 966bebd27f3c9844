package sanitizer

import "testing"

func TestNormalizeUserName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Alice Cooper  ",
			want:  "Alice Cooper",
		},
		{
			name:  "multiple spaces between words",
			input: "Alice    Cooper",
			want:  "Alice Cooper",
		},
		{
			name:  "tabs and newlines",
			input: "Alice\t\nCooper",
			want:  "Alice Cooper",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " José Ångström ",
			want:  "José Ångström",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeUserName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeUserName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
