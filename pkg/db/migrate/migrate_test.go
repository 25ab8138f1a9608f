package migrate

import "testing"

func TestToDriverURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgresql://u:p@host:5432/db", "pgx://u:p@host:5432/db"},
		{"postgres://u:p@host/db?sslmode=disable", "pgx://u:p@host/db?sslmode=disable"},
		{"pgx://host/db", "pgx://host/db"},
	}
	for _, tt := range tests {
		if got := toDriverURL(tt.in); got != tt.want {
			t.Errorf("toDriverURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
