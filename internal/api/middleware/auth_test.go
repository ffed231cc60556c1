package middleware

import "testing"

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"Valid bearer", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"Empty header", "", "", false},
		{"Missing prefix", "abc.def.ghi", "", false},
		{"Wrong scheme", "Basic abc", "", false},
		{"Prefix only", "Bearer ", "", false},
		{"Lowercase scheme", "bearer abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := bearerToken(tt.header)
			if ok != tt.ok || got != tt.want {
				t.Errorf("bearerToken(%q) = (%q, %v), want (%q, %v)", tt.header, got, ok, tt.want, tt.ok)
			}
		})
	}
}
