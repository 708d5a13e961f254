package session

import "testing"

func TestScrollNearBottom(t *testing.T) {
	tests := []struct {
		name      string
		scroll    Scroll
		threshold int
		want      bool
	}{
		{"at top of long page", Scroll{Top: 0, ViewportHeight: 800, DocumentHeight: 5000}, 300, false},
		{"exactly at threshold", Scroll{Top: 1900, ViewportHeight: 800, DocumentHeight: 3000}, 300, true},
		{"just above threshold", Scroll{Top: 1899, ViewportHeight: 800, DocumentHeight: 3000}, 300, false},
		{"at document bottom", Scroll{Top: 2200, ViewportHeight: 800, DocumentHeight: 3000}, 300, true},
		{"short page fits viewport", Scroll{Top: 0, ViewportHeight: 800, DocumentHeight: 600}, 300, true},
		{"zero document height", Scroll{Top: 0, ViewportHeight: 800, DocumentHeight: 0}, 300, false},
		{"zero threshold uses default", Scroll{Top: 1900, ViewportHeight: 800, DocumentHeight: 3000}, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.scroll.NearBottom(tc.threshold); got != tc.want {
				t.Errorf("NearBottom(%d) = %v, want %v", tc.threshold, got, tc.want)
			}
		})
	}
}
