package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Restoration", "acme-restoration"},
		{"  Acme   Restoration  ", "acme-restoration"},
		{"Café Olé & Sons", "cafe-ole-sons"},
		{"Joe's Plumbing, LLC.", "joes-plumbing-llc"},
		{"A--B__C", "a-b-c"},
		{"Route 66 Repair", "route-66-repair"},
		{"Ångström Dry-Out", "angstrom-dry-out"},
		{"水管维修", Fallback},
		{"!!!", Fallback},
		{"", Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}
