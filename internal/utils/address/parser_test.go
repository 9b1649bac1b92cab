package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Components
	}{
		{
			name: "full US address",
			in:   "1200 Congress Ave, Austin, TX 78701, USA",
			want: Components{City: "Austin", Region: "TX", PostalCode: "78701", Country: "USA"},
		},
		{
			name: "zip plus four",
			in:   "55 Elm St, Springfield, IL 62701-1234, United States",
			want: Components{City: "Springfield", Region: "IL", PostalCode: "62701-1234", Country: "United States"},
		},
		{
			name: "canadian postal code is not matched",
			in:   "100 King St W, Toronto, ON M5X 1A9, Canada",
			want: Components{City: "Toronto", Region: "ON", PostalCode: Unknown, Country: "Canada"},
		},
		{
			name: "two segments have no city",
			in:   "TX 78701, USA",
			want: Components{City: Unknown, Region: "TX", PostalCode: "78701", Country: "USA"},
		},
		{
			name: "missing country shifts segments",
			in:   "1200 Congress Ave, Austin, TX 78701",
			want: Components{City: "1200 Congress Ave", Region: Unknown, PostalCode: Unknown, Country: "TX 78701"},
		},
		{
			name: "single segment",
			in:   "Somewhere",
			want: Components{City: Unknown, Region: Unknown, PostalCode: Unknown, Country: Unknown},
		},
		{
			name: "empty",
			in:   "",
			want: Components{City: Unknown, Region: Unknown, PostalCode: Unknown, Country: Unknown},
		},
		{
			name: "blank segments are ignored",
			in:   " , Austin ,  TX 78701 , USA, ",
			want: Components{City: "Austin", Region: "TX", PostalCode: "78701", Country: "USA"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestOrEmpty(t *testing.T) {
	assert.Equal(t, "", OrEmpty(Unknown))
	assert.Equal(t, "", OrEmpty(""))
	assert.Equal(t, "TX", OrEmpty("TX"))
	assert.False(t, IsKnown(Unknown))
}
