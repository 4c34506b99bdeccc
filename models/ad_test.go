package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		ad   AdData
		want []string
	}{
		{
			name: "all present",
			ad:   AdData{Title: "t", Description: "d", Postcode: "p"},
			want: nil,
		},
		{
			name: "all missing",
			ad:   AdData{},
			want: []string{"title", "description", "postcode"},
		},
		{
			name: "postcode only missing",
			ad:   AdData{Title: "t", Description: "d"},
			want: []string{"postcode"},
		},
		{
			name: "optional fields do not count",
			ad:   AdData{Title: "t", Description: "d", Postcode: "p", Price: "", ContactName: ""},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ad.MissingRequiredFields())
		})
	}
}
