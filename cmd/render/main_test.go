package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVec3(t *testing.T) {
	tests := []struct {
		in      string
		want    [3]float64
		wantErr bool
	}{
		{"1,2,3", [3]float64{1, 2, 3}, false},
		{" (0, -90.5, 1e-1) ", [3]float64{0, -90.5, 0.1}, false},
		{"1,2", [3]float64{}, true},
		{"1,x,3", [3]float64{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseVec3(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
