package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"nil slice", nil, nil},
		{"empty slice", []string{}, []string{}},
		{"sink list", []string{" File", "redis", "file", "", "  ", "KAFKA"}, []string{"file", "redis", "kafka"}},
		{"only blanks", []string{" ", ""}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrimLower(tt.input))
		})
	}
}
