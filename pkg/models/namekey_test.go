package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"Isaac Asimov", "isaac asimov"},
		{"  ISAAC   asimov ", "isaac asimov"},
		{"Gabriel García Márquez", "gabriel garcía márquez"},
		// decomposed accents compare equal to precomposed ones
		{"Garci\u0301a", "garcía"},
		{"STRASSE", "strasse"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NameKey(tt.input))
		})
	}
}
