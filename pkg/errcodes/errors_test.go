package errcodes

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{"direct match", NotFound("Book"), CodeNotFound, true},
		{"wrapped match", errors.WithStack(ValidationError("bad")), CodeValidation, true},
		{"different code", NotFound("Book"), CodeValidation, false},
		{"plain error", errors.New("boom"), CodeNotFound, false},
		{"persistence keeps code", PersistenceFailed("Book", errors.New("disk full")), CodePersistenceFailed, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HasCode(tt.err, tt.code))
		})
	}
}

func TestIs(t *testing.T) {
	t.Parallel()

	err := errors.WithStack(NotFound("Author"))
	assert.ErrorIs(t, err, NotFound("Author"))
	assert.NotErrorIs(t, err, NotFound("Series"))
}

func TestPersistenceFailed_Message(t *testing.T) {
	t.Parallel()

	err := PersistenceFailed("Book", errors.New("disk full"))
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "Book could not be persisted")
}
