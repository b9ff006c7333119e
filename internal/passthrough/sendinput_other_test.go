//go:build !windows

package passthrough

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSystemUnsupported(t *testing.T) {
	e, err := NewSystem()
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrUnsupported)
}
