package minierr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFormatsMessage(t *testing.T) {
	err := New(Schema, "unknown column %q", "foo")
	assert.Equal(t, `SCHEMA: unknown column "foo"`, err.Error())
}

func TestWrapPreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(IO, cause, "writing file %q", "t.csv")
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "boom")
}
