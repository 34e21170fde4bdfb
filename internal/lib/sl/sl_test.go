package sl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecret(t *testing.T) {
	assert.Equal(t, "abc***xyz", Secret("key", "abcdefghijxyz").Value.String())
	assert.Equal(t, "***", Secret("key", "short").Value.String())
	assert.Equal(t, "", Secret("key", "").Value.String())
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "boom", attr.Value.String())
	assert.Equal(t, "", Err(nil).Value.String())
}
