package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartSessionBind(t *testing.T) {
	assert.Error(t, (&StartSession{}).Bind(nil))
	assert.NoError(t, (&StartSession{Scenario: "checkout", Device: "scanner-1"}).Bind(nil))
}

func TestSessionEventBind(t *testing.T) {
	assert.Error(t, (&SessionEvent{}).Bind(nil))
	assert.NoError(t, (&SessionEvent{Event: "scan"}).Bind(nil))
}
