package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ScanFlow/entity"
	"ScanFlow/scenario"
)

func TestSessionPositionKeepsJSONTypes(t *testing.T) {
	rec := &entity.SessionRecord{
		Scenario: "checkout",
		Device:   "scanner-1",
		State:    "select_line",
		Data: map[scenario.StateName]scenario.Data{
			"select_line": {
				"picking":    map[string]any{"id": 12, "name": "OUT/0012"},
				"move_lines": []any{map[string]any{"id": 3}, map[string]any{"id": 4}},
			},
		},
		Vars: map[string]any{"last_scan": "LOC-1"},
	}

	doc, err := encodeSession(rec)
	require.NoError(t, err)
	assert.False(t, rec.UpdatedAt.IsZero())

	out, err := decodeSession(doc)
	require.NoError(t, err)

	assert.Equal(t, scenario.StateName("select_line"), out.State)
	bag := out.Data["select_line"]
	assert.Equal(t, 12, bag.Map("picking").Int("id"))
	assert.Equal(t, []int{3, 4}, bag.IDs("move_lines"))
	assert.Equal(t, "LOC-1", out.Vars["last_scan"])
}

func TestDecodeSessionWithoutPosition(t *testing.T) {
	out, err := decodeSession(&sessionDocument{SessionRecord: entity.SessionRecord{State: "init"}})
	require.NoError(t, err)
	assert.Nil(t, out.Data)
	assert.Equal(t, scenario.StateName("init"), out.State)
}
