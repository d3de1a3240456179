package tools

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = "transmission_list_torrents"
	req.Params.Arguments = args
	return req
}

func TestParseCriteria(t *testing.T) {
	t.Parallel()

	c, err := parseCriteria(toolRequest(map[string]any{
		"running":  "false",
		"status":   "8",
		"speed_up": "true",
	}))
	require.NoError(t, err)

	require.NotNil(t, c.Running)
	assert.False(t, *c.Running)
	require.NotNil(t, c.Status)
	assert.Equal(t, 8, *c.Status)
	assert.True(t, c.SpeedUp)
	assert.False(t, c.SpeedDown)
	assert.False(t, c.Speed)
}

func TestParseCriteriaEmptyRequest(t *testing.T) {
	t.Parallel()

	c, err := parseCriteria(toolRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestParseCriteriaRejectsBadValues(t *testing.T) {
	t.Parallel()

	_, err := parseCriteria(toolRequest(map[string]any{"status": "seeding"}))
	assert.ErrorContains(t, err, "invalid status")

	_, err = parseCriteria(toolRequest(map[string]any{"speed": "maybe"}))
	assert.ErrorContains(t, err, "invalid boolean")
}

func TestParseObject(t *testing.T) {
	t.Parallel()

	obj, err := parseObject(`{"speed-limit-down": 500}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"speed-limit-down": 500.0}, obj)

	_, err = parseObject("")
	assert.ErrorContains(t, err, "required")

	_, err = parseObject("[1]")
	assert.ErrorContains(t, err, "invalid properties JSON")
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"id", "name"}, splitList(" id, ,name,"))
	assert.Nil(t, splitList(""))
}
