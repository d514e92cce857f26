package engine

import (
	"testing"

	apperrors "github.com/kweiss/resticpilot/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSnapshots(t *testing.T) {
	out := `[
  {"id":"aabbccdd00112233","short_id":"aabbccdd","time":"2026-08-20T02:00:00Z","hostname":"nas","paths":["/data"],"tags":["nightly"]},
  {"id":"eeff001122334455","short_id":"eeff0011","time":"2026-08-21T02:00:00Z","hostname":"nas","paths":["/data"]}
]`

	snaps, err := ParseSnapshots(out)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "aabbccdd", snaps[0].ShortID)
	assert.Equal(t, []string{"nightly"}, snaps[0].Tags)
}

func TestParseSnapshots_Invalid(t *testing.T) {
	_, err := ParseSnapshots("warning: exclusive lock\n[{]")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindParse))
	// Raw engine noise never leaks into the message.
	assert.Equal(t, "failed to parse snapshot data", err.Error())
}

func TestParseNodes(t *testing.T) {
	out := `{"struct_type":"snapshot","id":"aabbccdd","time":"2026-08-20T02:00:00Z"}
{"struct_type":"node","name":"docs","type":"dir","path":"/G/docs"}
{"struct_type":"node","name":"report.pdf","type":"file","path":"/G/docs/report.pdf","size":52341,"mtime":"2026-08-19T17:00:00Z"}
this line is not json
`

	nodes := ParseNodes(out)
	require.Len(t, nodes, 2)
	assert.Equal(t, "dir", nodes[0].Type)
	assert.Equal(t, "/G/docs/report.pdf", nodes[1].Path)
	assert.Equal(t, uint64(52341), nodes[1].Size)
}
