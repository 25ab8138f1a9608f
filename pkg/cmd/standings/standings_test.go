package standings

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/processing/standings"
)

const snapshotYaml = `
batch: Batch 1
races:
  - {id: 1, order: 1}
  - {id: 2, order: 2}
participants:
  - {id: 1, name: Ayu}
  - {id: 2, name: Bunga}
results:
  - {raceId: 1, participantId: 1, position: 1}
  - {raceId: 1, participantId: 2, position: 2}
  - {raceId: 2, participantId: 1, position: 1}
  - {raceId: 2, participantId: 2, position: 2}
`

func run(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewStandingsCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--log-level", "error"))
	return &buf, cmd.Execute()
}

func TestStandingsFromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(file, []byte(snapshotYaml), 0o600))

	buf, err := run(t, "--input", file, "--output", "json")
	require.NoError(t, err)

	var got []standings.Standing
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Ayu", got[0].Participant.Name)
	assert.Equal(t, 2, got[0].Score)
	assert.Equal(t, 2, got[1].FinalPosition)
}

func TestStandingsInvalidFlags(t *testing.T) {
	_, err := run(t, "--input", "unused.yaml", "--mode", "fastest")
	assert.ErrorIs(t, err, standings.ErrUnknownMode)

	_, err = run(t, "--mode", "tiebreak", "--input", "")
	assert.Error(t, err)
}
