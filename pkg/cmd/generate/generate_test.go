package generate

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/processing/bracket"
)

func TestGenerateCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := NewGenerateCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--batches", "2", "--max-participants", "4", "--log-level", "error"})
	require.NoError(t, cmd.Execute())

	var stages []*model.Stage
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &stages))
	require.Len(t, stages, 3)
	assert.Equal(t, bracket.QualifyingStageName, stages[0].Name)
	assert.Len(t, stages[0].Batches, 2)
	assert.Equal(t, "Final Grand Champion", stages[1].Name)
}

func TestGenerateCmdInvalid(t *testing.T) {
	cmd := NewGenerateCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--batches", "9", "--log-level", "error"})
	assert.ErrorIs(t, cmd.Execute(), bracket.ErrConfiguration)
}
