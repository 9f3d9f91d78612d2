package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const stream = `{"type":"hill.configure","t":10,"object_id":"hill-1","duration":5,"required_item_id":"gold","required_item_increment":2}
{"type":"hill.claim","t":10,"object_id":"hill-1","actor":"alice","deposit":{"proof_id":"p-1","item_id":"gold","quantity":2}}
{"type":"hill.resolve","t":15,"object_id":"hill-1","actor":"bob"}
`

func TestReplayCommand_TextFromStdin(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetIn(strings.NewReader(stream))
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "hill hill-1 epoch=10 state=claimed holder=alice pot=2 claimed=true")
	require.Contains(t, out.String(), "-> alice 2 gold")
}

func TestReplayCommand_JSONFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(stream), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "json", path})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), `"recipient": "alice"`)
	require.Contains(t, out.String(), `"state": "claimed"`)
}

func TestReplayCommand_StopOnError(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetIn(strings.NewReader(stream + `{"type":"hill.resolve","t":16,"object_id":"hill-1","actor":"alice"}` + "\n"))
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--stop-on-error"})

	err := cmd.Execute()
	require.ErrorContains(t, err, "already claimed")
	require.Contains(t, out.String(), "rejected #3 hill.resolve")
}

func TestReplayCommand_RejectsUnknownFormat(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stream))
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "yaml"})

	require.ErrorContains(t, cmd.Execute(), "unsupported format")
}
