package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/MeKo-Tech/labelscan/internal/parser"
	"github.com/MeKo-Tech/labelscan/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultWithCredential() pipeline.Result {
	return pipeline.Result{
		RunID:   "run-1",
		State:   pipeline.StateDone,
		Regions: 2,
		Credentials: []parser.Credential{
			{Identifier: "HomeNet", Secret: "home-secret-1", Confidence: 0.9},
		},
	}
}

func TestPrintResult_TextFormat(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	require.NoError(t, printResult(cmd, "sticker.jpg", resultWithCredential(), "text"))
	out := buf.String()
	assert.Contains(t, out, "sticker.jpg: done, 2 region(s)")
	assert.Contains(t, out, "HomeNet / home-secret-1 (confidence 0.90)")
}

func TestPrintResult_TextFormatNoCredentials(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	result := pipeline.Result{State: pipeline.StateDone}
	require.NoError(t, printResult(cmd, "frame.png", result, "text"))
	assert.Contains(t, buf.String(), "no credentials found")
}

func TestPrintResult_JSONFormat(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	require.NoError(t, printResult(cmd, "sticker.jpg", resultWithCredential(), "json"))

	var decoded pipeline.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.Regions)
	require.Len(t, decoded.Credentials, 1)
	assert.Equal(t, "HomeNet", decoded.Credentials[0].Identifier)
}

func TestPrintResult_UnsupportedFormat(t *testing.T) {
	cmd := &cobra.Command{}
	err := printResult(cmd, "sticker.jpg", pipeline.Result{}, "xml")
	assert.Error(t, err)
}
