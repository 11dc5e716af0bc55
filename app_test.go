package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSmoke(t *testing.T) {
	report := runSmoke(newAppModel(appConfig{nick: "ada", user: "ada", real: "Ada L"}))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(report.json), &got))
	assert.Equal(t, true, got["ok"])
	assert.Equal(t, true, got["parseErrLogged"])
	assert.Equal(t, true, got["serverTabGotWelcome"])
	assert.Equal(t, true, got["chanTabGotChat"])
	assert.Equal(t, true, got["cycledHome"])

	assert.NotEmpty(t, report.view)
	assert.Contains(t, report.view, "__debug__")
	assert.GreaterOrEqual(t, report.final.findTab(chanTabID("irc.example.org", "#go")), 0)
}

func TestEnvBool(t *testing.T) {
	t.Setenv("TIRC_AUTO_QUERY", "1")
	assert.True(t, envBool("TIRC_AUTO_QUERY"))
	t.Setenv("TIRC_AUTO_QUERY", "off")
	assert.False(t, envBool("TIRC_AUTO_QUERY"))
	t.Setenv("TIRC_AUTO_QUERY", "TRUE")
	assert.True(t, envBool("TIRC_AUTO_QUERY"))
}
