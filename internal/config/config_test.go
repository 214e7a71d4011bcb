package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<API REQUEST_DUMP="true">
  <CONTEXT><PORT>9090</PORT><HOST>127.0.0.1</HOST></CONTEXT>
  <AUTHENTICATION>
    <ACCESS_SECRET TYPE="env">LEXIQ_TEST_SECRET</ACCESS_SECRET>
    <ACCESS_TOKEN_TTL>30</ACCESS_TOKEN_TTL>
    <RATE_LIMIT RPS="2.5" BURST="4"/>
  </AUTHENTICATION>
  <DB>
    <HOST>db</HOST><PORT>5433</PORT><NAME>lexiq</NAME><USERNAME>app</USERNAME>
    <PASSWORD TYPE="plain">s3cret</PASSWORD><SSL_MODE>disable</SSL_MODE>
  </DB>
  <ENGLISH_TEST>
    <DIAGNOSTIC_PER_LEVEL>3</DIAGNOSTIC_PER_LEVEL>
    <PASS_THRESHOLD>0.7</PASS_THRESHOLD>
  </ENGLISH_TEST>
</API>`

func TestParse(t *testing.T) {
	t.Setenv("LEXIQ_TEST_SECRET", "from-env")

	c, err := Parse([]byte(sampleXML))
	require.NoError(t, err)

	assert.True(t, c.RequestDump)
	assert.Equal(t, 9090, c.Context.Port)
	assert.Equal(t, "from-env", c.Authentication.AccessSecret.Resolve())
	assert.Equal(t, 30*time.Minute, c.Authentication.AccessTTL())
	assert.Equal(t, 2.5, c.Authentication.RateLimit.RPS)
	assert.Equal(t, 4, c.Authentication.RateLimit.Burst)
	assert.Contains(t, c.DB.DSN(), "password=s3cret")
	assert.Contains(t, c.DB.DSN(), "port=5433")

	// explicit values win, missing ones fall back to defaults
	assert.Equal(t, 3, c.EnglishTest.DiagnosticPerLevel)
	assert.Equal(t, 0.7, c.EnglishTest.PassThreshold)
	assert.Equal(t, 8, c.EnglishTest.ProgressionCurrent)
	assert.Equal(t, 7, c.EnglishTest.ProgressionNext)
	assert.Equal(t, 10, c.EnglishTest.HistoryLimit)
	assert.Equal(t, "token_blacklist", c.Redis.BlacklistKey)

	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	c := Default()
	assert.Error(t, c.Validate(), "empty secret must be rejected")

	c.Authentication.AccessSecret = Secret{Value: "x"}
	assert.NoError(t, c.Validate())

	c.EnglishTest.PassThreshold = 1.5
	assert.Error(t, c.Validate())
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("<API><CONTEXT>"))
	assert.Error(t, err)
}
