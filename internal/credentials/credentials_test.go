package credentials

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetClaudeToken_ReadsCredentialsFile(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("keychain path is used on darwin, not the credentials file")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".claude")
	require.NoError(t, os.MkdirAll(dir, 0755))
	payload := `{"claudeAiOauth":{"accessToken":"tok-123","expiresAt":999999}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".credentials.json"), []byte(payload), 0600))

	token, err := GetClaudeToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	assert.True(t, AnthropicOAuthCredentialsExist())
}

func TestGetClaudeToken_MissingFile(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("keychain path is used on darwin, not the credentials file")
	}
	t.Setenv("HOME", t.TempDir())

	_, err := GetClaudeToken()
	assert.Error(t, err)
	assert.False(t, AnthropicOAuthCredentialsExist())
}

func TestGetCodexCredentials_PrefersOAuthToken(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".codex")
	require.NoError(t, os.MkdirAll(dir, 0755))
	payload := `{"tokens":{"access_token":"oauth-tok","account_id":"acct-1"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.json"), []byte(payload), 0600))

	creds, err := GetCodexCredentials()
	require.NoError(t, err)
	assert.Equal(t, "oauth-tok", creds.AccessToken)
	assert.Equal(t, "acct-1", creds.AccountID)
}

func TestGetCodexCredentials_FallsBackToAPIKey(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".codex")
	require.NoError(t, os.MkdirAll(dir, 0755))
	payload := `{"OPENAI_API_KEY":"sk-test-key"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.json"), []byte(payload), 0600))

	creds, err := GetCodexCredentials()
	require.NoError(t, err)
	assert.Equal(t, "sk-test-key", creds.AccessToken)
	assert.Empty(t, creds.AccountID)
}

func TestGetCodexCredentials_MissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := GetCodexCredentials()
	assert.Error(t, err)
}

func TestGetCodexToken_WrapsAccessToken(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".codex")
	require.NoError(t, os.MkdirAll(dir, 0755))
	payload := `{"tokens":{"access_token":"oauth-tok"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.json"), []byte(payload), 0600))

	token, err := GetCodexToken()
	require.NoError(t, err)
	assert.Equal(t, "oauth-tok", token)
}

func TestGetGeminiOAuthCredentials_Success(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".gemini")
	require.NoError(t, os.MkdirAll(dir, 0755))
	payload := `{"access_token":"gtok","refresh_token":"rtok","expiry_date":123}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "oauth_creds.json"), []byte(payload), 0600))

	creds, err := GetGeminiOAuthCredentials()
	require.NoError(t, err)
	assert.Equal(t, "gtok", creds.AccessToken)
	assert.Equal(t, "rtok", creds.RefreshToken)
}

func TestGetGeminiOAuthCredentials_MissingRefreshToken(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".gemini")
	require.NoError(t, os.MkdirAll(dir, 0755))
	payload := `{"access_token":"gtok"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "oauth_creds.json"), []byte(payload), 0600))

	_, err := GetGeminiOAuthCredentials()
	assert.Error(t, err)
}

func TestGetGeminiOAuthCredentials_NotFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := GetGeminiOAuthCredentials()
	assert.Error(t, err)
}

func TestGetGeminiCredentials_AlwaysErrors(t *testing.T) {
	_, err := GetGeminiCredentials()
	assert.Error(t, err)
}
