package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/mindmorass/clipstack/internal/app"
	"github.com/mindmorass/clipstack/internal/backend"
)

type memTokens struct {
	mu    sync.Mutex
	token *oauth2.Token
}

func (m *memTokens) Load() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return nil, errors.New("no token")
	}
	return m.token, nil
}

func (m *memTokens) Save(token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memTokens) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	return nil
}

func (m *memTokens) accessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return ""
	}
	return m.token.AccessToken
}

// stubDropbox points the dropbox commands at a local token endpoint that
// accepts the code "good-code"
func stubDropbox(t *testing.T) *memTokens {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth2/token", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		assert.Equal(t, "app-key", r.PostForm.Get("client_id"))
		io.WriteString(w, `{"access_token":"access-1","token_type":"bearer","refresh_token":"refresh-1","expires_in":14400}`)
	}))
	t.Cleanup(srv.Close)

	tokens := &memTokens{}
	orig := newDropbox
	newDropbox = func(cfg *app.Config) *backend.Dropbox {
		db := backend.NewDropbox(cfg.DropboxAppKey, cfg.DropboxAppSecret)
		db.Endpoints = backend.DropboxEndpoints{
			API:     srv.URL + "/2",
			Content: srv.URL + "/2",
			Auth:    srv.URL + "/oauth2/authorize",
			Token:   srv.URL + "/oauth2/token",
		}
		db.Tokens = tokens
		return db
	}
	t.Cleanup(func() { newDropbox = orig })

	return tokens
}

func dropboxConfig(t *testing.T, appKey string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	config := fmt.Sprintf("backend_type: dropbox\ndropbox_app_key: %q\ndropbox_app_secret: secret\n", appKey)
	require.NoError(t, os.WriteFile(path, []byte(config), 0600))
	return path
}

func TestDropboxCommandPresence(t *testing.T) {
	cmd := NewRootCommand("1.2.3")
	for _, name := range []string{"login", "logout", "status"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{"dropbox", name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestDropboxLogin_PromptsForCode(t *testing.T) {
	tokens := stubDropbox(t)
	configPath := dropboxConfig(t, "app-key")

	out, err := execute(t, "good-code\n", "--config", configPath, "--format", "json", "dropbox", "login")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   DropboxStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Authenticated)
	assert.Equal(t, "dropbox:"+backend.DropboxFilePath, resp.Data.Location)
	assert.Equal(t, "access-1", tokens.accessToken())
}

func TestDropboxLogin_CodeFlag(t *testing.T) {
	tokens := stubDropbox(t)
	configPath := dropboxConfig(t, "app-key")

	out, err := execute(t, "", "--config", configPath, "dropbox", "login", "--code", "good-code")
	require.NoError(t, err)
	assert.Equal(t, "Dropbox: authenticated (dropbox:"+backend.DropboxFilePath+")\n", out)
	assert.Equal(t, "access-1", tokens.accessToken())
}

func TestDropboxLogin_RejectedCode(t *testing.T) {
	tokens := stubDropbox(t)
	configPath := dropboxConfig(t, "app-key")

	_, err := execute(t, "", "--config", configPath, "dropbox", "login", "--code", "stale")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Empty(t, tokens.accessToken())
}

func TestDropboxLogin_Errors(t *testing.T) {
	stubDropbox(t)

	_, err := execute(t, "", "--config", dropboxConfig(t, ""), "dropbox", "login", "--code", "good-code")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "dropbox_app_key")

	_, err = execute(t, "\n", "--config", dropboxConfig(t, "app-key"), "dropbox", "login")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDropboxStatusAndLogout(t *testing.T) {
	tokens := stubDropbox(t)
	configPath := dropboxConfig(t, "app-key")

	out, err := execute(t, "", "--config", configPath, "dropbox", "status")
	require.NoError(t, err)
	assert.Equal(t, "Dropbox: not authenticated\n", out)

	_, err = execute(t, "", "--config", configPath, "dropbox", "login", "--code", "good-code")
	require.NoError(t, err)

	out, err = execute(t, "", "--config", configPath, "dropbox", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Dropbox: authenticated")

	out, err = execute(t, "", "--config", configPath, "dropbox", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Dropbox: not authenticated\n", out)
	assert.Empty(t, tokens.accessToken())
}
