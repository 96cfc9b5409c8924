package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/mindmorass/clipstack/internal/clipboard"
	"github.com/mindmorass/clipstack/internal/storage"
)

const (
	// DropboxFilePath is the register file inside the app folder
	DropboxFilePath = "/Apps/Clipstack/current.clip"

	// KeychainService names the keychain entry holding Dropbox tokens
	KeychainService = "com.clipstack.dropbox"

	keychainAccount = "tokens"
)

// DropboxEndpoints are the Dropbox HTTP API base URLs
type DropboxEndpoints struct {
	API     string
	Content string
	Auth    string
	Token   string
}

// DefaultDropboxEndpoints are the production endpoints
var DefaultDropboxEndpoints = DropboxEndpoints{
	API:     "https://api.dropboxapi.com/2",
	Content: "https://content.dropboxapi.com/2",
	Auth:    "https://www.dropbox.com/oauth2/authorize",
	Token:   "https://api.dropboxapi.com/oauth2/token",
}

// TokenStore persists OAuth tokens between runs
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
	Delete() error
}

// KeychainTokens stores tokens in the macOS keychain
type KeychainTokens struct {
	Service string
	Account string
}

// Load reads the stored token
func (k KeychainTokens) Load() (*oauth2.Token, error) {
	data, err := loadFromKeychain(k.Service, k.Account)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("decode stored token: %w", err)
	}
	return &token, nil
}

// Save replaces the stored token
func (k KeychainTokens) Save(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return saveToKeychain(k.Service, k.Account, data)
}

// Delete removes the stored token
func (k KeychainTokens) Delete() error {
	return deleteFromKeychain(k.Service, k.Account)
}

// savingTokenSource persists every newly issued token
type savingTokenSource struct {
	base  oauth2.TokenSource
	store TokenStore

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if err := s.store.Save(token); err != nil {
			return nil, fmt.Errorf("save refreshed token: %w", err)
		}
	}
	return token, nil
}

// Dropbox keeps the register in a Dropbox file
type Dropbox struct {
	Endpoints DropboxEndpoints
	Tokens    TokenStore
	Path      string

	oauth  *oauth2.Config
	client *http.Client
	mu     sync.Mutex
}

// NewDropbox creates a Dropbox backend storing tokens in the keychain
func NewDropbox(appKey, appSecret string) *Dropbox {
	b := &Dropbox{
		Endpoints: DefaultDropboxEndpoints,
		Tokens:    KeychainTokens{Service: KeychainService, Account: keychainAccount},
		Path:      DropboxFilePath,
	}
	b.oauth = &oauth2.Config{
		ClientID:     appKey,
		ClientSecret: appSecret,
	}
	return b
}

func (b *Dropbox) config() *oauth2.Config {
	cfg := *b.oauth
	cfg.Endpoint = oauth2.Endpoint{
		AuthURL:   b.Endpoints.Auth,
		TokenURL:  b.Endpoints.Token,
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return &cfg
}

// Type returns TypeDropbox
func (b *Dropbox) Type() Type {
	return TypeDropbox
}

// Location returns dropbox:<path>
func (b *Dropbox) Location() string {
	return "dropbox:" + b.Path
}

// Init loads the stored token and builds an auto-refreshing HTTP client
func (b *Dropbox) Init(ctx context.Context) error {
	if b.oauth.ClientID == "" {
		return fmt.Errorf("%w: Dropbox app key", ErrNotConfigured)
	}

	token, err := b.Tokens.Load()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	b.connect(ctx, token)
	return nil
}

func (b *Dropbox) connect(ctx context.Context, token *oauth2.Token) {
	ctx = context.WithoutCancel(ctx)
	src := &savingTokenSource{
		base:  b.config().TokenSource(ctx, token),
		store: b.Tokens,
		last:  token.AccessToken,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.client = oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, src))
	b.client.Timeout = 30 * time.Second
}

func (b *Dropbox) httpClient() *http.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client
}

// AuthURL returns the URL the user visits to authorize offline access
func (b *Dropbox) AuthURL(state string) string {
	return b.config().AuthCodeURL(state, oauth2.SetAuthURLParam("token_access_type", "offline"))
}

// Exchange trades an authorization code for tokens and stores them
func (b *Dropbox) Exchange(ctx context.Context, code string) error {
	token, err := b.config().Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}
	if err := b.Tokens.Save(token); err != nil {
		return err
	}
	b.connect(ctx, token)
	return nil
}

// Logout forgets the stored tokens
func (b *Dropbox) Logout() error {
	b.mu.Lock()
	b.client = nil
	b.mu.Unlock()
	return b.Tokens.Delete()
}

// IsAuthenticated reports whether Init or Exchange succeeded
func (b *Dropbox) IsAuthenticated() bool {
	return b.httpClient() != nil
}

// Close is a no-op
func (b *Dropbox) Close() error {
	return nil
}

func (b *Dropbox) apiArg() string {
	arg, _ := json.Marshal(map[string]string{"path": b.Path})
	return string(arg)
}

// Write uploads the record in overwrite mode
func (b *Dropbox) Write(ctx context.Context, content *clipboard.Content) error {
	client := b.httpClient()
	if client == nil {
		return ErrNotConfigured
	}

	data, err := storage.Encode(content)
	if err != nil {
		return fmt.Errorf("encode register: %w", err)
	}

	arg, err := json.Marshal(map[string]any{
		"path":       b.Path,
		"mode":       "overwrite",
		"autorename": false,
		"mute":       true,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Endpoints.Content+"/files/upload", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Dropbox-API-Arg", string(arg))

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusConflict:
		return ErrConflict
	default:
		return statusError("upload", resp)
	}
}

// Read downloads and decodes the record
func (b *Dropbox) Read(ctx context.Context) (*clipboard.Content, error) {
	client := b.httpClient()
	if client == nil {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Endpoints.Content+"/files/download", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Dropbox-API-Arg", b.apiArg())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil, conflictError("download", resp)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("download", resp)
	}

	content, err := storage.Read(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode register: %w", err)
	}
	return content, nil
}

type dropboxMetadata struct {
	Rev            string    `json:"rev"`
	ContentHash    string    `json:"content_hash"`
	ServerModified time.Time `json:"server_modified"`
	Size           int64     `json:"size"`
}

// ModTime returns the file's server_modified time
func (b *Dropbox) ModTime(ctx context.Context) (time.Time, error) {
	client := b.httpClient()
	if client == nil {
		return time.Time{}, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Endpoints.API+"/files/get_metadata", strings.NewReader(b.apiArg()))
	if err != nil {
		return time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("get_metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return time.Time{}, conflictError("get_metadata", resp)
	}
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, statusError("get_metadata", resp)
	}

	var meta dropboxMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return time.Time{}, fmt.Errorf("decode metadata: %w", err)
	}
	return meta.ServerModified, nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%s failed with status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}

// conflictError maps Dropbox's 409 path/not_found to ErrNotFound
func conflictError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if isDropboxNotFound(body) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w: %s", op, ErrConflict, strings.TrimSpace(string(body)))
}

func isDropboxNotFound(body []byte) bool {
	var errResp struct {
		Error struct {
			Path struct {
				Tag string `json:".tag"`
			} `json:"path"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Path.Tag != "" {
		return errResp.Error.Path.Tag == "not_found"
	}
	return strings.Contains(string(body), "not_found")
}
