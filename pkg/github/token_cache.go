package github

import (
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/mitchellh/go-homedir"
	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"

	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

const (
	// KeyringService is the keychain service name. Accounts are cache keys.
	KeyringService = "gitmoto-github"

	// TokenCacheDir is the directory for the token file, under the home directory.
	TokenCacheDir = ".config/gitmoto" //nolint:gosec // Not a credential, just a directory name
	// TokenCacheFile holds every login that could not go to the keychain.
	TokenCacheFile = "github-tokens.json" //nolint:gosec // Not a credential, just a filename
)

// StoreKind names the backing store a cached login was read from.
type StoreKind string

const (
	StoreKeychain StoreKind = "keychain"
	StoreFile     StoreKind = "file"
)

// CacheKey identifies a login: one token per GitHub host and OAuth app.
type CacheKey struct {
	Host     string
	ClientID string
}

// NewCacheKey builds a key from a host URL such as "https://github.com" or a
// bare host name. An empty host means github.com.
func NewCacheKey(hostURL, clientID string) CacheKey {
	host := strings.TrimSpace(hostURL)
	if host == "" {
		host = DefaultGitHubHost
	}
	if u, err := url.Parse(host); err == nil && u.Host != "" {
		host = u.Host
	}
	return CacheKey{Host: strings.ToLower(strings.TrimSuffix(host, "/")), ClientID: clientID}
}

func (k CacheKey) String() string {
	return k.Host + "/" + k.ClientID
}

// CachedToken is a login read back from a cache.
type CachedToken struct {
	Token   *oauth2.Token
	Key     CacheKey
	Store   StoreKind
	SavedAt time.Time
}

// TokenCache stores the OAuth token for one CacheKey.
type TokenCache interface {
	// Get returns nil, nil when nothing is cached.
	Get() (*CachedToken, error)
	Set(token *oauth2.Token) error
	Clear() error
}

// storedToken is the serialized form in both stores.
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

func (s storedToken) cached(key CacheKey, store StoreKind) *CachedToken {
	return &CachedToken{
		Token: &oauth2.Token{
			AccessToken:  s.AccessToken,
			TokenType:    s.TokenType,
			RefreshToken: s.RefreshToken,
			Expiry:       s.Expiry,
		},
		Key:     key,
		Store:   store,
		SavedAt: s.SavedAt,
	}
}

func newStoredToken(t *oauth2.Token) storedToken {
	return storedToken{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
		SavedAt:      time.Now().UTC(),
	}
}

// CacheOption configures the cache returned by NewTokenCache.
type CacheOption func(*LoginCache)

// WithCacheLogger sets the logger used when the keychain is unavailable.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *LoginCache) {
		c.logger = logger
	}
}

// WithCacheFile overrides the token file path.
func WithCacheFile(path string) CacheOption {
	return func(c *LoginCache) {
		c.file = NewFileTokenCache(path, c.key)
	}
}

// LoginCache keeps a login in the system keychain. The first keychain failure
// switches it to the token file for the rest of the process.
type LoginCache struct {
	key      CacheKey
	keychain *KeychainTokenCache
	file     *FileTokenCache
	logger   *slog.Logger

	mu      sync.Mutex
	useFile bool
}

// NewTokenCache creates the login cache for key.
func NewTokenCache(key CacheKey, opts ...CacheOption) *LoginCache {
	c := &LoginCache{
		key:      key,
		keychain: NewKeychainTokenCache(key),
		file:     NewFileTokenCache(tokenCachePath(), key),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get reads the keychain, then the token file. A login saved to the file by
// an earlier fallback is still found when the keychain has nothing.
func (c *LoginCache) Get() (*CachedToken, error) {
	if !c.fileOnly() {
		token, err := c.keychain.Get()
		switch {
		case err != nil:
			c.fallBack("read", err)
		case token != nil:
			return token, nil
		}
	}
	return c.file.Get()
}

// Set saves to the keychain, or to the token file once the keychain failed.
func (c *LoginCache) Set(token *oauth2.Token) error {
	if !c.fileOnly() {
		err := c.keychain.Set(token)
		if err == nil {
			return nil
		}
		c.fallBack("write", err)
	}
	return c.file.Set(token)
}

// Clear removes the login from both stores.
func (c *LoginCache) Clear() error {
	if !c.fileOnly() {
		if err := c.keychain.Clear(); err != nil {
			c.fallBack("clear", err)
		}
	}
	return c.file.Clear()
}

func (c *LoginCache) fileOnly() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.useFile
}

func (c *LoginCache) fallBack(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.useFile {
		return
	}
	c.useFile = true
	c.logger.Debug("keychain unavailable, using token file",
		"op", op,
		"key", c.key.String(),
		"path", c.file.path,
		"error", err,
	)
}

// KeychainTokenCache uses macOS keychain / Linux secret service / Windows credential manager.
type KeychainTokenCache struct {
	key CacheKey
}

// NewKeychainTokenCache stores the login for key under KeyringService.
func NewKeychainTokenCache(key CacheKey) *KeychainTokenCache {
	return &KeychainTokenCache{key: key}
}

// Get retrieves the cached token from keychain.
func (k *KeychainTokenCache) Get() (*CachedToken, error) {
	data, err := keyring.Get(KeyringService, k.key.String())
	if err != nil {
		if gmerrors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, gmerrors.NewGitHubErrorWithCause("TokenCache.Get", "failed to read from keychain", err)
	}

	var stored storedToken
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, gmerrors.NewGitHubErrorWithCause("TokenCache.Get", "failed to parse cached token", err)
	}
	return stored.cached(k.key, StoreKeychain), nil
}

// Set stores the token in keychain.
func (k *KeychainTokenCache) Set(token *oauth2.Token) error {
	data, err := json.Marshal(newStoredToken(token))
	if err != nil {
		return gmerrors.NewGitHubErrorWithCause("TokenCache.Set", "failed to serialize token", err)
	}
	if err := keyring.Set(KeyringService, k.key.String(), string(data)); err != nil {
		return gmerrors.NewGitHubErrorWithCause("TokenCache.Set", "failed to save to keychain", err)
	}
	return nil
}

// Clear removes the token from keychain.
func (k *KeychainTokenCache) Clear() error {
	err := keyring.Delete(KeyringService, k.key.String())
	if err != nil && !gmerrors.Is(err, keyring.ErrNotFound) {
		return gmerrors.NewGitHubErrorWithCause("TokenCache.Clear", "failed to clear keychain", err)
	}
	return nil
}

// FileTokenCache keeps logins in one JSON file, an object keyed by
// CacheKey.String(). Other keys in the file are preserved.
type FileTokenCache struct {
	path string
	key  CacheKey
}

// NewFileTokenCache creates a file cache for key at path.
func NewFileTokenCache(path string, key CacheKey) *FileTokenCache {
	return &FileTokenCache{path: path, key: key}
}

// Get retrieves the login for the cache key.
func (f *FileTokenCache) Get() (*CachedToken, error) {
	entries, err := f.load()
	if err != nil {
		return nil, err
	}
	stored, ok := entries[f.key.String()]
	if !ok {
		return nil, nil
	}
	return stored.cached(f.key, StoreFile), nil
}

// Set stores the login with restrictive permissions.
func (f *FileTokenCache) Set(token *oauth2.Token) error {
	entries, err := f.load()
	if err != nil {
		return err
	}
	entries[f.key.String()] = newStoredToken(token)
	return f.save(entries)
}

// Clear removes the login. The file goes when its last login does.
func (f *FileTokenCache) Clear() error {
	entries, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := entries[f.key.String()]; !ok {
		return nil
	}
	delete(entries, f.key.String())

	if len(entries) == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return gmerrors.NewGitHubErrorWithCause("TokenCache.Clear", "failed to remove token file", err)
		}
		return nil
	}
	return f.save(entries)
}

func (f *FileTokenCache) load() (map[string]storedToken, error) {
	entries := make(map[string]storedToken)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, gmerrors.NewGitHubErrorWithCause("TokenCache.Get", "failed to read token file", err)
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, gmerrors.NewGitHubErrorWithCause("TokenCache.Get", "failed to parse token file", err)
	}
	return entries, nil
}

func (f *FileTokenCache) save(entries map[string]storedToken) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return gmerrors.NewGitHubErrorWithCause("TokenCache.Set", "failed to create config directory", err)
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return gmerrors.NewGitHubErrorWithCause("TokenCache.Set", "failed to serialize tokens", err)
	}
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return gmerrors.NewGitHubErrorWithCause("TokenCache.Set", "failed to write token file", err)
	}
	return nil
}

func tokenCachePath() string {
	home, err := homedir.Dir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, TokenCacheDir, TokenCacheFile)
}
