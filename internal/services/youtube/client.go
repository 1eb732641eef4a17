// Package youtube uploads finished videos through the YouTube Data API v3
// resumable upload protocol using stored OAuth2 credentials.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultUploadBaseURL = "https://www.googleapis.com/upload/youtube/v3"
	defaultAPIBaseURL    = "https://www.googleapis.com/youtube/v3"
	defaultTimeout       = 10 * time.Minute
)

// Metadata describes the snippet and status sent with an upload.
type Metadata struct {
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	PrivacyStatus string
	MadeForKids   bool
}

// Config carries client construction parameters.
type Config struct {
	ClientSecretsPath string
	TokenFilePath     string
	UploadBaseURL     string
	APIBaseURL        string
	TimeoutSeconds    int
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the transport used for API calls (used in tests,
// which also skip OAuth by providing a pre-authorized client).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// Client talks to the YouTube Data API.
type Client struct {
	uploadBaseURL string
	apiBaseURL    string
	tokenPath     string
	secretsPath   string
	timeout       time.Duration
	httpClient    *http.Client
}

// NewClient constructs a YouTube client. The OAuth transport is built lazily
// on first use so construction never touches the network.
func NewClient(cfg Config, opts ...Option) *Client {
	uploadBase := strings.TrimRight(strings.TrimSpace(cfg.UploadBaseURL), "/")
	if uploadBase == "" {
		uploadBase = defaultUploadBaseURL
	}
	apiBase := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &Client{
		uploadBaseURL: uploadBase,
		apiBaseURL:    apiBase,
		tokenPath:     cfg.TokenFilePath,
		secretsPath:   cfg.ClientSecretsPath,
		timeout:       timeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type clientSecrets struct {
	Installed struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
		AuthURI      string `json:"auth_uri"`
		TokenURI     string `json:"token_uri"`
	} `json:"installed"`
}

func (c *Client) oauthConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(c.secretsPath)
	if err != nil {
		return nil, fmt.Errorf("youtube: read client secrets: %w", err)
	}
	var secrets clientSecrets
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("youtube: parse client secrets: %w", err)
	}
	if secrets.Installed.ClientID == "" {
		return nil, errors.New("youtube: client secrets missing installed.client_id")
	}
	tokenURI := secrets.Installed.TokenURI
	if tokenURI == "" {
		tokenURI = "https://oauth2.googleapis.com/token"
	}
	authURI := secrets.Installed.AuthURI
	if authURI == "" {
		authURI = "https://accounts.google.com/o/oauth2/auth"
	}
	return &oauth2.Config{
		ClientID:     secrets.Installed.ClientID,
		ClientSecret: secrets.Installed.ClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/youtube.upload"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURI,
			TokenURL: tokenURI,
		},
	}, nil
}

func (c *Client) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return nil, fmt.Errorf("youtube: read token file: %w (run 'reelsmith auth youtube' first)", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("youtube: parse token file: %w", err)
	}
	if token.RefreshToken == "" && token.AccessToken == "" {
		return nil, errors.New("youtube: token file has no credentials (run 'reelsmith auth youtube' first)")
	}
	return &token, nil
}

func (c *Client) saveToken(token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.tokenPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.tokenPath)
}

// authorizedClient builds an HTTP client with a refreshing token source and
// persists any refreshed token back to disk.
func (c *Client) authorizedClient(ctx context.Context) (*http.Client, error) {
	if c.httpClient != nil {
		return c.httpClient, nil
	}
	conf, err := c.oauthConfig()
	if err != nil {
		return nil, err
	}
	token, err := c.loadToken()
	if err != nil {
		return nil, err
	}
	source := conf.TokenSource(ctx, token)
	refreshed, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("youtube: refresh token: %w", err)
	}
	if refreshed.AccessToken != token.AccessToken {
		if err := c.saveToken(refreshed); err != nil {
			return nil, fmt.Errorf("youtube: persist refreshed token: %w", err)
		}
	}
	return oauth2.NewClient(ctx, source), nil
}

type uploadBody struct {
	Snippet struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Tags        []string `json:"tags,omitempty"`
		CategoryID  string   `json:"categoryId,omitempty"`
	} `json:"snippet"`
	Status struct {
		PrivacyStatus           string `json:"privacyStatus"`
		SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
	} `json:"status"`
}

type uploadResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Upload performs a resumable upload and returns the new video ID.
func (c *Client) Upload(ctx context.Context, videoPath string, meta Metadata) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("youtube: open video: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("youtube: stat video: %w", err)
	}

	httpClient, err := c.authorizedClient(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sessionURL, err := c.startSession(ctx, httpClient, meta, info.Size())
	if err != nil {
		return "", err
	}
	return c.uploadContent(ctx, httpClient, sessionURL, file, info.Size())
}

func (c *Client) startSession(ctx context.Context, httpClient *http.Client, meta Metadata, size int64) (string, error) {
	var body uploadBody
	body.Snippet.Title = meta.Title
	body.Snippet.Description = meta.Description
	body.Snippet.Tags = meta.Tags
	body.Snippet.CategoryID = meta.CategoryID
	body.Status.PrivacyStatus = meta.PrivacyStatus
	body.Status.SelfDeclaredMadeForKids = meta.MadeForKids

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("youtube: encode metadata: %w", err)
	}

	endpoint := c.uploadBaseURL + "/videos?uploadType=resumable&part=snippet,status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("youtube: build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", "video/mp4")
	req.Header.Set("X-Upload-Content-Length", fmt.Sprintf("%d", size))

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("youtube: start upload session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError("start upload session", resp)
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return "", errors.New("youtube: upload session missing Location header")
	}
	return location, nil
}

func (c *Client) uploadContent(ctx context.Context, httpClient *http.Client, sessionURL string, content io.Reader, size int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, content)
	if err != nil {
		return "", fmt.Errorf("youtube: build upload request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "video/mp4")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("youtube: upload content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", apiError("upload content", resp)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("youtube: decode upload response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("youtube: upload rejected: %s (code %d)", parsed.Error.Message, parsed.Error.Code)
	}
	if parsed.ID == "" {
		return "", errors.New("youtube: upload response missing video id")
	}
	return parsed.ID, nil
}

// WatchURL returns the public watch page for an uploaded video.
func (c *Client) WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// CheckCredentials verifies the stored secrets and token parse and, outside
// tests, that a usable access token can be minted.
func (c *Client) CheckCredentials(ctx context.Context) error {
	if c.httpClient != nil {
		return nil
	}
	_, err := c.authorizedClient(ctx)
	return err
}

func apiError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(body))
	var parsed uploadResponse
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
		detail = parsed.Error.Message
	}
	return fmt.Errorf("youtube: %s: status %d: %s", operation, resp.StatusCode, detail)
}
