package dotypos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"dotysync/internal/logger"
)

// CredentialSource supplies the stored deployment credential. Values are
// empty strings when unset.
type CredentialSource interface {
	CloudID() string
	EncryptedRefreshToken() string
}

// Decryptor unwraps the refresh token kept encrypted at rest.
type Decryptor interface {
	Decrypt(ciphertext string) (string, error)
}

const (
	defaultTokenTTL = 3600 * time.Second
	// Tokens are dropped a minute before the server-side expiry.
	tokenExpirySlack = 60 * time.Second

	categoryCacheTTL  = 5 * time.Minute
	categoryPageLimit = 100
	// Safety cap: terminate category pagination even if the server keeps
	// reporting full pages.
	maxCategoryPages = 20
)

type Client struct {
	apiURL     string
	creds      CredentialSource
	secrets    Decryptor
	tokens     *TokenCache
	httpClient *http.Client
	logger     *logger.Logger

	catMu        sync.Mutex
	catMap       map[string]string
	catExpiresAt time.Time
}

func NewClient(apiURL string, creds CredentialSource, secrets Decryptor, logger *logger.Logger) *Client {
	return &Client{
		apiURL:  apiURL,
		creds:   creds,
		secrets: secrets,
		tokens:  NewTokenCache(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// GetAccessToken returns a cached token or exchanges the stored refresh
// token for a fresh one via the signin endpoint.
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	if token, ok := c.tokens.Get(); ok {
		return token, nil
	}

	cloudID := c.creds.CloudID()
	if cloudID == "" {
		return "", ErrMissingConfiguration
	}

	encrypted := c.creds.EncryptedRefreshToken()
	if encrypted == "" {
		return "", ErrMissingAuthorization
	}

	refreshToken, err := c.secrets.Decrypt(encrypted)
	if err != nil || refreshToken == "" {
		return "", ErrDecryptionFailed
	}

	cloudIDNum, err := strconv.ParseInt(cloudID, 10, 64)
	if err != nil {
		return "", ErrMissingConfiguration
	}

	// Cloud id is required in the body for full access.
	body, err := json.Marshal(map[string]int64{"_cloudId": cloudIDNum})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/signin/token", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "User "+refreshToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", newAPIError(resp.StatusCode, respBody)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(respBody, &tokenResp); err != nil || tokenResp.AccessToken == "" {
		return "", ErrInvalidResponse
	}

	ttl := defaultTokenTTL
	if tokenResp.ExpiresIn > 0 {
		ttl = time.Duration(tokenResp.ExpiresIn) * time.Second
	}
	c.tokens.Set(tokenResp.AccessToken, ttl-tokenExpirySlack)

	return tokenResp.AccessToken, nil
}

// InvalidateToken drops the cached access token, forcing a fresh exchange on
// the next call. Used on disconnect.
func (c *Client) InvalidateToken() {
	c.tokens.Clear()
}

// CheckConnection reports whether a usable access token can be obtained.
func (c *Client) CheckConnection(ctx context.Context) bool {
	_, err := c.GetAccessToken(ctx)
	return err == nil
}

// ListProducts fetches one page of products and returns the payload as
// received. Callers decode it with DecodePage since the shape varies by API
// version.
func (c *Client) ListProducts(ctx context.Context, page, limit int) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/clouds/%s/products?limit=%d&page=%d", c.apiURL, c.creds.CloudID(), limit, page)
	body, status, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, newAPIError(status, body)
	}
	return body, nil
}

// GetProduct fetches a single product by its remote id.
func (c *Client) GetProduct(ctx context.Context, externalID string) (map[string]interface{}, error) {
	endpoint := fmt.Sprintf("%s/clouds/%s/products/%s", c.apiURL, c.creds.CloudID(), externalID)
	body, status, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, newAPIError(status, body)
	}

	var item map[string]interface{}
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, ErrInvalidData
	}
	return item, nil
}

// ListCategories accumulates the full remote id→name category mapping,
// paginating until a short page. A failure mid-pagination returns whatever
// was accumulated along with the error; partial results are never cached.
func (c *Client) ListCategories(ctx context.Context) (map[string]string, error) {
	c.catMu.Lock()
	if c.catMap != nil && time.Now().Before(c.catExpiresAt) {
		cached := c.catMap
		c.catMu.Unlock()
		return cached, nil
	}
	c.catMu.Unlock()

	categories := make(map[string]string)

	for page := 1; page <= maxCategoryPages; page++ {
		endpoint := fmt.Sprintf("%s/clouds/%s/categories?limit=%d&page=%d", c.apiURL, c.creds.CloudID(), categoryPageLimit, page)
		body, status, err := c.get(ctx, endpoint)
		if err != nil {
			return categories, err
		}
		if status != http.StatusOK {
			return categories, newAPIError(status, body)
		}

		pg, err := DecodePage(body)
		if err != nil {
			// Undecodable page ends pagination; keep what we have.
			break
		}

		for _, cat := range pg.Items {
			id := Stringify(cat["id"])
			name := Stringify(cat["name"])
			if id != "" && name != "" {
				categories[id] = name
			}
		}

		if len(pg.Items) < categoryPageLimit {
			break
		}
	}

	if len(categories) > 0 {
		c.catMu.Lock()
		c.catMap = categories
		c.catExpiresAt = time.Now().Add(categoryCacheTTL)
		c.catMu.Unlock()
	}

	return categories, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, int, error) {
	token, err := c.GetAccessToken(ctx)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}
