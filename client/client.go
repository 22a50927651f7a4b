package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Transfers block until the network confirms them, so the default timeout is generous.
const defaultTimeout = 2 * time.Minute

// Result is the outcome of one transfer or airdrop, as reported by the server.
type Result struct {
	Operation string `json:"operation"`
	Status    string `json:"status"` // confirmed, failed

	Wallet    string `json:"wallet,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	Mint      string `json:"mint,omitempty"`
	BaseUnits uint64 `json:"base_units,omitempty"`

	Signature   string `json:"signature,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`

	Category string `json:"category,omitempty"` // input, precondition, cancelled, network
	Reason   string `json:"reason,omitempty"`

	Message string `json:"message"`
}

// Confirmed reports whether the operation reached confirmed commitment.
func (r *Result) Confirmed() bool {
	return r.Status == "confirmed"
}

// WalletInfo describes the server's hot wallet.
type WalletInfo struct {
	Address          string `json:"address"`
	Cluster          string `json:"cluster"`
	DefaultTokenMint string `json:"default_token_mint"`
	TokenSymbol      string `json:"token_symbol"`
}

// Client is the HTTP client for the solpipe transfer service.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new transfer service client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// WithAPIToken sets the bearer token sent with transfer and airdrop requests.
func (c *Client) WithAPIToken(token string) *Client {
	c.apiToken = token
	return c
}

// SendNative asks the server to send SOL from its wallet.
// A failed transfer is not an error: inspect Result.Status and Result.Category.
// The error is set only when no Result could be obtained.
func (c *Client) SendNative(ctx context.Context, recipient, amount string) (*Result, error) {
	return c.postResult(ctx, "/api/v1/transfers/native", map[string]string{
		"recipient": recipient,
		"amount":    amount,
	})
}

// SendToken asks the server to send SPL tokens from its wallet. An empty mint
// uses the server's default token.
func (c *Client) SendToken(ctx context.Context, recipient, amount, mint string) (*Result, error) {
	body := map[string]string{
		"recipient": recipient,
		"amount":    amount,
	}
	if mint != "" {
		body["mint"] = mint
	}
	return c.postResult(ctx, "/api/v1/transfers/token", body)
}

// Airdrop asks the server to request faucet SOL for address. An empty address
// airdrops to the server's own wallet.
func (c *Client) Airdrop(ctx context.Context, address string) (*Result, error) {
	body := map[string]string{}
	if address != "" {
		body["address"] = address
	}
	return c.postResult(ctx, "/api/v1/airdrop", body)
}

// Wallet retrieves the server's hot wallet details.
func (c *Client) Wallet(ctx context.Context) (*WalletInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/wallet", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var info WalletInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &info, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}
	return nil
}

// postResult posts body and decodes the Result the server answers with,
// whatever the status code.
func (c *Client) postResult(ctx context.Context, path string, reqBody interface{}) (*Result, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if len(c.apiToken) > 0 {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiToken))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil || res.Status == "" {
		return nil, errorFromBody(resp.StatusCode, raw)
	}

	c.logger.Debug("operation finished",
		"path", path,
		"status", res.Status,
		"category", res.Category,
		"signature", res.Signature,
	)
	return &res, nil
}

// parseErrorResponse attempts to parse an error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return errorFromBody(resp.StatusCode, body)
}

func errorFromBody(statusCode int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", statusCode, string(body))
	}
	return fmt.Errorf("request failed: %s", errResp.Error)
}
