// Package poolclient provides a client for interacting with the swapool API.
package poolclient

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/swapool-hq/swapool/pkg/logger"
	"github.com/swapool-hq/swapool/pkg/models"
)

// Client represents a swapool API client
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     logger.Logger
}

// New creates a new swapool API client
func New(endpoint string, log logger.Logger) *Client {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: createHTTPClient(),
		logger:     log,
	}
}

// CreateIntent registers a new pooled swap intent and returns its identifier
func (c *Client) CreateIntent(inputToken, outputToken common.Address, minOutput *big.Int, deadline time.Time, policyCommitment common.Hash) (common.Hash, error) {
	req := map[string]string{
		"input_token":       inputToken.Hex(),
		"output_token":      outputToken.Hex(),
		"min_output":        minOutput.String(),
		"deadline":          deadline.Format(time.RFC3339),
		"policy_commitment": policyCommitment.Hex(),
	}

	var resp struct {
		IntentID string `json:"intent_id"`
	}
	if err := c.post("/api/v1/intents", req, &resp); err != nil {
		return common.Hash{}, err
	}
	return common.HexToHash(resp.IntentID), nil
}

// Contribute deposits amount against the intent on behalf of the participant
func (c *Client) Contribute(id common.Hash, participant common.Address, amount *big.Int) error {
	req := map[string]string{
		"participant": participant.Hex(),
		"amount":      amount.String(),
	}
	return c.post(fmt.Sprintf("/api/v1/intents/%s/contribute", id.Hex()), req, nil)
}

// Execute settles the intent through the given venue and returns the realized output
func (c *Client) Execute(id common.Hash, caller, venue common.Address, instruction []byte, expectedMinOut *big.Int) (*big.Int, error) {
	req := map[string]interface{}{
		"caller":      caller.Hex(),
		"venue":       venue.Hex(),
		"instruction": hex.EncodeToString(instruction),
	}
	if expectedMinOut != nil {
		req["expected_min_output"] = expectedMinOut.String()
	}

	var resp struct {
		RealizedOutput string `json:"realized_output"`
	}
	if err := c.post(fmt.Sprintf("/api/v1/intents/%s/execute", id.Hex()), req, &resp); err != nil {
		return nil, err
	}

	realized, ok := new(big.Int).SetString(resp.RealizedOutput, 10)
	if !ok {
		return nil, fmt.Errorf("invalid realized output in response: %s", resp.RealizedOutput)
	}
	return realized, nil
}

// CleanupExpired reclaims an expired, never-executed intent
func (c *Client) CleanupExpired(id common.Hash) error {
	return c.post(fmt.Sprintf("/api/v1/intents/%s/cleanup", id.Hex()), map[string]string{}, nil)
}

// GetIntent fetches a snapshot of the intent
func (c *Client) GetIntent(id common.Hash) (*models.Intent, error) {
	var intent models.Intent
	if err := c.get(fmt.Sprintf("/api/v1/intents/%s", id.Hex()), &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// GetContribution fetches the amount contributed by a participant
func (c *Client) GetContribution(id common.Hash, participant common.Address) (*big.Int, error) {
	var resp struct {
		Amount string `json:"amount"`
	}
	if err := c.get(fmt.Sprintf("/api/v1/intents/%s/contributions/%s", id.Hex(), participant.Hex()), &resp); err != nil {
		return nil, err
	}

	amount, ok := new(big.Int).SetString(resp.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount in response: %s", resp.Amount)
	}
	return amount, nil
}

func (c *Client) post(path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %v", err)
	}

	resp, err := c.httpClient.Post(c.endpoint+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("request to %s failed: %v", path, err)
	}
	return c.decode(resp, out)
}

func (c *Client) get(path string, out interface{}) error {
	resp, err := c.httpClient.Get(c.endpoint + path)
	if err != nil {
		return fmt.Errorf("request to %s failed: %v", path, err)
	}
	return c.decode(resp, out)
}

func (c *Client) decode(resp *http.Response, out interface{}) error {
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Error("Failed to close response body: %v", err)
		}
	}(resp.Body)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(bodyBytes, &apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %v, body: %s", err, string(bodyBytes))
	}
	return nil
}

// Helper function to create an HTTP client with timeouts
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
