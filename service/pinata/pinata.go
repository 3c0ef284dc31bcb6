// Package pinata uploads token images and metadata documents to IPFS
// through the Pinata pinning service.
package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	// DefaultEndpoint is the Pinata file pinning API.
	DefaultEndpoint = "https://api.pinata.cloud/pinning/pinFileToIPFS"
	// DefaultGateway serves pinned content over HTTP.
	DefaultGateway = "https://gateway.pinata.cloud/ipfs"
)

// Client pins content to IPFS. A zero JWT means uploads are unavailable;
// calls fail fast with a clear error instead of a 401 from the service.
type Client struct {
	endpoint   string
	gateway    string
	jwt        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a pinning client. Empty endpoint or gateway fall back
// to the public Pinata service.
func NewClient(endpoint, gateway, jwt string, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if gateway == "" {
		gateway = DefaultGateway
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:   endpoint,
		gateway:    gateway,
		jwt:        jwt,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// Configured reports whether the client has credentials to upload.
func (c *Client) Configured() bool {
	return c.jwt != ""
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

type errorResponse struct {
	Error struct {
		Reason  string `json:"reason"`
		Details string `json:"details"`
	} `json:"error"`
}

// UploadFile pins a file and returns its gateway URL.
func (c *Client) UploadFile(ctx context.Context, filename string, content io.Reader) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("image upload unavailable: no pinning credentials configured")
	}

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("failed to read upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.parseErrorResponse(resp.StatusCode, respBody)
	}

	var pinned pinResponse
	if err := json.Unmarshal(respBody, &pinned); err != nil {
		return "", fmt.Errorf("malformed upload response: %w", err)
	}
	if pinned.IpfsHash == "" {
		return "", fmt.Errorf("upload response missing content hash")
	}

	url := fmt.Sprintf("%s/%s", c.gateway, pinned.IpfsHash)
	c.logger.Debug("pinned content", "filename", filename, "url", url)
	return url, nil
}

// UploadJSON pins a JSON document and returns its gateway URL.
func (c *Client) UploadJSON(ctx context.Context, filename string, doc interface{}) (string, error) {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata document: %w", err)
	}
	return c.UploadFile(ctx, filename, bytes.NewReader(encoded))
}

// parseErrorResponse extracts the service's reason when the body is its
// structured error shape, falling back to the status code.
func (c *Client) parseErrorResponse(status int, body []byte) error {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Reason != "" {
		if er.Error.Details != "" {
			return fmt.Errorf("pinning service rejected upload: %s (%s)", er.Error.Reason, er.Error.Details)
		}
		return fmt.Errorf("pinning service rejected upload: %s", er.Error.Reason)
	}
	return fmt.Errorf("pinning service returned status %d", status)
}
