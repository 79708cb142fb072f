package cas

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/bytedance/sonic"
)

var fileIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// ValidateFileID reports an *ErrInvalidFileID if id is not a 64-character
// hex string.
func ValidateFileID(id string) error {
	if !fileIDPattern.MatchString(id) {
		return &ErrInvalidFileID{FileID: id}
	}
	return nil
}

// Client requests reconstruction plans from a CAS endpoint.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a Client using httpClient for requests. A nil
// httpClient falls back to http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient}
}

// GetReconstruction requests the reconstruction plan for fileID from
// casURL, optionally scoped to byteRange. A nil byteRange requests the
// whole file.
func (c *Client) GetReconstruction(ctx context.Context, casURL, accessToken, fileID string, byteRange *ByteRange) (*Plan, error) {
	if err := ValidateFileID(fileID); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/reconstructions/%s", casURL, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cas: building reconstruction request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if byteRange != nil {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", byteRange.Start, byteRange.End-1))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cas: reconstruction request for %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cas: reading reconstruction response for %s: %w", fileID, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ErrRequestFailed{FileID: fileID, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var wire wireReconstruction
	if err := sonic.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}

	return wire.toPlan()
}
