package arbeitsdk

import (
	"context"
	"net/http"
)

// HealthPath is the backend health endpoint.
const HealthPath = "/api/health"

// GetLiveness checks if the backend is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, HealthPath, nil, "")
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health); err != nil {
		return nil, err
	}

	return &health, nil
}
