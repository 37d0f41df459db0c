package ports

import (
	"context"
	"encoding/json"
)

// API is the transport to the financial-services backend. Call marshals
// body (when non-nil) as JSON, attaches bearer as an Authorization header
// when non-empty, and returns the raw response body. HTTP error statuses
// surface as *core.APIError; connectivity failures, timeouts and 5xx
// responses surface as *core.NetworkError.
type API interface {
	Call(ctx context.Context, method, path string, body any, bearer string) (json.RawMessage, error)
}
