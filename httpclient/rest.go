package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
)

// TypedResponse wraps a response with a decoded body of type T.
type TypedResponse[T any] struct {
	StatusCode int
	Headers    map[string]string
	Data       T
}

// DoJSON executes req and decodes a JSON response body into T. On a non-2xx
// status the body is still decoded when possible and returned alongside the
// classified error.
func DoJSON[T any](ctx context.Context, c *Client, req Request) (*TypedResponse[T], error) {
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	if _, ok := req.Headers["Accept"]; !ok {
		req.Headers["Accept"] = "application/json"
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		if resp != nil {
			var data T
			if jsonErr := json.Unmarshal(resp.Body, &data); jsonErr == nil {
				return &TypedResponse[T]{StatusCode: resp.StatusCode, Headers: resp.Headers, Data: data}, err
			}
			return &TypedResponse[T]{StatusCode: resp.StatusCode, Headers: resp.Headers}, err
		}
		return nil, err
	}

	var data T
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return &TypedResponse[T]{StatusCode: resp.StatusCode, Headers: resp.Headers},
			fmt.Errorf("httpclient: decode response: %w", err)
	}
	return &TypedResponse[T]{StatusCode: resp.StatusCode, Headers: resp.Headers, Data: data}, nil
}
