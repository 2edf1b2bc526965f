package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/buzzrhq/buzzr/internal/errors"
)

// do performs one round trip against the platform API. Payloads travel in a
// {"data": ...} envelope; error bodies carry a "message" field.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body *bytes.Buffer
	if in != nil {
		body = new(bytes.Buffer)
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return errors.Internal(fmt.Errorf("upstream: encode %s %s: %w", method, path, err))
		}
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.base+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.base+path, nil)
	}
	if err != nil {
		return errors.Internal(fmt.Errorf("upstream: build request %s %s: %w", method, path, err))
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.New(errors.CodeUnavailable,
			errors.WithMessagef("quiz platform unreachable"),
			errors.WithCause(err),
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return convertStatus(resp)
	}

	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.Internal(fmt.Errorf("upstream: decode %s %s: %w", method, path, err))
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return errors.Internal(fmt.Errorf("upstream: decode %s %s data: %w", method, path, err))
	}

	return nil
}

var status2code = map[int]errors.Code{
	http.StatusBadRequest:   errors.CodeInvalidArgument,
	http.StatusUnauthorized: errors.CodeUnauthenticated,
	http.StatusForbidden:    errors.CodePermissionDenied,
	http.StatusNotFound:     errors.CodeNotFound,
	http.StatusConflict:     errors.CodeAlreadyExists,
}

func convertStatus(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	// Best effort: an unreadable error body keeps the status-derived code.
	_ = json.NewDecoder(resp.Body).Decode(&body)

	code, ok := status2code[resp.StatusCode]
	if !ok {
		if resp.StatusCode >= 500 {
			code = errors.CodeUnavailable
		} else {
			code = errors.CodeInternal
		}
	}

	opts := []errors.Option{}
	if body.Message != "" {
		opts = append(opts, errors.WithMessagef("%s", body.Message))
	}

	return errors.New(code, opts...)
}
