// Package clients holds the HTTP collaborators the saga orchestrator drives.
// Every call is bounded by the shared client timeout; a timeout is reported
// the same way as any other remote failure.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	tickethub_errors "tickethub-core/pkg/errors"
)

const idempotencyKeyHeader = "X-Idempotency-Key"

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// postJSON issues a POST with a JSON body and decodes a JSON response into
// out (when non-nil). Non-2xx statuses and transport errors both surface as
// ErrRemoteCall so the orchestrator treats them uniformly.
func postJSON(ctx context.Context, client *http.Client, url, idempotencyKey string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(idempotencyKeyHeader, idempotencyKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", tickethub_errors.ErrRemoteCall, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", tickethub_errors.ErrRemoteCall, url, resp.StatusCode, detail)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decoding response: %v", tickethub_errors.ErrRemoteCall, url, err)
	}
	return nil
}
