package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/omochice/socket-relay/pkg/protocol"
)

// FetchStatus asks a relay's HTTP side endpoint for its status. httpAddr is
// either host:port or a full http:// URL of the server root.
func FetchStatus(ctx context.Context, httpAddr string) (*protocol.Status, error) {
	base := httpAddr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(base, "/")+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}
	req.Header.Set("Accept", protocol.ContentTypeJSON)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	status := &protocol.Status{}
	if err := status.Decode(body); err != nil {
		return nil, err
	}
	return status, nil
}
