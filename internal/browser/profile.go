package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
)

type openProfileRequest struct {
	ID string `json:"id"`
}

type openProfileResponse struct {
	Data struct {
		HTTP   string `json:"http"`
		WS     string `json:"ws"`
		Driver string `json:"driver"`
	} `json:"data"`
}

// OpenProfile asks a local anti-detect browser service to start the profile
// with the given id and returns its CDP endpoint.
func OpenProfile(ctx context.Context, client *http.Client, apiURL, profileID string) (string, error) {
	body, err := json.Marshal(openProfileRequest{ID: profileID})
	if err != nil {
		return "", eris.Wrap(err, "browser: marshal profile request")
	}

	endpoint := strings.TrimRight(apiURL, "/") + "/browser/open"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "browser: build profile request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "browser: open profile")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "browser: read profile response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("browser: profile service returned status %d: %s", resp.StatusCode, string(data))
	}

	var out openProfileResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", eris.Wrap(err, "browser: parse profile response")
	}
	addr := strings.TrimSpace(out.Data.HTTP)
	if addr == "" {
		return "", eris.New("browser: profile service returned no debugger address")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return addr, nil
}
