package exposition

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/common/expfmt"

	"github.com/obsidianstack/logloss/pkg/types"
)

// DefaultFetchTimeout bounds one Fetch when the caller passes a nil client.
const DefaultFetchTimeout = 10 * time.Second

// Fetch GETs a /metrics endpoint and decodes the logloss evaluations in it.
// A nil client uses one with DefaultFetchTimeout.
func Fetch(ctx context.Context, client *http.Client, url string) ([]types.Evaluation, error) {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("exposition: build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exposition: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exposition: get %s: unexpected status %d", url, resp.StatusCode)
	}
	return Decode(resp.Body)
}
