package providers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stockintel/internal/intel"
	"stockintel/internal/logging"
	"stockintel/pkg/utils"
)

const polygonBaseURL = "https://api.polygon.io"

// PolygonClient reads options-contract snapshots from the Polygon API.
type PolygonClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      utils.RetryConfig
	logger     zerolog.Logger
}

// NewPolygonClient creates a Polygon client.
func NewPolygonClient(apiKey string, logger zerolog.Logger) *PolygonClient {
	return &PolygonClient{
		apiKey:     apiKey,
		baseURL:    polygonBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		retry:      utils.DefaultRetryConfig(),
		logger:     logger,
	}
}

type polygonOptionsSnapshot struct {
	Results []struct {
		Details struct {
			ContractType string `json:"contract_type"`
		} `json:"details"`
		Day struct {
			Volume int64 `json:"volume"`
		} `json:"day"`
	} `json:"results"`
	NextURL string `json:"next_url"`
}

// OptionsActivity sums today's call and put volume across the symbol's
// option chain snapshot. Satisfies intel.OptionsClient.
func (c *PolygonClient) OptionsActivity(ctx context.Context, symbol string) (*intel.OptionsActivity, error) {
	params := url.Values{
		"limit":  {"250"},
		"apiKey": {c.apiKey},
	}
	path := "/v3/snapshot/options/" + url.PathEscape(symbol)
	endpoint := c.baseURL + path + "?" + params.Encode()

	activity := &intel.OptionsActivity{}

	// Snapshot pages through next_url; a few pages cover liquid chains
	for page := 0; page < 4 && endpoint != ""; page++ {
		var raw polygonOptionsSnapshot
		err := utils.Retry(ctx, c.retry, func() error {
			start := time.Now()
			err := doJSON(ctx, c.httpClient, "polygon", endpoint, &raw)
			logging.LogAPICall(c.logger, http.MethodGet, path, time.Since(start), err)
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, r := range raw.Results {
			switch strings.ToLower(r.Details.ContractType) {
			case "call":
				activity.CallVolume += r.Day.Volume
			case "put":
				activity.PutVolume += r.Day.Volume
			}
		}

		endpoint = raw.NextURL
		if endpoint != "" && !strings.Contains(endpoint, "apiKey=") {
			endpoint += "&apiKey=" + url.QueryEscape(c.apiKey)
		}
	}

	return activity, nil
}
