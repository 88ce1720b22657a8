package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stockintel/internal/intel"
	"stockintel/internal/logging"
	"stockintel/pkg/utils"
)

const stocktwitsBaseURL = "https://api.stocktwits.com/api/2"

// StocktwitsClient reads symbol streams from the Stocktwits API.
type StocktwitsClient struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
	retry       utils.RetryConfig
	logger      zerolog.Logger
}

// NewStocktwitsClient creates a Stocktwits client.
func NewStocktwitsClient(accessToken string, logger zerolog.Logger) *StocktwitsClient {
	return &StocktwitsClient{
		accessToken: accessToken,
		baseURL:     stocktwitsBaseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		retry:       utils.DefaultRetryConfig(),
		logger:      logger,
	}
}

type stocktwitsStream struct {
	Messages []struct {
		Body string `json:"body"`
		User struct {
			Username string `json:"username"`
		} `json:"user"`
		Entities struct {
			Sentiment *struct {
				Basic string `json:"basic"`
			} `json:"sentiment"`
		} `json:"entities"`
	} `json:"messages"`
}

// SymbolStream fetches the most recent messages for a symbol. Satisfies
// intel.SocialClient. Platform sentiment tags pass through lowercased.
func (c *StocktwitsClient) SymbolStream(ctx context.Context, symbol string, limit int) ([]intel.SocialMessage, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	if c.accessToken != "" {
		params.Set("access_token", c.accessToken)
	}

	path := fmt.Sprintf("/streams/symbol/%s.json", url.PathEscape(symbol))
	endpoint := c.baseURL + path + "?" + params.Encode()

	var raw stocktwitsStream
	err := utils.Retry(ctx, c.retry, func() error {
		start := time.Now()
		err := doJSON(ctx, c.httpClient, "stocktwits", endpoint, &raw)
		logging.LogAPICall(c.logger, http.MethodGet, c.baseURL+path, time.Since(start), err)
		return err
	})
	if err != nil {
		return nil, err
	}

	messages := make([]intel.SocialMessage, 0, len(raw.Messages))
	for _, m := range raw.Messages {
		var label string
		if m.Entities.Sentiment != nil {
			label = strings.ToLower(m.Entities.Sentiment.Basic)
		}
		messages = append(messages, intel.SocialMessage{
			Body:  m.Body,
			Label: label,
			User:  m.User.Username,
		})
	}
	return messages, nil
}
