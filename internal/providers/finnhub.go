// Package providers holds the HTTP clients for the external market-data
// services. Each client maps transport failures to typed provider errors
// and leaves containment policy to its caller.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	apperrors "stockintel/internal/errors"
	"stockintel/internal/intel"
	"stockintel/internal/logging"
	"stockintel/internal/models"
	"stockintel/pkg/utils"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient covers quotes, daily candles, company news, and profile
// lookups against the Finnhub REST API.
type FinnhubClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      utils.RetryConfig
	logger     zerolog.Logger
}

// NewFinnhubClient creates a Finnhub client.
func NewFinnhubClient(apiKey string, logger zerolog.Logger) *FinnhubClient {
	return &FinnhubClient{
		apiKey:     apiKey,
		baseURL:    finnhubBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		retry:      utils.DefaultRetryConfig(),
		logger:     logger,
	}
}

type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Quote fetches the real-time quote for a symbol. A zeroed response is
// how Finnhub signals an unknown symbol.
func (c *FinnhubClient) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	var raw finnhubQuote
	params := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/quote", params, &raw); err != nil {
		return nil, err
	}

	if raw.Current == 0 && raw.PrevClose == 0 && raw.Timestamp == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, symbol)
	}

	return &models.Quote{
		Symbol:        symbol,
		Price:         raw.Current,
		Change:        raw.Change,
		ChangePercent: raw.PercentChange,
		High:          raw.High,
		Low:           raw.Low,
		Open:          raw.Open,
		PrevClose:     raw.PrevClose,
		Timestamp:     time.Unix(raw.Timestamp, 0),
	}, nil
}

type finnhubCandles struct {
	Close     []float64 `json:"c"`
	High      []float64 `json:"h"`
	Low       []float64 `json:"l"`
	Open      []float64 `json:"o"`
	Status    string    `json:"s"`
	Timestamp []int64   `json:"t"`
	Volume    []int64   `json:"v"`
}

// DailyCandles fetches daily OHLCV bars covering the requested span,
// returned chronologically, oldest first.
func (c *FinnhubClient) DailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error) {
	var raw finnhubCandles
	params := url.Values{
		"symbol":     {symbol},
		"resolution": {"D"},
		"from":       {fmt.Sprintf("%d", from.Unix())},
		"to":         {fmt.Sprintf("%d", to.Unix())},
	}
	if err := c.get(ctx, "/stock/candle", params, &raw); err != nil {
		return nil, err
	}

	if raw.Status == "no_data" || len(raw.Close) == 0 {
		return nil, fmt.Errorf("%w: no candles for %s", apperrors.ErrDataNotFound, symbol)
	}

	points := make([]models.PricePoint, 0, len(raw.Close))
	for i := range raw.Close {
		points = append(points, models.PricePoint{
			Date:   time.Unix(raw.Timestamp[i], 0),
			Open:   raw.Open[i],
			High:   raw.High[i],
			Low:    raw.Low[i],
			Close:  raw.Close[i],
			Volume: raw.Volume[i],
		})
	}
	return points, nil
}

type finnhubNewsItem struct {
	Headline string `json:"headline"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Summary  string `json:"summary"`
	Datetime int64  `json:"datetime"`
}

// CompanyNews fetches company news within the date window. Satisfies
// intel.NewsClient.
func (c *FinnhubClient) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]intel.NewsArticle, error) {
	var raw []finnhubNewsItem
	params := url.Values{
		"symbol": {symbol},
		"from":   {from.Format("2006-01-02")},
		"to":     {to.Format("2006-01-02")},
	}
	if err := c.get(ctx, "/company-news", params, &raw); err != nil {
		return nil, err
	}

	articles := make([]intel.NewsArticle, 0, len(raw))
	for _, item := range raw {
		articles = append(articles, intel.NewsArticle{
			Headline:    item.Headline,
			Source:      item.Source,
			URL:         item.URL,
			Summary:     item.Summary,
			PublishedAt: time.Unix(item.Datetime, 0),
		})
	}
	return articles, nil
}

type finnhubProfile struct {
	Name string `json:"name"`
}

// CompanyName resolves a symbol's display name, or empty when unknown.
func (c *FinnhubClient) CompanyName(ctx context.Context, symbol string) (string, error) {
	var raw finnhubProfile
	params := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/stock/profile2", params, &raw); err != nil {
		return "", err
	}
	return raw.Name, nil
}

func (c *FinnhubClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("token", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	return utils.Retry(ctx, c.retry, func() error {
		start := time.Now()
		err := doJSON(ctx, c.httpClient, "finnhub", endpoint, out)
		logging.LogAPICall(c.logger, http.MethodGet, c.baseURL+path, time.Since(start), err)
		return err
	})
}

// doJSON performs one GET and decodes the JSON body. Shared by the
// provider clients in this package.
func doJSON(ctx context.Context, client *http.Client, provider, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.NewProviderError(provider, 0, "building request", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return apperrors.NewProviderError(provider, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", apperrors.ErrRateLimited, provider)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.NewProviderError(provider, resp.StatusCode, string(body), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewProviderError(provider, resp.StatusCode, "decoding response", err)
	}
	return nil
}
