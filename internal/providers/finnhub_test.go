package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "stockintel/internal/errors"
)

func newTestFinnhub(t *testing.T, handler http.Handler) *FinnhubClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewFinnhubClient("test-key", zerolog.Nop())
	client.baseURL = server.URL
	client.retry.MaxAttempts = 1
	return client
}

func TestFinnhubQuote(t *testing.T) {
	client := newTestFinnhub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "test-key" {
			t.Error("expected token query parameter")
		}
		w.Write([]byte(`{"c": 192.5, "d": 1.2, "dp": 0.63, "h": 194.0, "l": 190.1, "o": 191.0, "pc": 191.3, "t": 1718000000}`))
	}))

	quote, err := client.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if quote.Price != 192.5 || quote.ChangePercent != 0.63 {
		t.Errorf("unexpected quote: %+v", quote)
	}
}

func TestFinnhubQuote_UnknownSymbol(t *testing.T) {
	client := newTestFinnhub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c": 0, "d": 0, "dp": 0, "h": 0, "l": 0, "o": 0, "pc": 0, "t": 0}`))
	}))

	_, err := client.Quote(context.Background(), "NOPE")
	if !apperrors.Is(err, apperrors.ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestFinnhubQuote_RateLimited(t *testing.T) {
	client := newTestFinnhub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.Quote(context.Background(), "AAPL")
	if !apperrors.Is(err, apperrors.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestFinnhubQuote_ServerErrorIsTyped(t *testing.T) {
	client := newTestFinnhub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream exploded"))
	}))

	_, err := client.Quote(context.Background(), "AAPL")

	var provErr *apperrors.ProviderError
	if !apperrors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.Provider != "finnhub" || provErr.Status != http.StatusInternalServerError {
		t.Errorf("unexpected provider error: %+v", provErr)
	}
}

func TestFinnhubDailyCandles(t *testing.T) {
	client := newTestFinnhub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"s": "ok",
			"t": [1717977600, 1718064000],
			"o": [100.0, 102.0],
			"h": [103.0, 104.0],
			"l": [99.0, 101.0],
			"c": [102.0, 103.5],
			"v": [50000, 61000]
		}`))
	}))

	points, err := client.DailyCandles(context.Background(), "AAPL",
		time.Now().AddDate(0, 0, -5), time.Now())
	if err != nil {
		t.Fatalf("DailyCandles failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Close != 102.0 || points[1].Volume != 61000 {
		t.Errorf("unexpected points: %+v", points)
	}
	if !points[0].Date.Before(points[1].Date) {
		t.Error("expected chronological order")
	}
}

func TestFinnhubDailyCandles_NoData(t *testing.T) {
	client := newTestFinnhub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s": "no_data"}`))
	}))

	_, err := client.DailyCandles(context.Background(), "NOPE",
		time.Now().AddDate(0, 0, -5), time.Now())
	if !apperrors.Is(err, apperrors.ErrDataNotFound) {
		t.Fatalf("expected ErrDataNotFound, got %v", err)
	}
}

func TestFinnhubCompanyNews(t *testing.T) {
	client := newTestFinnhub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("from") == "" || r.URL.Query().Get("to") == "" {
			t.Error("expected from/to query parameters")
		}
		w.Write([]byte(`[
			{"headline": "Earnings beat", "source": "Reuters", "url": "https://example.com/1", "summary": "Strong quarter", "datetime": 1718000000},
			{"headline": "New product", "source": "AP", "url": "https://example.com/2", "summary": "", "datetime": 1718010000}
		]`))
	}))

	articles, err := client.CompanyNews(context.Background(), "AAPL",
		time.Now().AddDate(0, 0, -7), time.Now())
	if err != nil {
		t.Fatalf("CompanyNews failed: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Headline != "Earnings beat" || articles[0].Source != "Reuters" {
		t.Errorf("unexpected article: %+v", articles[0])
	}
}
