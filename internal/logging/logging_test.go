package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLogSynthesis_OneLinePerOutcome(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	LogSynthesis(logger, "anthropic", "AAPL", 80, nil)
	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected exactly one log line on success, got %q", out)
	}
	if !strings.Contains(out, "Synthesis complete") || !strings.Contains(out, `"provider":"anthropic"`) {
		t.Errorf("unexpected success log: %q", out)
	}

	buf.Reset()
	LogSynthesis(logger, "openai", "AAPL", 0, errors.New("timeout"))
	out = buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected exactly one log line on failure, got %q", out)
	}
	if !strings.Contains(out, "Synthesis failed") || !strings.Contains(out, "timeout") {
		t.Errorf("unexpected failure log: %q", out)
	}
}

func TestLogCacheRefresh(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	LogCacheRefresh(logger, 3, "finnhub", nil)
	if !strings.Contains(buf.String(), "Cache refreshed") {
		t.Errorf("unexpected refresh log: %q", buf.String())
	}

	buf.Reset()
	LogCacheRefresh(logger, 3, "finnhub", errors.New("upstream down"))
	if !strings.Contains(buf.String(), "Cache refresh failed") {
		t.Errorf("unexpected failure log: %q", buf.String())
	}
}
