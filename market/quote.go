package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/hupe1980/stockmesh/core"
	"github.com/hupe1980/stockmesh/logging"
)

const defaultQuoteBaseURL = "https://query1.finance.yahoo.com"

// QuoteClientOptions configure the real-time quote adapter.
type QuoteClientOptions struct {
	// BaseURL overrides the chart API host, mainly for tests.
	BaseURL string
	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// QuoteClient fetches the latest traded price for a symbol from the public
// chart API (1-day range, 1-minute bars). It is stateless and safe for
// concurrent use across subjects.
type QuoteClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// NewQuoteClient constructs a QuoteClient with sensible defaults.
func NewQuoteClient(optFns ...func(o *QuoteClientOptions)) *QuoteClient {
	opts := QuoteClientOptions{
		BaseURL:    defaultQuoteBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &QuoteClient{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

// Fetch implements the data adapter contract for real-time prices. Unknown
// symbols and empty chart data yield a sentinel string with a nil error;
// only transport-level failures are returned as errors.
func (c *QuoteClient) Fetch(ctx context.Context, symbol string) (string, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build quote request: %w", err)
	}
	// The chart API rejects requests without a browser-like agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; stockmesh/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("quote request for %s: %w: %w", symbol, core.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read quote response for %s: %w: %w", symbol, core.ErrBackendUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.logger.Debug("quote.no_data", "symbol", symbol, "status", resp.StatusCode)
		return noPriceSentinel(symbol), nil
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("quote request for %s: status %d: %w", symbol, resp.StatusCode, core.ErrBackendUnavailable)
	}

	return c.render(symbol, body), nil
}

// render extracts the latest price from a chart payload. Any missing field
// degrades to the sentinel rather than an error: a well-formed "no data"
// answer must not abort the conversation.
func (c *QuoteClient) render(symbol string, body []byte) string {
	doc := gjson.ParseBytes(body)

	if errDesc := doc.Get("chart.error.description"); errDesc.Exists() {
		c.logger.Debug("quote.no_data", "symbol", symbol, "reason", errDesc.String())
		return noPriceSentinel(symbol)
	}

	meta := doc.Get("chart.result.0.meta")
	price := meta.Get("regularMarketPrice")
	if !price.Exists() {
		return noPriceSentinel(symbol)
	}

	value := decimal.NewFromFloat(price.Float()).Round(2)

	currency := meta.Get("currency").String()
	if currency == "" {
		currency = "USD"
	}

	ts := time.Now().UTC()
	if marketTime := meta.Get("regularMarketTime"); marketTime.Exists() {
		ts = time.Unix(marketTime.Int(), 0).UTC()
	}

	return fmt.Sprintf(
		"As of %s, the real-time price of %s is %s %s.",
		ts.Format("2006-01-02 15:04:05"), symbol, value.StringFixed(2), currency,
	)
}

func noPriceSentinel(symbol string) string {
	return fmt.Sprintf("Could not fetch real-time price for %s.", symbol)
}
