package market

import (
	"context"
	"fmt"

	"github.com/hupe1980/stockmesh/tool"
)

// TrendSummary returns a fetcher that produces a grounded summary of recent
// price movements and trends for a symbol.
func TrendSummary(search Searcher) tool.Fetcher {
	return func(ctx context.Context, symbol string) (string, error) {
		summary, err := search.Search(ctx,
			fmt.Sprintf("Summarize recent price movements and trends for %s.", symbol),
			fmt.Sprintf("Get stock price trends for %s.", symbol),
		)
		if err != nil {
			return "", err
		}
		if summary == "" {
			return fmt.Sprintf("Could not fetch price trend data for %s.", symbol), nil
		}
		return summary, nil
	}
}

// LatestNews returns a fetcher that produces a grounded summary of the latest
// financial news for a symbol.
func LatestNews(search Searcher) tool.Fetcher {
	return func(ctx context.Context, symbol string) (string, error) {
		summary, err := search.Search(ctx,
			fmt.Sprintf("Summarize the latest financial news for %s.", symbol),
			fmt.Sprintf("Find the latest stock news about %s.", symbol),
		)
		if err != nil {
			return "", err
		}
		if summary == "" {
			return fmt.Sprintf("Could not fetch news for %s.", symbol), nil
		}
		return summary, nil
	}
}
