// Package stockmesh provides a high-level façade assembling the investment
// analysis team from configuration: a language-model backend, the market data
// adapters, the four-agent roster, the round-robin scheduler and the
// real-time watcher. Most applications interact with this package by:
//  1. Loading a config.Config via config.Load()
//  2. Creating a StockMesh via New() (optionally overriding backends)
//  3. Running Watch() until interrupted, or RunOnce() for a single cycle
package stockmesh

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/stockmesh/agent"
	"github.com/hupe1980/stockmesh/condition"
	"github.com/hupe1980/stockmesh/config"
	"github.com/hupe1980/stockmesh/console"
	"github.com/hupe1980/stockmesh/core"
	"github.com/hupe1980/stockmesh/logging"
	"github.com/hupe1980/stockmesh/market"
	"github.com/hupe1980/stockmesh/model"
	"github.com/hupe1980/stockmesh/model/anthropic"
	"github.com/hupe1980/stockmesh/model/openai"
	"github.com/hupe1980/stockmesh/team"
	"github.com/hupe1980/stockmesh/tool"
	"github.com/hupe1980/stockmesh/watch"
)

// DecisionPhrase is the terminal marker the decision agent is instructed to
// emit once it reaches a conclusion. The default termination condition stops
// the conversation as soon as any message mentions it.
const DecisionPhrase = "Decision Made"

// Tool names bound to the roster.
const (
	ToolPriceTrends   = "stock_price_trends"
	ToolRealtimePrice = "realtime_stock_price"
	ToolNewsAnalysis  = "news_analysis"
)

// Options configures the StockMesh instance. Unset collaborators are built
// from the config; tests typically inject a scripted model and stub fetchers.
type Options struct {
	// Model overrides the language-model backend shared by all agents.
	Model model.Model
	// Quotes, Trends and News override the data adapters.
	Quotes tool.Fetcher
	Trends tool.Fetcher
	News   tool.Fetcher
	// Console receives rendered output; nil disables rendering.
	Console *console.Console
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// StockMesh aggregates the assembled team and its real-time watcher.
type StockMesh struct {
	cfg     *config.Config
	team    *team.RoundRobin
	watcher *watch.Watcher
}

// New assembles the analysis system from configuration.
func New(cfg *config.Config, optFns ...func(o *Options)) (*StockMesh, error) {
	opts := Options{Logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(&opts)
	}

	backend := opts.Model
	if backend == nil {
		var err error
		if backend, err = buildBackend(cfg); err != nil {
			return nil, err
		}
	}

	if opts.Quotes == nil || opts.Trends == nil || opts.News == nil {
		quotes, trends, news := buildAdapters(cfg, opts.Logger)
		if opts.Quotes == nil {
			opts.Quotes = quotes
		}
		if opts.Trends == nil {
			opts.Trends = trends
		}
		if opts.News == nil {
			opts.News = news
		}
	}

	roster := buildRoster(backend, opts)

	cond := condition.Or(
		condition.TextMention(DecisionPhrase),
		condition.MaxMessages(cfg.Watch.MaxMessages),
	)

	rr, err := team.NewRoundRobin(roster, func(o *team.Options) {
		o.Condition = cond
		o.Logger = opts.Logger
		if opts.Console != nil {
			o.Observer = opts.Console
		}
	})
	if err != nil {
		return nil, err
	}

	watcher := watch.New(rr, cfg.Watch.Symbol, func(o *watch.Options) {
		o.Interval = cfg.Watch.PollInterval
		o.Console = opts.Console
		o.Logger = opts.Logger
	})

	return &StockMesh{cfg: cfg, team: rr, watcher: watcher}, nil
}

// Team exposes the underlying scheduler, mainly for tests and embedding.
func (m *StockMesh) Team() *team.RoundRobin { return m.team }

// Watch runs the real-time polling loop until ctx is cancelled.
func (m *StockMesh) Watch(ctx context.Context) error {
	return m.watcher.Run(ctx)
}

// RunOnce executes a single conversation cycle for the configured symbol.
func (m *StockMesh) RunOnce(ctx context.Context) (*team.Result, error) {
	task := fmt.Sprintf(
		"Analyze trends, real-time prices, and latest news for %s. Then make an investment decision.",
		m.cfg.Watch.Symbol,
	)
	return m.team.Run(ctx, m.cfg.Watch.Symbol, task)
}

// buildBackend selects and constructs the model backend from configuration.
func buildBackend(cfg *config.Config) (model.Model, error) {
	switch cfg.Model.Provider {
	case config.ProviderAzure:
		return openai.NewAzureModel(
			cfg.Model.Endpoint,
			cfg.Model.APIVersion,
			cfg.Model.APIKey,
			cfg.Model.Deployment,
		), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.Model.AnthropicAPIKey
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

// buildAdapters constructs the default market data adapters: a quote client
// for real-time prices and a grounded search client for trends and news.
func buildAdapters(cfg *config.Config, logger logging.Logger) (quotes, trends, news tool.Fetcher) {
	quoteClient := market.NewQuoteClient(func(o *market.QuoteClientOptions) {
		o.Logger = logger
	})

	searchOpts := []option.RequestOption{option.WithAPIKey(cfg.Model.APIKey)}
	if cfg.Project.Endpoint != "" {
		searchOpts = append(searchOpts, option.WithBaseURL(cfg.Project.Endpoint))
	} else if cfg.Model.Endpoint != "" {
		searchOpts = []option.RequestOption{
			azure.WithEndpoint(cfg.Model.Endpoint, cfg.Model.APIVersion),
			azure.WithAPIKey(cfg.Model.APIKey),
		}
	}

	searchSDK := openaisdk.NewClient(searchOpts...)
	search := market.NewSearchClient(&searchSDK, func(o *market.SearchClientOptions) {
		o.Model = cfg.Model.Deployment
		o.ConnectionID = cfg.Project.SearchConnection
		o.Logger = logger
	})

	return quoteClient.Fetch, market.TrendSummary(search), market.LatestNews(search)
}

// buildRoster creates the fixed four-agent team in turn order.
func buildRoster(backend model.Model, opts Options) []core.Agent {
	trendsAgent := agent.NewChatAgent("stock_trends_agent", backend, func(o *agent.ChatAgentOptions) {
		o.Instruction = "You are the Stock Trends Agent. You analyze both historical and real-time data " +
			"to summarize current stock movement patterns."
		o.Description = "Summarizes historical and real-time stock movement patterns"
		o.Tools = []tool.Tool{
			tool.NewFetchTool(ToolPriceTrends,
				"Summarize recent price movements and trends for a stock", opts.Trends),
			tool.NewFetchTool(ToolRealtimePrice,
				"Fetch the current real-time price for a stock", opts.Quotes),
		}
		o.Logger = opts.Logger
	})

	newsAgent := agent.NewChatAgent("news_agent", backend, func(o *agent.ChatAgentOptions) {
		o.Instruction = "You are the News Agent. Retrieve and summarize the latest relevant news for the stock."
		o.Description = "Retrieves and summarizes the latest stock news"
		o.Tools = []tool.Tool{
			tool.NewFetchTool(ToolNewsAnalysis,
				"Summarize the latest financial news for a stock", opts.News),
		}
		o.Logger = opts.Logger
	})

	sentimentAgent := agent.NewChatAgent("sentiment_agent", backend, func(o *agent.ChatAgentOptions) {
		o.Instruction = "You are the Sentiment Agent. Summarize the overall market mood " +
			"and investor confidence for the given stock."
		o.Description = "Summarizes market mood and investor confidence"
		o.Logger = opts.Logger
	})

	decisionAgent := agent.NewChatAgent("decision_agent", backend, func(o *agent.ChatAgentOptions) {
		o.Instruction = fmt.Sprintf(
			"You are the Decision Agent. Combine insights from trends, real-time prices, and news "+
				"to decide whether to INVEST or NOT INVEST. End with '%s'.", DecisionPhrase)
		o.Description = "Produces the terminal investment decision"
		o.Logger = opts.Logger
	})

	return []core.Agent{trendsAgent, newsAgent, sentimentAgent, decisionAgent}
}
