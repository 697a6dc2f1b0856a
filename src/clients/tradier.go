package clients

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/goccy/go-json"
)

// TradierClient reads quotes and option chains from the Tradier brokerage API.
type TradierClient struct {
	*restClient
}

func NewTradierClient(opts Options) *TradierClient {
	return &TradierClient{restClient: newRestClient("tradier", opts)}
}

func (c *TradierClient) Name() string { return "tradier" }

type tradierQuote struct {
	Symbol string   `json:"symbol"`
	Last   *float64 `json:"last"`
}

type tradierQuotesResponse struct {
	Quotes struct {
		// A single symbol comes back as an object, several as an array.
		Quote json.RawMessage `json:"quote"`
	} `json:"quotes"`
}

// Quote returns the last traded price of symbol.
func (c *TradierClient) Quote(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbols", symbol)
	params.Set("greeks", "false")

	var resp tradierQuotesResponse
	if err := c.getJSON(ctx, "/markets/quotes", params, &resp); err != nil {
		return 0, err
	}

	quote, err := firstTradierQuote(resp.Quotes.Quote)
	if err != nil {
		return 0, fmt.Errorf("%w: tradier %s: %v", ErrNoQuote, symbol, err)
	}
	if quote == nil || quote.Last == nil || *quote.Last <= 0 {
		return 0, fmt.Errorf("%w: tradier %s", ErrNoQuote, symbol)
	}
	return *quote.Last, nil
}

func firstTradierQuote(raw json.RawMessage) (*tradierQuote, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var quotes []tradierQuote
		if err := json.Unmarshal(trimmed, &quotes); err != nil {
			return nil, err
		}
		if len(quotes) == 0 {
			return nil, nil
		}
		return &quotes[0], nil
	}
	var quote tradierQuote
	if err := json.Unmarshal(trimmed, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// OptionsChain returns the raw chain for symbol, greeks included. An empty expiry asks for all expirations.
func (c *TradierClient) OptionsChain(ctx context.Context, symbol, expiry string) (map[string]any, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("greeks", "true")
	if expiry != "" {
		params.Set("expiration", expiry)
	}

	var chain map[string]any
	if err := c.getJSON(ctx, "/markets/options/chains", params, &chain); err != nil {
		return nil, err
	}
	return chain, nil
}
