package clients

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/username/optionledger/backend/src/models"
)

// WebullClient reads quotes and option chains from Webull and places orders.
type WebullClient struct {
	*restClient
}

func NewWebullClient(opts Options) *WebullClient {
	return &WebullClient{restClient: newRestClient("webull", opts)}
}

func (c *WebullClient) Name() string { return "webull" }

type webullQuoteResponse struct {
	Data *struct {
		Price *float64 `json:"price"`
	} `json:"data"`
	Close *float64 `json:"close"`
	Last  *float64 `json:"last"`
}

// Quote returns the current price of symbol, trying data.price, then close, then last.
func (c *WebullClient) Quote(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp webullQuoteResponse
	if err := c.getJSON(ctx, "/quote", params, &resp); err != nil {
		return 0, err
	}

	var price *float64
	switch {
	case resp.Data != nil && resp.Data.Price != nil:
		price = resp.Data.Price
	case resp.Close != nil:
		price = resp.Close
	case resp.Last != nil:
		price = resp.Last
	}
	if price == nil || *price <= 0 {
		return 0, fmt.Errorf("%w: webull %s", ErrNoQuote, symbol)
	}
	return *price, nil
}

// OptionChain returns Webull's raw chain for symbol and an optional expiry.
func (c *WebullClient) OptionChain(ctx context.Context, symbol, expiry string) (map[string]any, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	if expiry != "" {
		params.Set("expiry", expiry)
	}

	var chain map[string]any
	if err := c.getJSON(ctx, "/quote/option", params, &chain); err != nil {
		return nil, err
	}
	return chain, nil
}

// PlaceOrder submits one option order. Limit orders carry a price; other order types drop it.
func (c *WebullClient) PlaceOrder(ctx context.Context, order models.OrderRequest) (map[string]any, error) {
	order.Action = strings.ToUpper(order.Action)
	order.OrderType = strings.ToUpper(order.OrderType)
	if order.OrderType == "" {
		order.OrderType = "LMT"
	}
	if order.OrderType != "LMT" || (order.Price != nil && *order.Price <= 0) {
		order.Price = nil
	}

	var confirmation map[string]any
	if err := c.postJSON(ctx, "/order/place", order, &confirmation); err != nil {
		return nil, err
	}
	return confirmation, nil
}
