// backend/src/services/price_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sourcegraph/conc/pool"

	"github.com/username/optionledger/backend/src/logger"
	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/security/validation"
)

const (
	ckQuote = "quote_%s"
	// maxQuoteWorkers bounds concurrent upstream lookups for a batch request.
	maxQuoteWorkers = 4
)

type priceServiceImpl struct {
	providers  map[string]QuoteProvider
	chains     ChainProvider
	quoteCache *cache.Cache
	clock      func() time.Time
}

// NewPriceService builds a PriceService over the given providers. A nil provider is skipped;
// quotes are cached per symbol with the cache's default expiration.
func NewPriceService(tradier, webull QuoteProvider, chains ChainProvider, quoteCache *cache.Cache) PriceService {
	providers := make(map[string]QuoteProvider, 2)
	if tradier != nil {
		providers[models.QuoteSourceTradier] = tradier
	}
	if webull != nil {
		providers[models.QuoteSourceWebull] = webull
	}
	return &priceServiceImpl{
		providers:  providers,
		chains:     chains,
		quoteCache: quoteCache,
		clock:      time.Now,
	}
}

// providerOrder puts the preferred source first and the other one second.
func providerOrder(preferredSource string) []string {
	if strings.EqualFold(strings.TrimSpace(preferredSource), models.QuoteSourceWebull) {
		return []string{models.QuoteSourceWebull, models.QuoteSourceTradier}
	}
	return []string{models.QuoteSourceTradier, models.QuoteSourceWebull}
}

func (s *priceServiceImpl) GetQuote(ctx context.Context, symbol, preferredSource string) (*models.Quote, error) {
	symbol = validation.SanitizeSymbol(symbol)
	if err := validation.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf(ckQuote, symbol)
	if cached, found := s.quoteCache.Get(cacheKey); found {
		return cached.(*models.Quote), nil
	}

	log := logger.FromContext(ctx)
	var errs []error
	for _, name := range providerOrder(preferredSource) {
		provider, ok := s.providers[name]
		if !ok {
			continue
		}
		price, err := provider.Quote(ctx, symbol)
		if err != nil {
			log.Warn("Quote provider failed", "provider", name, "symbol", symbol, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		quote := &models.Quote{Symbol: symbol, Price: price, Source: name, FetchedAt: s.clock().UTC()}
		s.quoteCache.Set(cacheKey, quote, cache.DefaultExpiration)
		return quote, nil
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no quote provider configured", ErrPriceUnavailable)
	}
	return nil, fmt.Errorf("%w for %s: %w", ErrPriceUnavailable, symbol, errors.Join(errs...))
}

// GetQuotes looks up several symbols concurrently. Duplicates are collapsed and the
// result keeps the order in which symbols first appeared.
func (s *priceServiceImpl) GetQuotes(ctx context.Context, symbols []string, preferredSource string) []models.QuoteResult {
	seen := make(map[string]bool, len(symbols))
	var unique []string
	for _, sym := range symbols {
		sym = validation.SanitizeSymbol(sym)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		unique = append(unique, sym)
	}

	results := make([]models.QuoteResult, len(unique))
	p := pool.New().WithMaxGoroutines(maxQuoteWorkers)
	for i, sym := range unique {
		p.Go(func() {
			result := models.QuoteResult{Symbol: sym}
			quote, err := s.GetQuote(ctx, sym, preferredSource)
			if err != nil {
				result.Error = err.Error()
			} else {
				price := quote.Price
				result.Price = &price
				result.Source = quote.Source
			}
			results[i] = result
		})
	}
	p.Wait()
	return results
}

func (s *priceServiceImpl) PriceFor(ctx context.Context, symbol string) (float64, bool) {
	quote, err := s.GetQuote(ctx, symbol, models.QuoteSourceTradier)
	if err != nil {
		return 0, false
	}
	return quote.Price, true
}

func (s *priceServiceImpl) OptionsChain(ctx context.Context, symbol, expiry string) (map[string]any, error) {
	symbol = validation.SanitizeSymbol(symbol)
	if err := validation.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if _, err := validation.ValidateDateString(expiry, "expiry"); err != nil {
		return nil, err
	}
	if s.chains == nil {
		return nil, fmt.Errorf("%w: no chain provider configured", ErrChainUnavailable)
	}
	chain, err := s.chains.OptionsChain(ctx, symbol, strings.TrimSpace(expiry))
	if err != nil {
		logger.FromContext(ctx).Warn("Options chain lookup failed", "symbol", symbol, "expiry", expiry, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrChainUnavailable, err)
	}
	return chain, nil
}
