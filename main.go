package main

import (
	"crypto/tls"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/optionledger/backend/src/clients"
	"github.com/username/optionledger/backend/src/config"
	"github.com/username/optionledger/backend/src/database"
	"github.com/username/optionledger/backend/src/handlers"
	"github.com/username/optionledger/backend/src/logger"
	"github.com/username/optionledger/backend/src/parsers/normalize"
	"github.com/username/optionledger/backend/src/processors"
	"github.com/username/optionledger/backend/src/security"
	"github.com/username/optionledger/backend/src/services"
	"github.com/username/optionledger/backend/src/utils"
)

const tradeTokenTTL = 12 * time.Hour

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel, config.Cfg.LogFormat)

	authService := security.NewAuthService(config.Cfg.TradeSigningSecret)

	// "issue-trade-token <subject>" prints a token for the place-trade endpoint and exits.
	if len(os.Args) > 1 && os.Args[1] == "issue-trade-token" {
		subject := "cli"
		if len(os.Args) > 2 {
			subject = os.Args[2]
		}
		token, err := authService.GenerateTradeToken(subject, tradeTokenTTL)
		if err != nil {
			stdlog.Fatalf("Failed to issue trade token: %v", err)
		}
		fmt.Println(token)
		return
	}

	logger.L.Info("Option ledger backend server starting...")

	aliases := normalize.DefaultAliases()
	if config.Cfg.ColumnAliasesPath != "" {
		loaded, err := normalize.LoadAliases(config.Cfg.ColumnAliasesPath)
		if err != nil {
			logger.L.Error("Failed to load column aliases", "path", config.Cfg.ColumnAliasesPath, "error", err)
			os.Exit(1)
		}
		aliases = loaded
	}
	normalizer := normalize.NewNormalizer(aliases)

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations()

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	quoteCache := cache.New(config.Cfg.QuoteCacheTTL, services.CacheCleanupInterval)

	clientOpts := func(baseURL, apiKey string) clients.Options {
		return clients.Options{
			BaseURL:       baseURL,
			APIKey:        apiKey,
			Timeout:       config.Cfg.QuoteTimeout,
			OrderTimeout:  config.Cfg.OrderTimeout,
			MaxRetries:    uint(config.Cfg.QuoteMaxRetries),
			RetryInterval: 500 * time.Millisecond,
		}
	}
	tradierClient := clients.NewTradierClient(clientOpts(config.Cfg.TradierBaseURL, config.Cfg.TradierAPIKey))
	webullClient := clients.NewWebullClient(clientOpts(config.Cfg.WebullBaseURL, config.Cfg.WebullAPIKey))

	ledgerRebuilder := processors.NewLedgerRebuilder(time.Now)

	ledgerService := services.NewLedgerService(database.DB, normalizer, ledgerRebuilder, reportCache, time.Now)
	priceService := services.NewPriceService(tradierClient, webullClient, tradierClient, quoteCache)
	riskService := services.NewRiskService(priceService)
	tradingService := services.NewTradingService(webullClient)

	uploadHandler := handlers.NewUploadHandler(ledgerService, config.Cfg.MaxUploadSizeBytes)
	tradeLogHandler := handlers.NewTradeLogHandler(ledgerService)
	marketHandler := handlers.NewMarketHandler(priceService)
	riskHandler := handlers.NewRiskHandler(riskService)
	tradingHandler := handlers.NewTradingHandler(tradingService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.Cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match", "X-Requested-With"},
		ExposedHeaders:   []string{"ETag", "X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Option ledger backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/uploads/{source}", uploadHandler.HandleUpload)
		r.Get("/trades/{source}", tradeLogHandler.HandleGetRawTrades)

		r.Get("/trade-log", tradeLogHandler.HandleGetTradeLog)
		r.Get("/trade-log/summary", tradeLogHandler.HandleGetSummary)
		r.Get("/trade-log/export", tradeLogHandler.HandleExport)
		r.Post("/trade-log/rebuild", tradeLogHandler.HandleRebuild)
		r.Get("/trade-log/rebuild", tradeLogHandler.HandleGetLatestRebuild)

		r.Get("/market-price", marketHandler.HandleGetMarketPrice)
		r.Get("/market-prices", marketHandler.HandleGetMarketPrices)
		r.Get("/options-chain", marketHandler.HandleGetOptionsChain)

		r.Post("/calculate-risk", riskHandler.HandleCalculateRisk)

		r.Group(func(r chi.Router) {
			r.Use(handlers.TradeAuthMiddleware(authService))
			r.Post("/place-trade", tradingHandler.HandlePlaceTrade)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			utils.SendJSONError(w, "Not found", http.StatusNotFound)
			return
		}
		http.NotFound(w, r)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr,
		"tradierConfigured", tradierClient.Configured(),
		"webullConfigured", webullClient.Configured(),
		"tradingEnabled", authService.Enabled())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
