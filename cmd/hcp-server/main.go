package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"hcpresearch-backend/lib/configutil"
	"hcpresearch-backend/lib/platforms/linkedin"
	"hcpresearch-backend/lib/platforms/openai"
	"hcpresearch-backend/lib/platforms/reddit"
	"hcpresearch-backend/lib/platforms/twitter"
	"hcpresearch-backend/lib/serviceutil"
	"hcpresearch-backend/lib/sheets"
	"hcpresearch-backend/lib/sqliteutil"
	"hcpresearch-backend/lib/telemetry"
	"hcpresearch-backend/services/auth"
	authdb "hcpresearch-backend/services/auth/db"
	"hcpresearch-backend/services/feed"
	feeddb "hcpresearch-backend/services/feed/db"
	"hcpresearch-backend/services/insights"
	insightsdb "hcpresearch-backend/services/insights/db"
	"hcpresearch-backend/services/pathways"
	"hcpresearch-backend/services/prescriptions"

	"hcpresearch-backend/cmd/hcp-server/handlers"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type AuthConfig struct {
	Smtp                 auth.SmtpConfig `json:"smtp"`
	AllowedDomains       []string        `json:"allowed_domains"`
	TestEmail            string          `json:"test_email"`
	TestVerificationCode string          `json:"test_verification_code"`
}

type Config struct {
	Port             int              `json:"port"`
	FeedDatabase     string           `json:"feed_database"`
	AuthDatabase     string           `json:"auth_database"`
	InsightsDatabase string           `json:"insights_database"`
	RapidApiKey      string           `json:"rapidapi_key"`
	OpenAiKey        string           `json:"openai_key"`
	OpenAiModel      string           `json:"openai_model"`
	PrescriptionsDir string           `json:"prescriptions_dir"`
	Sheet            feed.SheetConfig `json:"sheet"`
	Auth             AuthConfig       `json:"auth"`
}

func envFallback(value, envKey string) string {
	if value != "" {
		return value
	}
	return os.Getenv(envKey)
}

func main() {
	verbose := flag.Bool("v", false, "enable verbose logging")
	flag.Parse()

	// secrets land in .env during development, missing file is fine
	godotenv.Load()

	ctx := serviceutil.SignalContext()
	initTelemetry(ctx, *verbose)
	defer telemetry.Shutdown(context.Background())

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.Port == 0 {
		config.Port = 8080
	}

	rapidApiKey := envFallback(config.RapidApiKey, "RAPIDAPI_KEY")
	openAiKey := envFallback(config.OpenAiKey, "OPENAI_API_KEY")

	feedDatabase, err := sqliteutil.OpenDB(feeddb.Schema, config.FeedDatabase)
	if err != nil {
		serviceutil.Fatal("failed to open feed database", err)
	}
	authDatabase, err := sqliteutil.OpenDB(authdb.Schema, config.AuthDatabase)
	if err != nil {
		serviceutil.Fatal("failed to open auth database", err)
	}
	insightsDatabase, err := sqliteutil.OpenDB(insightsdb.Schema, config.InsightsDatabase)
	if err != nil {
		serviceutil.Fatal("failed to open insights database", err)
	}

	sheetsClient := sheets.NewClient()
	feedService := feed.NewService(feedDatabase, feed.Options{
		LinkedIn: linkedin.NewClient(linkedin.DefaultBaseUrl, rapidApiKey),
		Twitter:  twitter.NewClient(twitter.DefaultBaseUrl, rapidApiKey),
		Reddit:   reddit.NewClient(reddit.DefaultBaseUrl, rapidApiKey),
		Sheets:   sheetsClient,
		Sheet:    config.Sheet,
	})

	authService := auth.NewService(authDatabase, auth.Options{
		Sender:               auth.SmtpSender{Config: config.Auth.Smtp},
		AllowedDomains:       config.Auth.AllowedDomains,
		TestEmail:            config.Auth.TestEmail,
		TestVerificationCode: config.Auth.TestVerificationCode,
	})
	authService.StartExpiryDaemon(ctx)

	insightService, err := insights.NewService(
		insightsDatabase,
		openai.NewClient(openai.DefaultBaseUrl, openAiKey, config.OpenAiModel),
	)
	if err != nil {
		serviceutil.Fatal("failed to initialize insights service", err)
	}

	pathwayService := pathways.NewService(sheetsClient, config.Sheet.BigDataUrl, insightService)

	prescriptionService, err := prescriptions.NewService(ctx, config.PrescriptionsDir)
	if err != nil {
		serviceutil.Fatal("failed to load prescription data", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.InfoContext(c.Request().Context(), "request",
				"uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	e.GET("/", dashboardHandler)

	api := e.Group("/api")
	api.POST("/auth/start", handlers.StartLoginHandler(authService))
	api.POST("/auth/verify", handlers.VerifyHandler(authService))

	protected := api.Group("", handlers.BearerAuth(authService))
	protected.GET("/feed", handlers.SearchFeedHandler(feedService))
	protected.GET("/feed/cached", handlers.CachedFeedHandler(feedService))
	protected.GET("/feed/bigdata", handlers.BigDataHandler(feedService))
	protected.GET("/feed/metrics", handlers.FeedMetricsHandler(feedService))
	protected.POST("/insights", handlers.AnalyzeHandler(insightService, feedService))
	protected.GET("/prompt", handlers.GetPromptHandler(insightService))
	protected.PUT("/prompt", handlers.SetPromptHandler(insightService))
	protected.GET("/pathways", handlers.PathwaysHandler(pathwayService))
	protected.GET("/pathways/insights", handlers.PathwayInsightsHandler(pathwayService))
	protected.GET("/prescriptions/sections", handlers.PrescriptionSectionsHandler(prescriptionService))
	protected.GET("/prescriptions/summary", handlers.PrescriptionSummaryHandler(prescriptionService))
	protected.GET("/prescriptions/top-regions", handlers.TopRegionsHandler(prescriptionService))
	protected.GET("/prescriptions/top-drugs", handlers.TopDrugsHandler(prescriptionService))
	protected.GET("/prescriptions/cost-distribution", handlers.CostDistributionHandler(prescriptionService))
	protected.GET("/prescriptions/uom-distribution", handlers.UomDistributionHandler(prescriptionService))
	protected.GET("/prescriptions/export", handlers.ExportPrescriptionsHandler(prescriptionService))

	go func() {
		err := e.Start(fmt.Sprintf(":%d", config.Port))
		if err != nil && err != http.ErrServerClosed {
			serviceutil.Fatal("http server exited", err)
		}
	}()
	slog.Info("hcp-server listening", "port", config.Port)

	<-ctx.Done()
	e.Shutdown(context.Background())
}
