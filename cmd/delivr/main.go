// delivr is the release orchestration engine's server: it wires config,
// database, provider adapters, the task executor, state machine,
// scheduler, workflow pollers, callback aggregator, and Service API
// façade into one process, then serves a small HTTP surface (health,
// metrics, and the Service API under /api/v1) alongside them. Grounded on
// the teacher's cmd/tarsy/main.go:
// flag-driven config directory, best-effort .env loading, explicit struct
// construction of every component (no DI container — spec.md §9's
// redesign note: "construct a composition root... pass them explicitly"),
// and a gin router serving /health.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dream-horizon/delivr/pkg/api"
	"github.com/dream-horizon/delivr/pkg/callback"
	"github.com/dream-horizon/delivr/pkg/clock"
	"github.com/dream-horizon/delivr/pkg/config"
	"github.com/dream-horizon/delivr/pkg/database"
	"github.com/dream-horizon/delivr/pkg/events"
	"github.com/dream-horizon/delivr/pkg/executor"
	"github.com/dream-horizon/delivr/pkg/polling"
	"github.com/dream-horizon/delivr/pkg/providers"
	"github.com/dream-horizon/delivr/pkg/providers/checkmate"
	"github.com/dream-horizon/delivr/pkg/providers/github"
	"github.com/dream-horizon/delivr/pkg/providers/jenkins"
	"github.com/dream-horizon/delivr/pkg/providers/jira"
	"github.com/dream-horizon/delivr/pkg/providers/slacknotify"
	providerstore "github.com/dream-horizon/delivr/pkg/providers/store"
	"github.com/dream-horizon/delivr/pkg/repositories"
	"github.com/dream-horizon/delivr/pkg/scheduler"
	"github.com/dream-horizon/delivr/pkg/services"
	"github.com/dream-horizon/delivr/pkg/statemachine"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	ginMode := getEnv("GIN_MODE", "debug")
	gin.SetMode(ginMode)

	log.Printf("starting delivr")
	log.Printf("http port: %s", httpPort)
	log.Printf("config directory: %s", *configDir)

	ctx := context.Background()

	doc, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("failed to load database config: %v", err)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("error closing database client: %v", err)
		}
	}()
	log.Println("connected to postgres, schema materialized")

	store := repositories.NewStore(dbClient.Client)

	registry := buildProviderRegistry(doc.Providers, doc.Scheduler.ProviderTimeout)
	breaker := providers.NewBreakerManager()

	pub, err := events.Connect(getEnv("NATS_URL", "nats://127.0.0.1:4222"))
	if err != nil {
		log.Printf("warning: could not connect to nats, event fan-out disabled: %v", err)
		pub = nil
	} else {
		defer pub.Close()
	}

	clk := clock.Real{}
	exec := executor.New(store, registry, breaker)
	sm := statemachine.New(store, exec, clk, pub, doc.Scheduler.SlotMatchWindow, 24*time.Hour)
	sched := scheduler.New(store, sm, doc.Scheduler)
	cb := callback.New(store, clk, pub)
	poller := polling.New(store, registry, breaker, cb, doc.Polling)
	svc := services.New(store, sched, noCherryPickChecker{}, cb, pub, clk)

	if err := sched.Reconcile(ctx); err != nil {
		log.Printf("warning: scheduler reconcile failed: %v", err)
	}
	poller.Start(ctx)
	defer poller.Stop()
	defer sched.Shutdown()

	apiServer := api.NewServer(svc, store)

	router := gin.Default()
	apiServer.Register(router.Group("/api/v1"))
	router.GET("/health", func(c *gin.Context) {
		reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		dbHealth, err := database.Health(reqCtx, dbClient.DB())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": dbHealth,
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  dbHealth,
			"scheduler": sched.Health(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Printf("http server listening on :%s", httpPort)
	if err := router.Run(":" + httpPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// buildProviderRegistry wires every configured provider adapter into a
// fresh Registry. A provider whose config is entirely zero-valued is
// still registered — a release that targets it will simply fail its
// first call, surfacing a clear provider error instead of a silent
// registry lookup miss.
func buildProviderRegistry(cfg config.ProvidersConfig, timeout time.Duration) *providers.Registry {
	registry := providers.NewRegistry()

	ghClient, err := github.NewClient(github.Config{
		Token:   cfg.GitHub.Token,
		Owner:   cfg.GitHub.Owner,
		Repo:    cfg.GitHub.Repo,
		BaseURL: cfg.GitHub.BaseURL,
	})
	if err != nil {
		slog.Error("failed to build github client", "error", err)
	} else {
		registry.RegisterSCM(providers.ProviderGitHubActions, ghClient)
		registry.RegisterCICD(providers.ProviderGitHubActions, ghClient)
	}

	jenkinsClient := jenkins.NewClient(jenkins.Config{
		BaseURL:  cfg.Jenkins.BaseURL,
		User:     cfg.Jenkins.User,
		APIToken: cfg.Jenkins.APIToken,
		Timeout:  timeout,
	})
	registry.RegisterCICD(providers.ProviderJenkins, jenkinsClient)

	jiraClient := jira.NewClient(jira.Config{
		BaseURL:  cfg.Jira.BaseURL,
		Email:    cfg.Jira.User,
		APIToken: cfg.Jira.APIToken,
		Timeout:  timeout,
	})
	registry.RegisterProjectMgmt(providers.ProviderJira, jiraClient)

	checkmateClient := checkmate.NewClient(checkmate.Config{
		BaseURL: cfg.Checkmate.BaseURL,
		APIKey:  cfg.Checkmate.APIKey,
		Timeout: timeout,
	})
	registry.RegisterTestMgmt(providers.ProviderCheckmate, checkmateClient)

	slackClient := slacknotify.NewClient(cfg.Slack.Token, timeout)
	registry.RegisterNotification(providers.ProviderSlack, slackClient)

	storeClient := providerstore.NewClient(providerstore.Config{
		AppStoreBaseURL:  cfg.Store.AppStoreBaseURL,
		AppStoreAPIKey:   cfg.Store.AppStoreAPIKey,
		PlayStoreBaseURL: cfg.Store.PlayStoreBaseURL,
		PlayStoreAPIKey:  cfg.Store.PlayStoreAPIKey,
		Timeout:          timeout,
	})
	registry.RegisterStore(providers.ProviderAppStore, storeClient)
	registry.RegisterStore(providers.ProviderPlayStore, storeClient)

	return registry
}

// noCherryPickChecker is a placeholder services.CherryPickChecker: this
// deployment has no external ReleaseStatusService wired yet (spec.md §4.H
// delegates triggerStage3's cherry-pick predicate to one), so every
// release reports no pending cherry-picks until a real adapter replaces
// this type.
type noCherryPickChecker struct{}

func (noCherryPickChecker) HasPendingCherryPicks(ctx context.Context, releaseID string) (bool, error) {
	return false, nil
}
