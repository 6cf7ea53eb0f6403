// relayd is the automation daemon: it ingests webhooks, matches them
// to commands, queues tasks, runs a headless CLI per task, and serves
// the admin/chat HTTP API plus a WebSocket output stream.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/relayhq/relayd/pkg/api"
	"github.com/relayhq/relayd/pkg/cliexec"
	"github.com/relayhq/relayd/pkg/config"
	"github.com/relayhq/relayd/pkg/credentials"
	"github.com/relayhq/relayd/pkg/hub"
	"github.com/relayhq/relayd/pkg/queue"
	"github.com/relayhq/relayd/pkg/scheduler"
	"github.com/relayhq/relayd/pkg/store"
	"github.com/relayhq/relayd/pkg/taskservice"
	"github.com/relayhq/relayd/pkg/webhook"
	"github.com/relayhq/relayd/pkg/webhook/providers"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}
	cfg := config.Load()
	if cfg.DatabaseDSN == "" {
		slog.Error("RELAYD_DATABASE_DSN is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{DSN: cfg.DatabaseDSN})
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := queue.CleanupStartupOrphans(ctx, st); err != nil {
		slog.Error("failed to clean up startup orphans", "error", err)
		os.Exit(1)
	}

	h := hub.New()
	runner := cliexec.New()
	models := config.DefaultModelConfig()
	queueCfg := config.DefaultQueueConfig()

	tasks := taskservice.New(st)
	executor := queue.NewExecutor(runner, h, st, models, cfg.CLIBinary)
	pool := queue.NewWorkerPool(nodeID(), st, &queueCfg, executor)

	outbound := buildOutboundClients(cfg)
	builtin, err := loadBuiltinWebhookConfigs(cfg.WebhookConfigPath)
	if err != nil {
		slog.Error("failed to load builtin webhook configs", "error", err)
		os.Exit(1)
	}
	if err := webhook.ValidateNoPathCollisions(builtin); err != nil {
		slog.Error("invalid builtin webhook configs", "error", err)
		os.Exit(1)
	}
	registry := webhook.NewRegistry(st, builtin)
	if err := registry.Reload(ctx); err != nil {
		slog.Error("failed to load dynamic webhook configs", "error", err)
		os.Exit(1)
	}
	engine := webhook.NewEngine(registry, st, tasks, outbound, providers.NewHTTPForwarder())

	credStore := credentials.New(cfg.CredentialsPath)
	sched := scheduler.New(st, credStore, cfg.SessionIdleThreshold)

	server := api.NewServer(st, h, pool, tasks, engine, registry, credStore, cfg.PublicBaseURL)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := pool.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		pool.Stop()
		return nil
	})

	g.Go(func() error {
		if err := sched.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		sched.Stop()
		return nil
	})

	g.Go(func() error {
		slog.Info("http server listening", "addr", cfg.HTTPAddr)
		err := server.Start(cfg.HTTPAddr)
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("relayd exited with error", "error", err)
		os.Exit(1)
	}
}

func nodeID() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "relayd"
}

func loadBuiltinWebhookConfigs(path string) ([]store.WebhookConfig, error) {
	dtos, err := config.LoadBuiltinWebhookConfigs(path)
	if err != nil {
		return nil, err
	}
	out := make([]store.WebhookConfig, 0, len(dtos))
	for _, d := range dtos {
		cmds := make([]store.WebhookCommand, 0, len(d.Commands))
		for _, c := range d.Commands {
			cmds = append(cmds, store.WebhookCommand{
				Name:           c.Name,
				Aliases:        c.Aliases,
				TargetAgent:    c.TargetAgent,
				PromptTemplate: c.PromptTemplate,
				TriggerEvent:   c.TriggerEvent,
				Conditions:     c.Conditions,
				Priority:       c.Priority,
				Action:         store.ActionKind(c.Action),
				ForwardURL:     c.ForwardURL,
			})
		}
		out = append(out, store.WebhookConfig{
			ID:                d.ID,
			Source:            store.ConfigBuiltin,
			Provider:          d.Provider,
			EndpointPath:      d.EndpointPath,
			DefaultAgent:      d.DefaultAgent,
			SigningSecretEnv:  d.SigningSecretEnv,
			RequiresSignature: d.RequiresSignature,
			CommandPrefix:     d.CommandPrefix,
			DefaultCommand:    d.DefaultCommand,
			Enabled:           d.Enabled,
			Commands:          cmds,
		})
	}
	return out, nil
}

func buildOutboundClients(cfg config.AppConfig) map[string]webhook.Outbound {
	out := make(map[string]webhook.Outbound)
	if cfg.GithubToken != "" {
		out["github"] = providers.NewGithubOutbound(cfg.GithubToken)
	}
	if cfg.SlackToken != "" {
		out["slack"] = providers.NewSlackOutbound(cfg.SlackToken)
	}
	if cfg.JiraBaseURL != "" {
		out["jira"] = providers.NewJiraOutbound(cfg.JiraBaseURL, cfg.JiraEmail, cfg.JiraAPIToken)
	}
	if cfg.SentryBaseURL != "" {
		out["sentry"] = providers.NewSentryOutbound(cfg.SentryBaseURL, cfg.SentryToken)
	}
	return out
}
