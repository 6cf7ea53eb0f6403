package api

import (
	"io"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/relayhq/relayd/pkg/store"
	"github.com/relayhq/relayd/pkg/webhook"
)

func (s *Server) listWebhookConfigsHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, toWebhookConfigResponses(s.registry.All()))
}

func (s *Server) webhookStatusHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"public_base_url": s.publicBaseURL,
		"configs":         toWebhookConfigResponses(s.registry.All()),
	})
}

func (s *Server) createWebhookConfigHandler(c *echo.Context) error {
	var req CreateWebhookConfigRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cfg := store.WebhookConfig{
		Provider:          req.Provider,
		EndpointPath:      req.EndpointPath,
		DefaultAgent:      req.DefaultAgent,
		SigningSecretEnv:  req.SigningSecretEnv,
		RequiresSignature: req.RequiresSignature,
		CommandPrefix:     req.CommandPrefix,
		DefaultCommand:    req.DefaultCommand,
		Enabled:           true,
		Commands:          toStoreCommands(req.Commands),
	}
	id, err := s.store.CreateWebhookConfig(c.Request().Context(), cfg)
	if err != nil {
		return mapError(err)
	}
	if err := s.registry.Reload(c.Request().Context()); err != nil {
		return mapError(err)
	}
	created, err := s.store.LoadWebhookConfigByID(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, toWebhookConfigResponse(created))
}

func (s *Server) getWebhookConfigHandler(c *echo.Context) error {
	cfg, err := s.store.LoadWebhookConfigByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toWebhookConfigResponse(cfg))
}

func (s *Server) updateWebhookConfigHandler(c *echo.Context) error {
	var req CreateWebhookConfigRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cfg := store.WebhookConfig{
		ID:                c.Param("id"),
		Provider:          req.Provider,
		EndpointPath:      req.EndpointPath,
		DefaultAgent:      req.DefaultAgent,
		SigningSecretEnv:  req.SigningSecretEnv,
		RequiresSignature: req.RequiresSignature,
		CommandPrefix:     req.CommandPrefix,
		DefaultCommand:    req.DefaultCommand,
		Enabled:           true,
	}
	if err := s.store.UpdateWebhookConfig(c.Request().Context(), cfg); err != nil {
		return mapError(err)
	}
	if err := s.registry.Reload(c.Request().Context()); err != nil {
		return mapError(err)
	}
	updated, err := s.store.LoadWebhookConfigByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toWebhookConfigResponse(updated))
}

func (s *Server) deleteWebhookConfigHandler(c *echo.Context) error {
	if err := s.store.DeleteWebhookConfig(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(err)
	}
	if err := s.registry.Reload(c.Request().Context()); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) appendWebhookCommandHandler(c *echo.Context) error {
	var req WebhookCommandRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.store.AppendCommand(c.Request().Context(), c.Param("id"), toStoreCommand(req)); err != nil {
		return mapError(err)
	}
	if err := s.registry.Reload(c.Request().Context()); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusCreated)
}

func (s *Server) updateWebhookCommandHandler(c *echo.Context) error {
	var req WebhookCommandRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.store.UpdateCommand(c.Request().Context(), c.Param("id"), c.Param("cmd"), toStoreCommand(req)); err != nil {
		return mapError(err)
	}
	if err := s.registry.Reload(c.Request().Context()); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) deleteWebhookCommandHandler(c *echo.Context) error {
	if err := s.store.DeleteCommand(c.Request().Context(), c.Param("id"), c.Param("cmd")); err != nil {
		return mapError(err)
	}
	if err := s.registry.Reload(c.Request().Context()); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// inboundWebhookHandler serves both the static (/webhooks/<provider>)
// and dynamic (/webhooks/<provider>/<webhook_id>) inbound routes,
// delegating match/verify/execute to the Engine.
func (s *Server) inboundWebhookHandler(c *echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}

	headers := make(map[string]string, len(c.Request().Header))
	for k, v := range c.Request().Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	resp, err := s.engine.Handle(c.Request().Context(), webhook.Request{
		Provider:          c.Param("provider"),
		WebhookID:         c.Param("webhook_id"),
		GithubEventHeader: c.Request().Header.Get("X-GitHub-Event"),
		Headers:           headers,
		Body:              body,
	})
	if err != nil {
		return mapError(err)
	}
	if resp.Body == nil {
		return c.NoContent(resp.Status)
	}
	return c.JSON(resp.Status, resp.Body)
}

func toStoreCommand(req WebhookCommandRequest) store.WebhookCommand {
	return store.WebhookCommand{
		Name:           req.Name,
		Aliases:        req.Aliases,
		TargetAgent:    req.TargetAgent,
		PromptTemplate: req.PromptTemplate,
		TriggerEvent:   req.TriggerEvent,
		Conditions:     req.Conditions,
		Priority:       req.Priority,
		Action:         store.ActionKind(req.Action),
		ForwardURL:     req.ForwardURL,
	}
}

func toStoreCommands(reqs []WebhookCommandRequest) []store.WebhookCommand {
	out := make([]store.WebhookCommand, len(reqs))
	for i, r := range reqs {
		out[i] = toStoreCommand(r)
	}
	return out
}

func toWebhookConfigResponse(cfg *store.WebhookConfig) WebhookConfigResponse {
	names := make([]string, len(cfg.Commands))
	for i, cmd := range cfg.Commands {
		names[i] = cmd.Name
	}
	return WebhookConfigResponse{
		ID:                cfg.ID,
		Source:            string(cfg.Source),
		Provider:          cfg.Provider,
		EndpointPath:      cfg.EndpointPath,
		DefaultAgent:      cfg.DefaultAgent,
		RequiresSignature: cfg.RequiresSignature,
		CommandPrefix:     cfg.CommandPrefix,
		DefaultCommand:    cfg.DefaultCommand,
		Enabled:           cfg.Enabled,
		CommandNames:      names,
	}
}

func toWebhookConfigResponses(cfgs []store.WebhookConfig) []WebhookConfigResponse {
	out := make([]WebhookConfigResponse, len(cfgs))
	for i, cfg := range cfgs {
		out[i] = toWebhookConfigResponse(&cfg)
	}
	return out
}
