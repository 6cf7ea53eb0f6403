// Package api provides the HTTP/WebSocket surface: the admin/chat API,
// the inbound webhook surface, and the event-streaming WebSocket
// endpoint, all delegating to the store/hub/queue/webhook packages.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/relayhq/relayd/pkg/credentials"
	"github.com/relayhq/relayd/pkg/hub"
	"github.com/relayhq/relayd/pkg/queue"
	"github.com/relayhq/relayd/pkg/store"
	"github.com/relayhq/relayd/pkg/taskservice"
	"github.com/relayhq/relayd/pkg/webhook"
)

// maxBodyBytes bounds request bodies at the HTTP read level, ahead of
// JSON deserialization.
const maxBodyBytes = 2 * 1024 * 1024

// Server is the HTTP API server.
type Server struct {
	echo          *echo.Echo
	httpServer    *http.Server
	store         *store.Store
	hub           *hub.Hub
	pool          *queue.WorkerPool
	tasks         *taskservice.Service
	engine        *webhook.Engine
	registry      *webhook.Registry
	creds         *credentials.Store
	publicBaseURL string
}

// NewServer wires every dependency and registers routes.
func NewServer(
	st *store.Store,
	h *hub.Hub,
	pool *queue.WorkerPool,
	tasks *taskservice.Service,
	engine *webhook.Engine,
	registry *webhook.Registry,
	creds *credentials.Store,
	publicBaseURL string,
) *Server {
	e := echo.New()
	s := &Server{
		echo:          e,
		store:         st,
		hub:           h,
		pool:          pool,
		tasks:         tasks,
		engine:        engine,
		registry:      registry,
		creds:         creds,
		publicBaseURL: publicBaseURL,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(maxBodyBytes))

	s.echo.GET("/health", s.healthHandler)

	api := s.echo.Group("/api")
	api.POST("/chat", s.chatHandler)

	api.GET("/tasks/table", s.taskTableHandler)
	api.GET("/tasks/:id", s.taskDetailHandler)

	api.GET("/conversations", s.listConversationsHandler)
	api.POST("/conversations", s.createConversationHandler)
	api.GET("/conversations/:id", s.getConversationHandler)
	api.PUT("/conversations/:id", s.updateConversationHandler)
	api.DELETE("/conversations/:id", s.deleteConversationHandler)
	api.GET("/conversations/:id/messages", s.listMessagesHandler)
	api.POST("/conversations/:id/messages", s.appendMessageHandler)
	api.GET("/conversations/:id/context", s.getContextHandler)
	api.POST("/conversations/:id/clear", s.clearConversationHandler)

	api.GET("/webhooks", s.listWebhookConfigsHandler)
	api.POST("/webhooks", s.createWebhookConfigHandler)
	api.GET("/webhooks/status", s.webhookStatusHandler)
	api.GET("/webhooks/:id", s.getWebhookConfigHandler)
	api.PUT("/webhooks/:id", s.updateWebhookConfigHandler)
	api.DELETE("/webhooks/:id", s.deleteWebhookConfigHandler)
	api.POST("/webhooks/:id/commands", s.appendWebhookCommandHandler)
	api.PUT("/webhooks/:id/commands/:cmd", s.updateWebhookCommandHandler)
	api.DELETE("/webhooks/:id/commands/:cmd", s.deleteWebhookCommandHandler)

	api.GET("/credentials/status", s.credentialsStatusHandler)
	api.POST("/credentials/upload", s.credentialsUploadHandler)

	api.GET("/analytics/summary", s.analyticsSummaryHandler)
	api.GET("/analytics/costs/daily", s.dailyCostsHandler)
	api.GET("/analytics/costs/by-subagent", s.costsByAgentHandler)

	// Supplemented queue-health route, added to expose the worker
	// pool's health alongside /webhooks/status and /credentials/status.
	api.GET("/queue/health", s.queueHealthHandler)

	webhooks := s.echo.Group("/webhooks")
	webhooks.POST("/:provider", s.inboundWebhookHandler)
	webhooks.POST("/:provider/:webhook_id", s.inboundWebhookHandler)

	s.echo.GET("/ws/:session_id", s.wsHandler)
}

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener,
// used by tests to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	storeStatus := "ok"
	status := http.StatusOK
	if err := s.store.Ping(reqCtx); err != nil {
		storeStatus = err.Error()
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, &HealthResponse{
		Status: map[bool]string{true: "healthy", false: "unhealthy"}[status == http.StatusOK],
		Store:  storeStatus,
	})
}

// wsHandler upgrades the connection and relays every task event for
// the session's in-flight tasks (query param task_id, repeatable)
// until the client disconnects.
func (s *Server) wsHandler(c *echo.Context) error {
	sessionID := c.Param("session_id")
	taskIDs := c.QueryParams()["task_id"]

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}
	return s.hub.ServeSession(c.Request().Context(), conn, sessionID, taskIDs)
}
