package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/relayhq/relayd/pkg/apperr"
	"github.com/relayhq/relayd/pkg/store"
)

// Engine is the Webhook Engine (C6): given an inbound HTTP request it
// produces zero or more side effects — acknowledgements, tasks,
// audit entries —.
type Engine struct {
	registry  *Registry
	store     *store.Store
	creator   TaskCreator
	outbound  map[string]Outbound
	forwarder Forwarder
	log       *slog.Logger
	now       func() time.Time
}

// NewEngine wires a Registry, Store, task creator, and per-provider
// outbound clients into an Engine.
func NewEngine(registry *Registry, st *store.Store, creator TaskCreator, outbound map[string]Outbound, forwarder Forwarder) *Engine {
	return &Engine{
		registry:  registry,
		store:     st,
		creator:   creator,
		outbound:  outbound,
		forwarder: forwarder,
		log:       slog.Default().With("component", "webhook"),
		now:       time.Now,
	}
}

// Request is the normalized inbound webhook request the Engine acts
// on, independent of the HTTP framework in pkg/api.
type Request struct {
	Provider          string
	WebhookID         string // non-empty for the dynamic <provider>/<id> path
	GithubEventHeader string
	Headers           map[string]string
	Body              []byte
}

// Response is what the Engine hands back to the HTTP layer: a status
// plus an optional body for `respond` actions.
type Response struct {
	Status int
	Body   map[string]any
}

// Handle runs the full C6 pipeline for one inbound request: resolve
// config, verify signature, extract event type, match commands,
// execute actions in order, and record the audit entry.
func (e *Engine) Handle(ctx context.Context, req Request) (Response, error) {
	start := e.now()

	cfg, err := e.resolveConfig(req)
	if err != nil {
		return Response{Status: apperr.KindOf(err).Status()}, err
	}

	if err := e.verifySignature(cfg, req); err != nil {
		e.recordAudit(ctx, cfg, req, "", "", false, e.now().Sub(start))
		return Response{Status: apperr.KindOf(err).Status()}, err
	}

	var payload map[string]any
	if len(req.Body) > 0 {
		if err := json.Unmarshal(req.Body, &payload); err != nil {
			return Response{Status: apperr.KindInvalid.Status()}, apperr.Wrap(apperr.KindInvalid, "malformed payload", err)
		}
	}
	if payload == nil {
		payload = map[string]any{}
	}

	eventType := ExtractEventType(cfg.Provider, req.GithubEventHeader, payload)
	textBlob := ExtractTextBlob(cfg.Provider, payload)

	matched := MatchCommands(cfg.Commands, cfg.CommandPrefix, textBlob, cfg.DefaultCommand, eventType, payload)

	resp := Response{Status: 200, Body: map[string]any{}}
	ackSucceeded := false
	matchedName := ""
	createdTaskID := ""

	for _, cmd := range matched {
		matchedName = cmd.Name
		ok, taskID, body := e.execute(ctx, cfg, cmd, payload, textBlob, eventType)
		if isImmediateAction(cmd.Action) {
			ackSucceeded = ackSucceeded || ok
		}
		if taskID != "" {
			createdTaskID = taskID
		}
		if cmd.Action == store.ActionRespond && body != nil {
			resp.Body = body
		}
	}

	e.recordAudit(ctx, cfg, req, matchedName, createdTaskID, ackSucceeded, e.now().Sub(start))
	return resp, nil
}

func (e *Engine) resolveConfig(req Request) (store.WebhookConfig, error) {
	path := req.Provider
	if req.WebhookID != "" {
		path = req.Provider + "/" + req.WebhookID
	}
	return e.registry.LookupByPath(path)
}

func (e *Engine) verifySignature(cfg store.WebhookConfig, req Request) error {
	if !cfg.RequiresSignature {
		return nil
	}
	if cfg.SigningSecretEnv == "" {
		return apperr.New(apperr.KindUnauthorized, "webhook requires signature but no secret is configured")
	}
	secret := lookupSecret(cfg.SigningSecretEnv)
	if secret == "" {
		return apperr.New(apperr.KindUnauthorized, "signing secret is not set")
	}

	switch cfg.Provider {
	case "github":
		return VerifyGithub(secret, req.Headers["X-Hub-Signature-256"], req.Body)
	case "slack":
		return VerifySlack(secret, req.Headers["X-Slack-Signature"], req.Headers["X-Slack-Request-Timestamp"], req.Body, e.now())
	case "sentry":
		return VerifySentry(secret, req.Headers["Sentry-Hook-Signature"], req.Body)
	case "jira":
		if token := req.Headers["Authorization"]; token != "" {
			return VerifyJiraJWT(secret, token)
		}
		return VerifyJiraHMAC(secret, req.Headers["X-Hub-Signature"], req.Body)
	default:
		return nil
	}
}

// execute runs a single matched command's action, returning whether
// it succeeded, the created task id (if any), and a respond body (if
// any).
func (e *Engine) execute(ctx context.Context, cfg store.WebhookConfig, cmd store.WebhookCommand, payload map[string]any, textBlob, eventType string) (ok bool, taskID string, body map[string]any) {
	prompt := RenderTemplate(cmd.PromptTemplate, payload)
	out := e.outbound[cfg.Provider]

	switch cmd.Action {
	case store.ActionCreateTask, store.ActionAsk:
		externalID := DeriveExternalID(cfg.Provider, payload)
		meta := map[string]any{
			"raw_payload":  payload,
			"provider":     cfg.Provider,
			"event_type":   eventType,
			"requires_ask": cmd.Action == store.ActionAsk,
		}
		agent := cmd.TargetAgent
		if agent == "" {
			agent = cfg.DefaultAgent
		}
		id, err := e.creator.CreateTask(ctx, CreateTaskInput{
			Prompt:         prompt,
			AgentName:      agent,
			SourceMetadata: meta,
			ExternalID:     externalID,
		})
		if err != nil {
			e.log.Error("webhook: create_task failed", "error", err, "command", cmd.Name)
			return false, "", nil
		}
		return true, id, nil

	case store.ActionComment:
		if out == nil {
			return false, "", nil
		}
		if err := out.Comment(ctx, payload, prompt); err != nil {
			e.log.Warn("webhook: comment action failed", "error", err, "command", cmd.Name)
			return false, "", nil
		}
		return true, "", nil

	case store.ActionReact:
		if out == nil {
			return false, "", nil
		}
		if err := out.React(ctx, payload, "eyes"); err != nil {
			e.log.Warn("webhook: react action failed", "error", err, "command", cmd.Name)
			return false, "", nil
		}
		return true, "", nil

	case store.ActionLabel:
		if out == nil {
			return false, "", nil
		}
		if err := out.Label(ctx, payload, []string{cmd.Name}); err != nil {
			e.log.Warn("webhook: label action failed", "error", err, "command", cmd.Name)
			return false, "", nil
		}
		return true, "", nil

	case store.ActionRespond:
		return true, "", map[string]any{"message": prompt}

	case store.ActionForward:
		if e.forwarder == nil || cmd.ForwardURL == "" {
			return false, "", nil
		}
		if err := e.forwarder.Forward(ctx, cmd.ForwardURL, payload); err != nil {
			e.log.Warn("webhook: forward action failed", "error", err, "command", cmd.Name)
			return false, "", nil
		}
		return true, "", nil
	}
	return false, "", nil
}

func (e *Engine) recordAudit(ctx context.Context, cfg store.WebhookConfig, req Request, matchedCommand, createdTaskID string, ackSucceeded bool, elapsed time.Duration) {
	evt := store.WebhookEvent{
		ID:             uuid.NewString(),
		WebhookID:      cfg.ID,
		Provider:       req.Provider,
		RawPayload:     req.Body,
		MatchedCommand: matchedCommand,
		CreatedTaskID:  createdTaskID,
		ResponseSent:   ackSucceeded,
		AckDurationMS:  elapsed.Milliseconds(),
	}
	if err := e.store.RecordWebhookEvent(ctx, evt); err != nil {
		e.log.Error("webhook: failed to record audit event", "error", err)
	}
}
