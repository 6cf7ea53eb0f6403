package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/relayhq/relayd/pkg/apperr"
)

// execer is the subset of pgxpool.Pool and pgx.Tx that
// insertCommand needs, so the same helper serves both the
// transactional create path and the standalone append path.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// CreateWebhookConfig inserts a dynamic webhook config and its
// commands in one transaction.
func (s *Store) CreateWebhookConfig(ctx context.Context, c WebhookConfig) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Provider == "" || c.EndpointPath == "" {
		return "", apperr.New(apperr.KindInvalid, "provider and endpoint path are required")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", apperr.Wrap(apperr.KindBackend, "begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO webhook_configs (id, source, provider, endpoint_path, default_agent,
			signing_secret_env, requires_signature, command_prefix, default_command, enabled, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		c.ID, ConfigDynamic, c.Provider, c.EndpointPath, c.DefaultAgent, c.SigningSecretEnv,
		c.RequiresSignature, c.CommandPrefix, c.DefaultCommand, c.Enabled, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return "", apperr.Wrap(apperr.KindConflict, "endpoint path already in use", err)
		}
		return "", apperr.Wrap(apperr.KindBackend, "insert webhook config", err)
	}
	for _, cmd := range c.Commands {
		if err := insertCommand(ctx, tx, c.ID, cmd); err != nil {
			return "", err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return "", apperr.Wrap(apperr.KindBackend, "commit webhook config", err)
	}
	return c.ID, nil
}

func insertCommand(ctx context.Context, ex execer, webhookID string, cmd WebhookCommand) error {
	aliases, _ := json.Marshal(cmd.Aliases)
	conditions, _ := json.Marshal(nonNilMap(cmd.Conditions))
	_, err := ex.Exec(ctx, `
		INSERT INTO webhook_commands (webhook_id, name, aliases, target_agent, prompt_template,
			trigger_event, conditions, priority, action, forward_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		webhookID, cmd.Name, aliases, cmd.TargetAgent, cmd.PromptTemplate, cmd.TriggerEvent,
		conditions, cmd.Priority, cmd.Action, cmd.ForwardURL)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "insert webhook command", err)
	}
	return nil
}

// AppendCommand adds one command to an existing dynamic webhook
// config.
func (s *Store) AppendCommand(ctx context.Context, webhookID string, cmd WebhookCommand) error {
	return insertCommand(ctx, s.pool, webhookID, cmd)
}

// DeleteCommand removes a single command from a dynamic webhook.
func (s *Store) DeleteCommand(ctx context.Context, webhookID, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM webhook_commands WHERE webhook_id=$1 AND name=$2`, webhookID, name)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "delete webhook command", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "command not found")
	}
	return nil
}

// UpdateCommand replaces a command's fields in place.
func (s *Store) UpdateCommand(ctx context.Context, webhookID, name string, cmd WebhookCommand) error {
	aliases, _ := json.Marshal(cmd.Aliases)
	conditions, _ := json.Marshal(nonNilMap(cmd.Conditions))
	tag, err := s.pool.Exec(ctx, `
		UPDATE webhook_commands SET aliases=$1, target_agent=$2, prompt_template=$3,
			trigger_event=$4, conditions=$5, priority=$6, action=$7, forward_url=$8
		WHERE webhook_id=$9 AND name=$10`,
		aliases, cmd.TargetAgent, cmd.PromptTemplate, cmd.TriggerEvent, conditions,
		cmd.Priority, cmd.Action, cmd.ForwardURL, webhookID, name)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "update webhook command", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "command not found")
	}
	return nil
}

// LoadWebhookConfigByID returns one dynamic webhook config with its
// commands.
func (s *Store) LoadWebhookConfigByID(ctx context.Context, id string) (*WebhookConfig, error) {
	var c WebhookConfig
	err := s.pool.QueryRow(ctx, `
		SELECT id, provider, endpoint_path, default_agent, signing_secret_env,
			requires_signature, command_prefix, default_command, enabled, created_at
		FROM webhook_configs WHERE id=$1 AND source=$2`, id, ConfigDynamic).Scan(
		&c.ID, &c.Provider, &c.EndpointPath, &c.DefaultAgent, &c.SigningSecretEnv,
		&c.RequiresSignature, &c.CommandPrefix, &c.DefaultCommand, &c.Enabled, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.KindNotFound, "webhook config not found")
		}
		return nil, apperr.Wrap(apperr.KindBackend, "load webhook config", err)
	}
	c.Source = ConfigDynamic
	cmds, err := s.loadCommands(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Commands = cmds
	return &c, nil
}

// UpdateWebhookConfig replaces a dynamic webhook config's top-level
// fields in place; commands are managed separately via
// AppendCommand/UpdateCommand/DeleteCommand.
func (s *Store) UpdateWebhookConfig(ctx context.Context, c WebhookConfig) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE webhook_configs SET provider=$1, endpoint_path=$2, default_agent=$3,
			signing_secret_env=$4, requires_signature=$5, command_prefix=$6,
			default_command=$7, enabled=$8
		WHERE id=$9 AND source=$10`,
		c.Provider, c.EndpointPath, c.DefaultAgent, c.SigningSecretEnv, c.RequiresSignature,
		c.CommandPrefix, c.DefaultCommand, c.Enabled, c.ID, ConfigDynamic)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.KindConflict, "endpoint path already in use", err)
		}
		return apperr.Wrap(apperr.KindBackend, "update webhook config", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "webhook config not found")
	}
	return nil
}

// ListDynamicWebhookConfigs returns every dynamic webhook config,
// enabled or disabled, with its commands, for merging with static
// declarations when the registry is loaded or reloaded.
func (s *Store) ListDynamicWebhookConfigs(ctx context.Context) ([]WebhookConfig, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, provider, endpoint_path, default_agent, signing_secret_env,
			requires_signature, command_prefix, default_command, enabled, created_at
		FROM webhook_configs WHERE source=$1`, ConfigDynamic)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, "list webhook configs", err)
	}
	defer rows.Close()

	var configs []WebhookConfig
	for rows.Next() {
		var c WebhookConfig
		if err := rows.Scan(&c.ID, &c.Provider, &c.EndpointPath, &c.DefaultAgent,
			&c.SigningSecretEnv, &c.RequiresSignature, &c.CommandPrefix, &c.DefaultCommand,
			&c.Enabled, &c.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindBackend, "scan webhook config", err)
		}
		c.Source = ConfigDynamic
		configs = append(configs, c)
	}
	for i := range configs {
		cmds, err := s.loadCommands(ctx, configs[i].ID)
		if err != nil {
			return nil, err
		}
		configs[i].Commands = cmds
	}
	return configs, nil
}

func (s *Store) loadCommands(ctx context.Context, webhookID string) ([]WebhookCommand, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, aliases, target_agent, prompt_template, trigger_event, conditions,
			priority, action, forward_url FROM webhook_commands WHERE webhook_id=$1`, webhookID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, "load webhook commands", err)
	}
	defer rows.Close()

	var cmds []WebhookCommand
	for rows.Next() {
		var cmd WebhookCommand
		var aliases, conditions []byte
		if err := rows.Scan(&cmd.Name, &aliases, &cmd.TargetAgent, &cmd.PromptTemplate,
			&cmd.TriggerEvent, &conditions, &cmd.Priority, &cmd.Action, &cmd.ForwardURL); err != nil {
			return nil, apperr.Wrap(apperr.KindBackend, "scan webhook command", err)
		}
		_ = json.Unmarshal(aliases, &cmd.Aliases)
		_ = json.Unmarshal(conditions, &cmd.Conditions)
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// DeleteWebhookConfig removes a dynamic webhook config and its
// commands.
func (s *Store) DeleteWebhookConfig(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM webhook_configs WHERE id=$1 AND source=$2`, id, ConfigDynamic)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "delete webhook config", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "webhook config not found")
	}
	return nil
}

// RecordWebhookEvent writes the audit record for an accepted webhook
// request.
func (s *Store) RecordWebhookEvent(ctx context.Context, e WebhookEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO webhook_events (id, received_at, webhook_id, provider, event_type,
			raw_payload, matched_command, created_task_id, response_sent, ack_duration_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.ID, time.Now(), e.WebhookID, e.Provider, e.EventType, e.RawPayload,
		e.MatchedCommand, e.CreatedTaskID, e.ResponseSent, e.AckDurationMS)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "record webhook event", err)
	}
	return nil
}
