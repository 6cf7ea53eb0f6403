package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// webhookConfigFile is the on-disk shape of the builtin webhook
// config file: a list of endpoint bindings, each with its commands.
type webhookConfigFile struct {
	Webhooks []webhookConfigYAML `yaml:"webhooks"`
}

type webhookConfigYAML struct {
	ID                string              `yaml:"id"`
	Provider          string              `yaml:"provider"`
	EndpointPath      string              `yaml:"endpoint_path"`
	DefaultAgent      string              `yaml:"default_agent"`
	SigningSecretEnv  string              `yaml:"signing_secret_env"`
	RequiresSignature bool                `yaml:"requires_signature"`
	CommandPrefix     string              `yaml:"command_prefix"`
	DefaultCommand    string              `yaml:"default_command"`
	Enabled           bool                `yaml:"enabled"`
	Commands          []webhookCommandYAML `yaml:"commands"`
}

type webhookCommandYAML struct {
	Name           string         `yaml:"name"`
	Aliases        []string       `yaml:"aliases"`
	TargetAgent    string         `yaml:"target_agent"`
	PromptTemplate string         `yaml:"prompt_template"`
	TriggerEvent   string         `yaml:"trigger_event"`
	Conditions     map[string]any `yaml:"conditions"`
	Priority       int            `yaml:"priority"`
	Action         string         `yaml:"action"`
	ForwardURL     string         `yaml:"forward_url"`
}

// LoadBuiltinWebhookConfigs reads a YAML file of statically declared
// webhook endpoint bindings, expanding ${VAR} references against the
// process environment before parsing. An empty path is not an error:
// it yields no builtin configs, leaving the Registry to serve only
// whatever dynamic configs the Store holds.
func LoadBuiltinWebhookConfigs(path string) ([]WebhookConfigDTO, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read webhook config %s: %w", path, err)
	}
	expanded := ExpandEnv(string(raw))

	var file webhookConfigFile
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, fmt.Errorf("parse webhook config %s: %w", path, err)
	}

	out := make([]WebhookConfigDTO, 0, len(file.Webhooks))
	for _, w := range file.Webhooks {
		cmds := make([]WebhookCommandDTO, 0, len(w.Commands))
		for _, c := range w.Commands {
			cmds = append(cmds, WebhookCommandDTO{
				Name:           c.Name,
				Aliases:        c.Aliases,
				TargetAgent:    c.TargetAgent,
				PromptTemplate: c.PromptTemplate,
				TriggerEvent:   c.TriggerEvent,
				Conditions:     c.Conditions,
				Priority:       c.Priority,
				Action:         c.Action,
				ForwardURL:     c.ForwardURL,
			})
		}
		out = append(out, WebhookConfigDTO{
			ID:                w.ID,
			Provider:          w.Provider,
			EndpointPath:      w.EndpointPath,
			DefaultAgent:      w.DefaultAgent,
			SigningSecretEnv:  w.SigningSecretEnv,
			RequiresSignature: w.RequiresSignature,
			CommandPrefix:     w.CommandPrefix,
			DefaultCommand:    w.DefaultCommand,
			Enabled:           w.Enabled,
			Commands:          cmds,
		})
	}
	return out, nil
}

// WebhookConfigDTO and WebhookCommandDTO mirror pkg/store's
// WebhookConfig/WebhookCommand shapes without importing pkg/store,
// so pkg/config has no dependency on the storage layer. cmd/relayd
// converts these into store types when constructing the Registry.
type WebhookConfigDTO struct {
	ID                string
	Provider          string
	EndpointPath      string
	DefaultAgent      string
	SigningSecretEnv  string
	RequiresSignature bool
	CommandPrefix     string
	DefaultCommand    string
	Enabled           bool
	Commands          []WebhookCommandDTO
}

type WebhookCommandDTO struct {
	Name           string
	Aliases        []string
	TargetAgent    string
	PromptTemplate string
	TriggerEvent   string
	Conditions     map[string]any
	Priority       int
	Action         string
	ForwardURL     string
}
