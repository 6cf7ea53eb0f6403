package webhook

import (
	"context"
	"sync/atomic"

	"github.com/relayhq/relayd/pkg/apperr"
	"github.com/relayhq/relayd/pkg/store"
)

// Registry merges builtin (code-declared) and dynamic (Store-backed)
// webhook configs, keeping the merged view behind an atomic pointer
// swap so readers never see a torn view during a reload: the map is
// read far more often than it's reloaded.
type Registry struct {
	builtin map[string]store.WebhookConfig // keyed by endpoint path
	merged  atomic.Pointer[mergedView]
	store   *store.Store
}

type mergedView struct {
	byPath map[string]store.WebhookConfig
}

// NewRegistry builds a Registry from the builtin declarations; call
// Reload once the Store is available to bring in dynamic configs.
func NewRegistry(st *store.Store, builtin []store.WebhookConfig) *Registry {
	byPath := make(map[string]store.WebhookConfig, len(builtin))
	for _, c := range builtin {
		c.Source = store.ConfigBuiltin
		byPath[c.EndpointPath] = c
	}
	r := &Registry{builtin: byPath, store: st}
	r.merged.Store(&mergedView{byPath: cloneMap(byPath)})
	return r
}

// Reload re-reads dynamic configs from the Store and recomputes the
// merged view; dynamic configs take precedence on endpoint-path
// collision.
func (r *Registry) Reload(ctx context.Context) error {
	dynamic, err := r.store.ListDynamicWebhookConfigs(ctx)
	if err != nil {
		return err
	}
	merged := cloneMap(r.builtin)
	for _, c := range dynamic {
		merged[c.EndpointPath] = c
	}
	r.merged.Store(&mergedView{byPath: merged})
	return nil
}

// LookupByPath returns the config bound to an endpoint path, dynamic
// taking precedence over builtin.
func (r *Registry) LookupByPath(path string) (store.WebhookConfig, error) {
	view := r.merged.Load()
	c, ok := view.byPath[path]
	if !ok || !c.Enabled {
		return store.WebhookConfig{}, apperr.New(apperr.KindNotFound, "no webhook config for path")
	}
	return c, nil
}

// All returns every merged config (builtin + dynamic), for the admin
// listing and /webhooks/status endpoints.
func (r *Registry) All() []store.WebhookConfig {
	view := r.merged.Load()
	out := make([]store.WebhookConfig, 0, len(view.byPath))
	for _, c := range view.byPath {
		out = append(out, c)
	}
	return out
}

// ValidateNoPathCollisions enforces the startup invariant: no two
// enabled configs share an endpoint path.
func ValidateNoPathCollisions(configs []store.WebhookConfig) error {
	seen := make(map[string]bool)
	for _, c := range configs {
		if !c.Enabled {
			continue
		}
		if seen[c.EndpointPath] {
			return apperr.New(apperr.KindConflict, "duplicate enabled webhook endpoint path: "+c.EndpointPath)
		}
		seen[c.EndpointPath] = true
	}
	return nil
}

func cloneMap(m map[string]store.WebhookConfig) map[string]store.WebhookConfig {
	out := make(map[string]store.WebhookConfig, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
