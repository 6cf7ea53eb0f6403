package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayhq/relayd/pkg/apperr"
	"github.com/relayhq/relayd/pkg/store"
)

func TestRegistryLookupByPathBuiltin(t *testing.T) {
	r := NewRegistry(nil, []store.WebhookConfig{
		{EndpointPath: "github", Provider: "github", Enabled: true},
	})
	cfg, err := r.LookupByPath("github")
	require.NoError(t, err)
	assert.Equal(t, "github", cfg.Provider)
}

func TestRegistryLookupByPathUnknownReturnsNotFound(t *testing.T) {
	r := NewRegistry(nil, nil)
	_, err := r.LookupByPath("nope")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRegistryLookupByPathDisabledReturnsNotFound(t *testing.T) {
	r := NewRegistry(nil, []store.WebhookConfig{
		{EndpointPath: "github", Enabled: false},
	})
	_, err := r.LookupByPath("github")
	require.Error(t, err)
}

func TestValidateNoPathCollisionsDetectsDuplicate(t *testing.T) {
	configs := []store.WebhookConfig{
		{EndpointPath: "github", Enabled: true},
		{EndpointPath: "github", Enabled: true},
	}
	err := ValidateNoPathCollisions(configs)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestValidateNoPathCollisionsIgnoresDisabled(t *testing.T) {
	configs := []store.WebhookConfig{
		{EndpointPath: "github", Enabled: true},
		{EndpointPath: "github", Enabled: false},
	}
	require.NoError(t, ValidateNoPathCollisions(configs))
}
