package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	domain "github.com/oggyb/polysms/internal/domain/gateway"
	"github.com/oggyb/polysms/internal/gateway/gennet"
	"github.com/oggyb/polysms/internal/gateway/webhook"
	"github.com/oggyb/polysms/internal/registry"
)

func def(t *testing.T, name, driver string, settings map[string]any) *domain.Definition {
	t.Helper()
	d, err := domain.NewDefinition(name, driver, settings)
	require.NoError(t, err)
	return d
}

func TestDecode_UsesYAMLTags(t *testing.T) {
	cfg, err := Decode[gennet.Config](map[string]any{
		"api_key":    "key",
		"verify_ssl": true,
		"timeout":    "15s",
	})
	require.NoError(t, err)
	assert.Equal(t, gennet.Config{APIKey: "key", VerifySSL: true, Timeout: 15 * time.Second}, cfg)
}

func TestLoad_RegistersAndStoresConfig(t *testing.T) {
	reg := registry.New()
	defs := []*domain.Definition{
		def(t, "gennet", "gennet", map[string]any{"api_key": "key"}),
		def(t, "relay", "webhook", map[string]any{"url": "http://relay.local/sms"}),
		def(t, "dev", "stub", nil),
	}

	require.NoError(t, DefaultCatalog().Load(reg, defs))
	assert.Equal(t, []string{"gennet", "relay", "dev"}, reg.Names())

	cfg, err := registry.ConfigOf[webhook.Config](reg, "relay")
	require.NoError(t, err)
	assert.Equal(t, "http://relay.local/sms", cfg.URL)

	gw, err := reg.Get("gennet")
	require.NoError(t, err)
	assert.Equal(t, "gennet", gw.Name())

	meta, err := reg.Meta("relay")
	require.NoError(t, err)
	assert.Equal(t, "webhook", meta["driver"])
}

func TestLoad_CollectsErrorsAndSkipsDisabled(t *testing.T) {
	reg := registry.New()
	disabled := def(t, "old", "gennet", nil)
	disabled.Enabled = false

	defs := []*domain.Definition{
		def(t, "twilio", "twilio", nil),
		disabled,
		{Name: "", Driver: "stub"},
		def(t, "dev", "stub", nil),
	}

	err := DefaultCatalog().Load(reg, defs)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.ErrorIs(t, err, ErrUnknownDriver)
	assert.ErrorIs(t, err, domain.ErrInvalidName)
	assert.Equal(t, []string{"dev"}, reg.Names())
}

func TestDrivers(t *testing.T) {
	assert.Equal(t, []string{"gennet", "sns", "stub", "webhook"}, DefaultCatalog().Drivers())
}

func TestNames(t *testing.T) {
	off := def(t, "b", "stub", nil)
	off.Enabled = false
	assert.Equal(t, []string{"a", "c"}, Names([]*domain.Definition{
		def(t, "a", "stub", nil), off, def(t, "c", "stub", nil),
	}))
}
