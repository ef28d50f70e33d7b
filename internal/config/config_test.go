package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/kitchen-orderflow/internal/catalog"
)

func TestLoad_LocalDefaults(t *testing.T) {
	t.Setenv("RUN_LOCAL", "true")
	t.Setenv("AUTH_PROVIDER", AuthLocal)
	t.Setenv("AUTH_JWT_SECRET", "dev-secret")
	t.Setenv("ADMIN_USER_IDS", " a1, ,a2 ")
	t.Setenv("KV_TABLE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.RunLocal)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, catalog.ModeEnforce, cfg.Pricing)
	assert.Equal(t, []string{"a1", "a2"}, cfg.AdminUserIDs)
	assert.False(t, cfg.StrictTransitions)
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"pricing":      {"RUN_LOCAL": "true", "AUTH_PROVIDER": AuthLocal, "AUTH_JWT_SECRET": "s", "CATALOG_PRICING": "free"},
		"gotrue creds": {"RUN_LOCAL": "true", "AUTH_PROVIDER": AuthGoTrue, "AUTH_URL": "", "AUTH_SERVICE_KEY": ""},
		"no table":     {"RUN_LOCAL": "false", "AUTH_PROVIDER": AuthLocal, "AUTH_JWT_SECRET": "s", "KV_TABLE": ""},
		"provider":     {"RUN_LOCAL": "true", "AUTH_PROVIDER": "ldap"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("CATALOG_PRICING", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadWorker(t *testing.T) {
	t.Setenv("AUTH_PROVIDER", "ldap")
	t.Setenv("KV_TABLE", "kitchen")
	t.Setenv("RUN_LOCAL", "false")
	t.Setenv("METRICS_NAMESPACE", "")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWorker()
	require.NoError(t, err)
	assert.Equal(t, "kitchen", cfg.KVTable)
	assert.Equal(t, "KitchenOrderflow", cfg.MetricsNamespace)
	assert.Equal(t, "debug", cfg.LogLevel)

	t.Setenv("KV_TABLE", "")
	_, err = LoadWorker()
	assert.Error(t, err)
}
