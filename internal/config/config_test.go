package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellison351/gis-web/internal/domain/model"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, SourceFile, cfg.Sites.Source)
	assert.Equal(t, "data/sites.geojson", cfg.Sites.Path)
	assert.Equal(t, ProviderOSRM, cfg.Routing.Provider)
	assert.Equal(t, model.LatLng{Lat: 34.26, Lng: 117.20}, cfg.Map.Center)
	assert.Equal(t, 11, cfg.Map.Zoom)

	session := cfg.SessionConfig()
	assert.Equal(t, model.LatLng{Lat: 34.214571, Lng: 117.14509}, session.Origin)
	assert.Equal(t, 5*time.Second, session.StoryDuration)
	assert.Equal(t, 2*time.Second, session.Emphasis.Duration)
	assert.Equal(t, 1.6, session.Emphasis.Scale)
	assert.Equal(t, 25, session.HeatOptions.Radius)
	assert.Equal(t, model.LineStyle{Color: "blue", Weight: 4}, session.LineStyle)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := writeYAML(t, `
server:
  port: "9000"
sites:
  source: http
  url: https://example.com/sites.geojson
map:
  story_duration: 8s
  origin:
    lat: 34.2
    lng: 117.1
`)
	t.Setenv("PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "環境変数がYAMLより優先")
	assert.Equal(t, SourceHTTP, cfg.Sites.Source)
	assert.Equal(t, 8*time.Second, cfg.Map.StoryDuration)
	assert.Equal(t, model.LatLng{Lat: 34.2, Lng: 117.1}, cfg.Map.Origin)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.Map.EmphasisDuration, "YAMLにない項目は既定値")
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeYAML(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"未対応のソース", map[string]string{"SITES_SOURCE": "ftp"}},
		{"httpにURLなし", map[string]string{"SITES_SOURCE": "http"}},
		{"postgresにDSNなし", map[string]string{"SITES_SOURCE": "postgres"}},
		{"supabaseにキーなし", map[string]string{"SITES_SOURCE": "supabase", "SUPABASE_URL": "https://x.supabase.co"}},
		{"firestoreにプロジェクトなし", map[string]string{"SITES_SOURCE": "firestore"}},
		{"googleにAPIキーなし", map[string]string{"ROUTING_PROVIDER": "google"}},
		{"未対応のプロバイダ", map[string]string{"ROUTING_PROVIDER": "valhalla"}},
		{"不正なタイムアウト", map[string]string{"ROUTING_TIMEOUT": "soon"}},
		{"不正な拡大率", map[string]string{"EMPHASIS_SCALE": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_SourceIsCaseInsensitive(t *testing.T) {
	t.Setenv("SITES_SOURCE", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/han")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, SourcePostgres, cfg.Sites.Source)
}
