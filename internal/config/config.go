package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/service"
)

// 遺跡データの読み込み元
const (
	SourceFile      = "file"
	SourceHTTP      = "http"
	SourcePostgres  = "postgres"
	SourceSupabase  = "supabase"
	SourceFirestore = "firestore"
)

// 経路計算プロバイダ
const (
	ProviderOSRM   = "osrm"
	ProviderGoogle = "google"
	ProviderNone   = "none"
)

// Config アプリケーション全体の設定
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Sites     SitesConfig     `yaml:"sites"`
	Database  DatabaseConfig  `yaml:"database"`
	Supabase  SupabaseConfig  `yaml:"supabase"`
	Firestore FirestoreConfig `yaml:"firestore"`
	Routing   RoutingConfig   `yaml:"routing"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Map       MapConfig       `yaml:"map"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig HTTPサーバーの設定
type ServerConfig struct {
	Port string `yaml:"port"`
}

// SitesConfig 遺跡データの読み込み元
type SitesConfig struct {
	Source string `yaml:"source"` // file, http, postgres, supabase, firestore
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
	Table  string `yaml:"table"` // テーブル名またはコレクション名
}

// DatabaseConfig PostgreSQL(PostGIS)の接続設定
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// SupabaseConfig Supabaseの接続設定
type SupabaseConfig struct {
	URL     string `yaml:"url"`
	AnonKey string `yaml:"anon_key"`
}

// FirestoreConfig Firestoreの接続設定
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// RoutingConfig 徒歩ルートの計算設定
type RoutingConfig struct {
	Provider     string        `yaml:"provider"` // osrm, google, none
	OSRMURL      string        `yaml:"osrm_url"`
	GoogleAPIKey string        `yaml:"google_api_key"`
	Timeout      time.Duration `yaml:"timeout"`
}

// GeminiConfig 物語文生成の設定
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
}

// MapConfig 地図画面の設定
type MapConfig struct {
	Center           model.LatLng      `yaml:"center"`
	Zoom             int               `yaml:"zoom"`
	TileURL          string            `yaml:"tile_url"`
	Attribution      string            `yaml:"attribution"`
	Origin           model.LatLng      `yaml:"origin"`
	Heat             model.HeatOptions `yaml:"heat"`
	StoryDuration    time.Duration     `yaml:"story_duration"`
	EmphasisDuration time.Duration     `yaml:"emphasis_duration"`
	EmphasisScale    float64           `yaml:"emphasis_scale"`
	DefaultNarrative string            `yaml:"default_narrative"`
	Line             model.LineStyle   `yaml:"line"`
}

// LoggingConfig ログ設定
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig 既定の設定
func DefaultConfig() *Config {
	session := service.DefaultSessionConfig()
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Sites: SitesConfig{
			Source: SourceFile,
			Path:   "data/sites.geojson",
			Table:  "sites",
		},
		Routing: RoutingConfig{
			Provider: ProviderOSRM,
			OSRMURL:  "https://router.project-osrm.org",
			Timeout:  15 * time.Second,
		},
		Map: MapConfig{
			Center:           model.LatLng{Lat: 34.26, Lng: 117.20},
			Zoom:             11,
			TileURL:          "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution:      "&copy; OpenStreetMap contributors",
			Origin:           session.Origin,
			Heat:             session.HeatOptions,
			StoryDuration:    session.StoryDuration,
			EmphasisDuration: session.Emphasis.Duration,
			EmphasisScale:    session.Emphasis.Scale,
			DefaultNarrative: session.DefaultNarrative,
			Line:             session.LineStyle,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load 既定値、YAMLファイル、.env、環境変数の順に設定を重ねる。
// pathが空またはファイルが存在しない場合はYAMLを読まない
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("設定ファイルのパースに失敗 (%s): %w", path, err)
			}
		case os.IsNotExist(err):
			// 既定値のまま
		default:
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗 (%s): %w", path, err)
		}
	}

	// .envは既存の環境変数を上書きしない
	_ = godotenv.Load()

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	setString("PORT", &c.Server.Port)
	setString("SITES_SOURCE", &c.Sites.Source)
	setString("SITES_PATH", &c.Sites.Path)
	setString("SITES_URL", &c.Sites.URL)
	setString("SITES_TABLE", &c.Sites.Table)
	setString("DATABASE_URL", &c.Database.URL)
	setString("SUPABASE_URL", &c.Supabase.URL)
	setString("SUPABASE_ANON_KEY", &c.Supabase.AnonKey)
	setString("FIRESTORE_PROJECT_ID", &c.Firestore.ProjectID)
	setString("GOOGLE_APPLICATION_CREDENTIALS", &c.Firestore.CredentialsFile)
	setString("ROUTING_PROVIDER", &c.Routing.Provider)
	setString("OSRM_URL", &c.Routing.OSRMURL)
	setString("GOOGLE_MAPS_API_KEY", &c.Routing.GoogleAPIKey)
	setString("GEMINI_API_KEY", &c.Gemini.APIKey)
	setString("LOG_LEVEL", &c.Logging.Level)

	if v := os.Getenv("ROUTING_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ROUTING_TIMEOUTが不正です: %w", err)
		}
		c.Routing.Timeout = d
	}
	if v := os.Getenv("EMPHASIS_SCALE"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("EMPHASIS_SCALEが不正です: %w", err)
		}
		c.Map.EmphasisScale = scale
	}
	return nil
}

// Validate 設定値の組み合わせを検証する
func (c *Config) Validate() error {
	c.Sites.Source = strings.ToLower(c.Sites.Source)
	c.Routing.Provider = strings.ToLower(c.Routing.Provider)

	switch c.Sites.Source {
	case SourceFile:
	case SourceHTTP:
		if c.Sites.URL == "" {
			return fmt.Errorf("SITES_SOURCE=http にはSITES_URLが必要です")
		}
	case SourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("SITES_SOURCE=postgres にはDATABASE_URLが必要です")
		}
	case SourceSupabase:
		if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
			return fmt.Errorf("SITES_SOURCE=supabase にはSUPABASE_URLとSUPABASE_ANON_KEYが必要です")
		}
	case SourceFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("SITES_SOURCE=firestore にはFIRESTORE_PROJECT_IDが必要です")
		}
	default:
		return fmt.Errorf("未対応のSITES_SOURCEです: %q", c.Sites.Source)
	}

	switch c.Routing.Provider {
	case ProviderOSRM, ProviderNone:
	case ProviderGoogle:
		if c.Routing.GoogleAPIKey == "" {
			return fmt.Errorf("ROUTING_PROVIDER=google にはGOOGLE_MAPS_API_KEYが必要です")
		}
	default:
		return fmt.Errorf("未対応のROUTING_PROVIDERです: %q", c.Routing.Provider)
	}

	if c.Map.StoryDuration <= 0 || c.Map.EmphasisDuration <= 0 {
		return fmt.Errorf("物語パネルと強調表示の時間は正の値にしてください")
	}
	if c.Map.EmphasisScale <= 0 {
		return fmt.Errorf("EMPHASIS_SCALEは正の値にしてください")
	}
	return nil
}

// SessionConfig 地図セッション用の設定に変換
func (c *Config) SessionConfig() service.SessionConfig {
	return service.SessionConfig{
		Origin:    c.Map.Origin,
		LineStyle: c.Map.Line,
		Emphasis: service.EmphasisConfig{
			Scale:    c.Map.EmphasisScale,
			Duration: c.Map.EmphasisDuration,
		},
		StoryDuration:    c.Map.StoryDuration,
		DefaultNarrative: c.Map.DefaultNarrative,
		HeatOptions:      c.Map.Heat,
	}
}
