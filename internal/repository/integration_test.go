package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ellison351/gis-web/internal/domain/repository"
	"github.com/ellison351/gis-web/internal/infrastructure/database"
	"github.com/ellison351/gis-web/internal/infrastructure/firestore"
)

// 実際のデータベースに接続するテスト。環境変数がなければスキップする

func requireEnv(t *testing.T, keys ...string) map[string]string {
	t.Helper()
	_ = godotenv.Load("../../.env")

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		v := os.Getenv(key)
		if v == "" {
			t.Skipf("%s が設定されていないためスキップ", key)
		}
		values[key] = v
	}
	return values
}

func sitesTable() string {
	if table := os.Getenv("SITES_TABLE"); table != "" {
		return table
	}
	return "sites"
}

func assertLoadsSites(t *testing.T, source repository.FeatureSource) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sites, err := source.Load(ctx)
	require.NoError(t, err)
	for _, s := range sites {
		assert.NotEmpty(t, s.ID)
		assert.NotEmpty(t, s.Name)
	}
	t.Logf("✅ %s から %d 件の遺跡を取得", source.Name(), len(sites))
}

func TestPostgresSitesIntegration(t *testing.T) {
	env := requireEnv(t, "DATABASE_URL")

	client, err := database.NewPostgreSQLClient(context.Background(), env["DATABASE_URL"])
	require.NoError(t, err)
	defer client.Close()

	source, err := NewPostgresSitesRepository(client, sitesTable())
	require.NoError(t, err)
	assertLoadsSites(t, source)
}

func TestSupabaseSitesIntegration(t *testing.T) {
	env := requireEnv(t, "SUPABASE_URL", "SUPABASE_ANON_KEY")

	client, err := database.NewSupabaseClient(env["SUPABASE_URL"], env["SUPABASE_ANON_KEY"])
	require.NoError(t, err)

	assertLoadsSites(t, NewSupabaseSitesRepository(client, sitesTable()))
}

func TestFirestoreSitesIntegration(t *testing.T) {
	env := requireEnv(t, "FIRESTORE_PROJECT_ID")

	client, err := firestore.NewFirestoreClient(context.Background(), env["FIRESTORE_PROJECT_ID"],
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer client.Close()

	assertLoadsSites(t, NewFirestoreSitesRepository(client.GetClient(), sitesTable()))
}
