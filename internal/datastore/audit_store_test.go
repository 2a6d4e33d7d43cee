package datastore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"adscout/internal/classifier"
	"adscout/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *AuditStore {
	t.Helper()
	cfg := config.AuditConfig{
		Enabled:      true,
		SQLiteDBPath: filepath.Join(t.TempDir(), "audit", "test.db"),
	}
	store, err := NewAuditStore(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAuditStore_RecordAndQuery(t *testing.T) {
	store := newTestStore(t)

	result := classifier.Result{
		Type:                  classifier.TypeStore,
		URL:                   "https://example.com/shop",
		SuggestedCampaignType: classifier.CampaignShopping,
		Details:               &classifier.Details{StorePlatform: "Shopify"},
		MatchedRule:           "content-probe",
	}
	store.Record(context.Background(), "req-1", result, 150*time.Millisecond)

	var (
		count      int
		resultType string
		platform   string
		durationMs int64
	)
	row := store.db.QueryRow(`SELECT COUNT(*), result_type, platform, duration_ms FROM classification_audit`)
	require.NoError(t, row.Scan(&count, &resultType, &platform, &durationMs))
	assert.Equal(t, 1, count)
	assert.Equal(t, "store", resultType)
	assert.Equal(t, "Shopify", platform)
	assert.Equal(t, int64(150), durationMs)
}

func TestAuditStore_NilStoreIsNoop(t *testing.T) {
	var store *AuditStore
	store.Record(context.Background(), "req-1", classifier.DefaultResult("https://example.com"), time.Millisecond)
	assert.NoError(t, store.Close())
}

func TestAuditStore_CreatesParentDirectory(t *testing.T) {
	cfg := config.AuditConfig{
		Enabled:      true,
		SQLiteDBPath: filepath.Join(t.TempDir(), "deeply", "nested", "audit.db"),
	}
	store, err := NewAuditStore(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
