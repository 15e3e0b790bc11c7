package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/hongminglow/budget-be/internal/storage"
	"github.com/hongminglow/budget-be/internal/storage/storagetest"
)

// TestStoreIntegration runs the shared store suite against a live database.
// Every test starts from a reset schema, so point DATABASE_URL at a
// disposable database.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_POSTGRES_INTEGRATION") != "true" {
		t.Skip("set RUN_POSTGRES_INTEGRATION=true to run this integration test")
	}

	_ = godotenv.Load("../../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	suite.Run(t, &storagetest.StoreSuite{
		NewStore: func() storage.Store {
			ctx := context.Background()
			store, err := NewStore(ctx, dbURL)
			require.NoError(t, err)
			require.NoError(t, store.Reset(ctx))
			return store
		},
	})
}
