package audit

import (
	"testing"

	"github.com/udisondev/tibiarelay/internal/testutil"
)

func TestPostgresStore_RoundTrip(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	storeRoundTrip(t, NewPostgresStore(pool))
}
