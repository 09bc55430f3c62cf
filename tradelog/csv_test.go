package tradelog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVWritesHeaderAndRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv")
	c, err := NewCSV(path)
	require.NoError(t, err)

	t0 := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, c.RecordTrade(rec(t0, "BTC-USD", ActionOpened, nil)))
	require.NoError(t, c.RecordTrade(rec(t0.Add(time.Hour), "BTC-USD", ActionClosed, ptr(42.5))))
	require.NoError(t, c.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "record_id", rows[0][0])
	assert.Equal(t, "BTC-USD", rows[1][2])
	assert.Equal(t, "opened", rows[1][3])
	// Opens leave the pnl column empty.
	assert.Equal(t, "", rows[1][8])
	assert.Equal(t, "42.500000", rows[2][8])
}
