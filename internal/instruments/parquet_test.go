package instruments

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

func TestExportParquet(t *testing.T) {
	result := &LookupResult{
		CallStrikes: []StrikeEntry{
			{TradingSymbol: "NIFTY-Oct2024-24000-CE", ExpiryDate: "2024-10-31", SecurityID: "35001"},
			{TradingSymbol: "NIFTY-Oct2024-24100-CE", ExpiryDate: "2024-10-31", SecurityID: "35003"},
		},
		PutStrikes: []StrikeEntry{
			{TradingSymbol: "NIFTY-Oct2024-24000-PE", ExpiryDate: "2024-10-31", SecurityID: "35002"},
		},
		ExpiryDates: []string{"2024-10-31"},
	}

	filename := filepath.Join(t.TempDir(), "NSE", "NIFTY.parquet")
	count, err := ExportParquet(filename, "NSE", "NIFTY", result)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	fr, err := local.NewLocalFileReader(filename)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(StrikeRecord), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	require.Equal(t, int64(3), pr.GetNumRows())

	records := make([]StrikeRecord, 3)
	require.NoError(t, pr.Read(&records))

	assert.Equal(t, "35001", records[0].SecurityID)
	assert.Equal(t, OptionTypeCall, records[0].OptionType)
	assert.Equal(t, "35002", records[2].SecurityID)
	assert.Equal(t, OptionTypePut, records[2].OptionType)
	assert.Equal(t, "NIFTY", records[2].Underlying)
	assert.Equal(t, "NSE", records[2].Exchange)
}

func TestExportParquet_EmptyResult(t *testing.T) {
	result := &LookupResult{CallStrikes: []StrikeEntry{}, PutStrikes: []StrikeEntry{}, ExpiryDates: []string{}}

	count, err := ExportParquet(filepath.Join(t.TempDir(), "empty.parquet"), "NSE", "NIFTY", result)
	require.NoError(t, err)
	assert.Zero(t, count)
}
