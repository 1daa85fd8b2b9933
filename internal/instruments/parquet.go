package instruments

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// ExportParquet writes the strikes of a lookup to a parquet file, calls first then puts.
// It returns the number of rows written.
func ExportParquet(filename, exchange, underlying string, result *LookupResult) (int, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return 0, fmt.Errorf("failed to create parquet directory: %w", err)
	}

	fw, err := local.NewLocalFileWriter(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(StrikeRecord), 4)
	if err != nil {
		return 0, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_GZIP
	pw.PageSize = 8 * 1024

	count := 0
	write := func(strikes []StrikeEntry, optionType string) error {
		for _, strike := range strikes {
			record := StrikeRecord{
				Exchange:      exchange,
				Underlying:    underlying,
				TradingSymbol: strike.TradingSymbol,
				ExpiryDate:    strike.ExpiryDate,
				SecurityID:    strike.SecurityID,
				OptionType:    optionType,
			}
			if err := pw.Write(record); err != nil {
				return fmt.Errorf("failed to write parquet data: %w", err)
			}
			count++
		}
		return nil
	}

	if err := write(result.CallStrikes, OptionTypeCall); err != nil {
		return 0, err
	}
	if err := write(result.PutStrikes, OptionTypePut); err != nil {
		return 0, err
	}

	if err := pw.WriteStop(); err != nil {
		return 0, fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	return count, nil
}
