package instruments

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sabarim/brokerrelay/internal/relayerr"
)

// columnIndex maps required column names to their position in the header
type columnIndex map[string]int

// resolveColumns maps header names to indices and checks every required column exists
func resolveColumns(header []string) (columnIndex, error) {
	columns := make(columnIndex, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		columns[col] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("security master header is missing columns: %s", strings.Join(missing, ", "))
	}

	return columns, nil
}

func (c columnIndex) row(record []string) InstrumentRow {
	return InstrumentRow{
		ExchangeID:     record[c[ColExchangeID]],
		TradingSymbol:  record[c[ColTradingSymbol]],
		InstrumentType: record[c[ColInstrumentType]],
		OptionType:     record[c[ColOptionType]],
		ExpiryDate:     record[c[ColExpiryDate]],
		SecurityID:     record[c[ColSecurityID]],
	}
}

// Scan streams a security master and collects the option strikes of masterSymbol on
// exchangeSymbol. Any read or parse error aborts the scan with a DataSourceError and no
// result.
func Scan(r io.Reader, exchangeSymbol, masterSymbol string) (*LookupResult, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, relayerr.DataSource("failed to read security master header", err)
	}
	columns, err := resolveColumns(header)
	if err != nil {
		return nil, relayerr.DataSource("invalid security master header", err)
	}

	prefix := masterSymbol + "-"
	result := &LookupResult{
		CallStrikes: []StrikeEntry{},
		PutStrikes:  []StrikeEntry{},
		ExpiryDates: []string{},
	}
	seenExpiry := make(map[string]struct{})

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, relayerr.DataSource("failed to parse security master", err)
		}

		row := columns.row(record)
		if row.ExchangeID != exchangeSymbol || !strings.HasPrefix(row.TradingSymbol, prefix) {
			continue
		}
		if !optionInstrumentTypes[row.InstrumentType] {
			continue
		}

		strike := StrikeEntry{
			TradingSymbol: row.TradingSymbol,
			ExpiryDate:    row.ExpiryDate,
			SecurityID:    row.SecurityID,
		}
		switch row.OptionType {
		case OptionTypeCall:
			result.CallStrikes = append(result.CallStrikes, strike)
		case OptionTypePut:
			result.PutStrikes = append(result.PutStrikes, strike)
		}

		if _, ok := seenExpiry[row.ExpiryDate]; !ok {
			seenExpiry[row.ExpiryDate] = struct{}{}
			result.ExpiryDates = append(result.ExpiryDates, row.ExpiryDate)
		}
	}

	return result, nil
}
