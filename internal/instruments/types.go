package instruments

// Security master column names
const (
	ColExchangeID     = "SEM_EXM_EXCH_ID"
	ColTradingSymbol  = "SEM_TRADING_SYMBOL"
	ColInstrumentType = "SEM_EXCH_INSTRUMENT_TYPE"
	ColOptionType     = "SEM_OPTION_TYPE"
	ColExpiryDate     = "SEM_EXPIRY_DATE"
	ColSecurityID     = "SEM_SMST_SECURITY_ID"
)

// requiredColumns must all be present in the security master header
var requiredColumns = []string{
	ColExchangeID,
	ColTradingSymbol,
	ColInstrumentType,
	ColOptionType,
	ColExpiryDate,
	ColSecurityID,
}

// Option markers
const (
	OptionTypeCall = "CE"
	OptionTypePut  = "PE"
)

// optionInstrumentTypes are the instrument types treated as option contracts
var optionInstrumentTypes = map[string]bool{
	"OPTIDX": true,
	"OP":     true,
}

// InstrumentRow is one security master record
type InstrumentRow struct {
	ExchangeID     string
	TradingSymbol  string
	InstrumentType string
	OptionType     string
	ExpiryDate     string
	SecurityID     string
}

// StrikeEntry represents a single option contract returned to the front end
type StrikeEntry struct {
	TradingSymbol string `json:"tradingSymbol"`
	ExpiryDate    string `json:"expiryDate"`
	SecurityID    string `json:"securityId"`
}

// LookupResult holds the strikes for one underlying on one exchange.
// Strikes are in file order; ExpiryDates is distinct and carries no ordering guarantee.
type LookupResult struct {
	CallStrikes []StrikeEntry `json:"callStrikes"`
	PutStrikes  []StrikeEntry `json:"putStrikes"`
	ExpiryDates []string      `json:"expiryDates"`
}

// StrikeRecord is a flattened strike written to parquet
type StrikeRecord struct {
	Exchange      string `parquet:"name=exchange, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Underlying    string `parquet:"name=underlying, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TradingSymbol string `parquet:"name=trading_symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	ExpiryDate    string `parquet:"name=expiry_date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SecurityID    string `parquet:"name=security_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	OptionType    string `parquet:"name=option_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}
