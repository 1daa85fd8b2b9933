package instruments

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sabarim/brokerrelay/internal/config"
	"github.com/sabarim/brokerrelay/internal/relayerr"
)

// InstrumentManager answers strike lookups from the security master on disk and keeps
// that file up to date
type InstrumentManager struct {
	masterPath string
	masterURL  string
	httpClient *http.Client
	log        zerolog.Logger
}

// MasterInfo describes the security master file currently on disk
type MasterInfo struct {
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"sizeBytes"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// NewInstrumentManager creates a new instrument manager
func NewInstrumentManager(cfg config.InstrumentsConfig, log zerolog.Logger) *InstrumentManager {
	return &InstrumentManager{
		masterPath: cfg.MasterPath,
		masterURL:  cfg.MasterURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		log: log.With().Str("component", "instruments").Logger(),
	}
}

// Lookup scans the security master for the option strikes of masterSymbol on exchangeSymbol.
// Every call opens its own stream over the file.
func (im *InstrumentManager) Lookup(exchangeSymbol, masterSymbol string) (*LookupResult, error) {
	start := time.Now()

	file, err := os.Open(im.masterPath)
	if err != nil {
		return nil, relayerr.DataSource("failed to open security master", err)
	}
	defer file.Close()

	result, err := Scan(file, exchangeSymbol, masterSymbol)
	if err != nil {
		return nil, err
	}

	im.log.Debug().
		Str("exchange", exchangeSymbol).
		Str("symbol", masterSymbol).
		Int("calls", len(result.CallStrikes)).
		Int("puts", len(result.PutStrikes)).
		Int("expiries", len(result.ExpiryDates)).
		Dur("duration", time.Since(start)).
		Msg("Security master scanned")

	return result, nil
}

// Stat reports the size and age of the security master
func (im *InstrumentManager) Stat() (MasterInfo, error) {
	info, err := os.Stat(im.masterPath)
	if err != nil {
		return MasterInfo{}, err
	}
	return MasterInfo{
		Path:       im.masterPath,
		SizeBytes:  info.Size(),
		ModifiedAt: info.ModTime(),
	}, nil
}

// DownloadMaster downloads the security master and swaps it into place.
// The body is written to a temp file next to the target and renamed over it once its
// header has been checked, so concurrent lookups keep reading the previous file.
func (im *InstrumentManager) DownloadMaster(ctx context.Context) (int64, error) {
	im.log.Info().Str("url", im.masterURL).Msg("Downloading security master")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, im.masterURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := im.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download security master: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("failed to download security master, status code: %d", resp.StatusCode)
	}

	dir := filepath.Dir(im.masterPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create instruments directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(im.masterPath)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	written, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to save security master: %w", err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to rewind file: %w", err)
	}
	if err := checkHeader(tmp); err != nil {
		tmp.Close()
		return 0, err
	}

	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, im.masterPath); err != nil {
		return 0, fmt.Errorf("failed to replace security master: %w", err)
	}

	im.log.Info().
		Str("path", im.masterPath).
		Int64("bytes", written).
		Msg("Security master updated")

	return written, nil
}

// checkHeader verifies the first line of a security master carries the required columns
func checkHeader(r io.Reader) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return relayerr.DataSource("downloaded security master is empty", err)
	}
	if _, err := Scan(strings.NewReader(line), "", ""); err != nil {
		return err
	}
	return nil
}
