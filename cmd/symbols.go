package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sabarim/brokerrelay/internal/instruments"
	"github.com/sabarim/brokerrelay/internal/relayerr"
)

var (
	exchangeSymbol string
	masterSymbol   string
	masterPath     string
	parquetEnabled bool
	parquetDir     string
)

func newSymbolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "Look up the option strikes of an underlying in the security master",
		Example: `  brokerrelay symbols --exchange NSE --symbol NIFTY
  brokerrelay symbols --exchange BSE --symbol SENSEX --parquet`,
		RunE: runSymbols,
	}

	cmd.Flags().StringVar(&exchangeSymbol, "exchange", "", "Exchange id (e.g. NSE, BSE)")
	cmd.Flags().StringVar(&masterSymbol, "symbol", "", "Underlying root symbol (e.g. NIFTY)")
	cmd.Flags().StringVar(&masterPath, "master", "", "Path to the security master CSV")
	cmd.Flags().BoolVar(&parquetEnabled, "parquet", false, "Also write the strikes to a Parquet file")
	cmd.Flags().StringVar(&parquetDir, "parquet-dir", "", "Output directory for Parquet files")

	return cmd
}

func runSymbols(cmd *cobra.Command, args []string) error {
	if exchangeSymbol == "" || masterSymbol == "" {
		return relayerr.BadRequest("--exchange and --symbol are required")
	}

	cfg, log, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if masterPath != "" {
		cfg.Instruments.MasterPath = masterPath
	}
	if parquetDir != "" {
		cfg.Instruments.ParquetDir = parquetDir
	}

	result, err := instruments.NewInstrumentManager(cfg.Instruments, log).Lookup(exchangeSymbol, masterSymbol)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	if !parquetEnabled {
		return nil
	}

	filename := filepath.Join(cfg.Instruments.ParquetDir,
		fmt.Sprintf("%s_%s_strikes.parquet", strings.ToUpper(exchangeSymbol), strings.ToUpper(masterSymbol)))
	count, err := instruments.ExportParquet(filename, exchangeSymbol, masterSymbol, result)
	if err != nil {
		return err
	}

	log.Info().Str("file", filename).Int("rows", count).Msg("Strikes written to Parquet")
	return nil
}

func newDownloadMasterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download-master",
		Short: "Download the Dhan security master to the configured path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if masterPath != "" {
				cfg.Instruments.MasterPath = masterPath
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			written, err := instruments.NewInstrumentManager(cfg.Instruments, log).DownloadMaster(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes to %s\n", written, cfg.Instruments.MasterPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&masterPath, "master", "", "Path to save the security master CSV")

	return cmd
}
