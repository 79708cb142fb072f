package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xethub/xetcas"
	"github.com/xethub/xetcas/cas"
)

var (
	rangeFlag  string
	outputFlag string
)

var getCmd = &cobra.Command{
	Use:   "get <file-id>",
	Short: "Reconstruct a file by its content hash",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	getCmd.Flags().StringVar(&rangeFlag, "range", "", "byte range to fetch, as lo-hi (half-open)")
	getCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output file path (default: stdout)")
}

func runGet(cmd *cobra.Command, args []string) error {
	fileID := args[0]

	byteRange, err := parseRange(rangeFlag)
	if err != nil {
		return err
	}

	d, err := xetcas.NewDownloader(viper.GetString("refresh_url"), viper.GetString("hub_token"))
	if err != nil {
		return fmt.Errorf("constructing downloader: %w", err)
	}
	d = d.WithLogger(logger())
	defer func() { _ = d.Shutdown(context.Background()) }()

	if outputFlag == "" {
		out := xetcas.NewMemoryOutput(0)
		if _, err := d.DownloadTo(cmd.Context(), fileID, byteRange, out); err != nil {
			return err
		}
		_, err := os.Stdout.Write(out.Bytes())
		return err
	}

	f, err := os.Create(outputFlag)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	_, err = d.DownloadTo(cmd.Context(), fileID, byteRange, xetcas.NewFileOutput(f))
	return err
}

func parseRange(s string) (*cas.ByteRange, error) {
	if s == "" {
		return nil, nil
	}
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return nil, fmt.Errorf("invalid --range %q: want lo-hi", s)
	}
	loN, err := strconv.ParseUint(lo, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --range lo %q: %w", lo, err)
	}
	hiN, err := strconv.ParseUint(hi, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --range hi %q: %w", hi, err)
	}
	return &cas.ByteRange{Start: loN, End: hiN}, nil
}
