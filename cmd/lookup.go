package main

import (
	"bufio"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/company-lookup/internal/export"
	"github.com/sells-group/company-lookup/internal/lookup"
	"github.com/sells-group/company-lookup/internal/model"
)

var (
	lookupFile     string
	lookupOutput   string
	lookupFormat   string
	lookupEncoding string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [company name]...",
	Short: "Look up company information from the command line",
	Long:  "Runs the search/extract/verify pipeline for the given company names and writes the results as CSV or XLSX.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		names, err := collectNames(args, lookupFile)
		if err != nil {
			return err
		}
		names = model.NormalizeCompanyNames(names)
		if len(names) == 0 {
			return eris.New("no company names given: pass them as arguments or via --file")
		}
		if max := cfg.Pipeline.MaxBatch; len(names) > max {
			return eris.Errorf("too many companies: %d exceeds the limit of %d", len(names), max)
		}

		env, err := initPipeline(ctx, lookup.WithNotifier(lookup.LogNotifier{}))
		if err != nil {
			return err
		}
		defer env.Close()

		results := env.Pipeline.ProcessBatch(ctx, names)

		out := cmd.OutOrStdout()
		if lookupOutput != "" {
			f, err := os.Create(lookupOutput)
			if err != nil {
				return eris.Wrapf(err, "create %s", lookupOutput)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		switch lookupFormat {
		case "xlsx":
			return export.WriteXLSX(out, results)
		case "csv":
			return export.WriteCSV(out, results, export.Options{
				BOM:      cfg.Export.BOM,
				ShiftJIS: lookupEncoding == "sjis",
			})
		default:
			return eris.Errorf("unknown format %q (want csv or xlsx)", lookupFormat)
		}
	},
}

// collectNames merges positional arguments with an optional names file,
// one company per line.
func collectNames(args []string, file string) ([]string, error) {
	names := append([]string(nil), args...)
	if file == "" {
		return names, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", file)
	}
	defer f.Close() //nolint:errcheck

	return appendLines(names, f)
}

func appendLines(names []string, r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		names = append(names, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "read names")
	}
	return names, nil
}

func init() {
	lookupCmd.Flags().StringVar(&lookupFile, "file", "", "file with one company name per line")
	lookupCmd.Flags().StringVarP(&lookupOutput, "output", "o", "", "output path (default stdout)")
	lookupCmd.Flags().StringVar(&lookupFormat, "format", "csv", "output format: csv or xlsx")
	lookupCmd.Flags().StringVar(&lookupEncoding, "encoding", "", "csv encoding: sjis for Shift_JIS")
	rootCmd.AddCommand(lookupCmd)
}
