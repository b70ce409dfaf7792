package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"purchase-drivers/internal/ioformats"
	"purchase-drivers/internal/render"
	"purchase-drivers/internal/taxonomy"
)

var (
	analyzeJSON bool
	analyzeSave string

	batchInput       string
	batchOutput      string
	batchConcurrency int

	historyDomain string
	historyLimit  int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>...",
	Short: "Analyze one or more product pages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var failed int
		out := cmd.OutOrStdout()
		for _, u := range args {
			r, err := a.pipeline.Run(cmd.Context(), u)
			if err != nil {
				a.log.Errorf("%v", err)
				failed++
				continue
			}
			if analyzeJSON {
				enc := json.NewEncoder(out)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				if err := enc.Encode(r); err != nil {
					return err
				}
			} else {
				render.Report(out, r, a.tax)
			}
			if analyzeSave != "" {
				if err := ioformats.SaveReport(analyzeSave, r); err != nil {
					return err
				}
				a.log.Infof("saved %s", analyzeSave)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d pages failed", failed, len(args))
		}
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze a CSV or NDJSON list of URLs, writing NDJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchInput == "" {
			return errors.New("missing --input")
		}
		urls, err := ioformats.ReadURLs(batchInput)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = a.cfg.Concurrency
		}
		records := a.pipeline.RunBatch(cmd.Context(), urls, concurrency)

		w := cmd.OutOrStdout()
		if batchOutput != "" {
			f, err := os.Create(batchOutput)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			w = f
		}
		return ioformats.WriteNDJSON(w, records)
	},
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Prompt for URLs and print a report for each",
	RunE:  runInteractive,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored reports (needs --db or PD_DB)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		if a.store == nil {
			return errors.New("no history database configured")
		}
		entries, err := a.store.Recent(cmd.Context(), historyDomain, historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, e := range entries {
			top, share := "-", 0.0
			for _, d := range taxonomy.All() {
				if p := e.Report.DriverProportions[string(d)]; p > share {
					top, share = a.tax.Label(d), p
				}
			}
			fmt.Fprintf(out, "%s  %s  %-40s  %s %.0f%%\n",
				e.CreatedAt.Format("2006-01-02 15:04"), e.ID[:8], e.Report.URL, top, share*100)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
	analyzeCmd.Flags().StringVar(&analyzeSave, "save", "", "also write the report to this JSON file")

	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "input file (csv with 'url' column or ndjson)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "output NDJSON file (default stdout)")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 0, "worker concurrency (default PD_CONCURRENCY)")

	historyCmd.Flags().StringVar(&historyDomain, "domain", "", "only reports for this host")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of reports")

	rootCmd.AddCommand(analyzeCmd, batchCmd, interactiveCmd, historyCmd)
}
