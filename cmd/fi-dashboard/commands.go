package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"time-value-analyser/fi-dashboard/internal/export"
	"time-value-analyser/fi-dashboard/internal/model"
	"time-value-analyser/fi-dashboard/internal/store"
)

var checkArgs struct {
	manifest string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the input files and print their manifest",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, st, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}
		m := st.Manifest()
		if checkArgs.manifest != "" {
			prev, err := store.LoadManifest(checkArgs.manifest)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				log.Printf("no previous manifest at %s", checkArgs.manifest)
			case err != nil:
				return err
			default:
				if changed := m.Changed(prev); len(changed) > 0 {
					log.Printf("inputs changed since %s: %v", prev.LoadedAt.Format("2006-01-02 15:04:05"), changed)
				} else {
					log.Printf("inputs unchanged since %s", prev.LoadedAt.Format("2006-01-02 15:04:05"))
				}
			}
			if err := store.SaveManifest(checkArgs.manifest, m); err != nil {
				return fmt.Errorf("save manifest: %w", err)
			}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	},
}

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Print the latest value of each configured KPI",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, st, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INDICATOR\tLABEL\tYEAR\tVALUE")
		for _, k := range cfg.Dashboard.KPIs {
			year, _ := st.LatestYear(k.Code)
			v, err := st.LatestValue(k.Code, k.Gender)
			switch {
			case errors.Is(err, store.ErrUnknownIndicator):
				fmt.Fprintf(tw, "%s\t%s\t-\tunknown indicator\n", k.Code, k.Label)
			case errors.Is(err, store.ErrNoDataForPeriod):
				fmt.Fprintf(tw, "%s\t%s\t%d\tno data\n", k.Code, k.Label, year)
			case err != nil:
				return err
			default:
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f%%\n", k.Code, k.Label, year, v)
			}
		}
		return tw.Flush()
	},
}

var topArgs struct {
	limit int
}

var topEventsCmd = &cobra.Command{
	Use:   "top-events",
	Short: "Print events ranked by summed impact magnitude",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, st, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}
		limit := topArgs.limit
		if limit == 0 {
			limit = cfg.Dashboard.TopEvents
		}
		top, err := st.TopEvents(limit)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PARENT_ID\tIMPACT_MAGNITUDE")
		for _, e := range top {
			fmt.Fprintf(tw, "%s\t%g\n", e.ParentID, e.TotalMagnitude)
		}
		return tw.Flush()
	},
}

var exportArgs struct {
	scenario string
	format   string
	out      string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write one forecast scenario as CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		var write func(io.Writer, string, []model.ForecastPoint) error
		switch exportArgs.format {
		case "csv":
			write = export.WriteForecastCSV
		case "xlsx":
			write = export.WriteForecastXLSX
		default:
			return fmt.Errorf("unsupported format %q", exportArgs.format)
		}
		_, st, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}
		pts, err := st.ForecastColumn(exportArgs.scenario)
		if err != nil {
			return fmt.Errorf("%w (available: %v)", err, st.Scenarios())
		}
		if exportArgs.out == "" {
			return write(cmd.OutOrStdout(), exportArgs.scenario, pts)
		}
		f, err := os.Create(exportArgs.out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", cerr)
			}
		}()
		if err := write(f, exportArgs.scenario, pts); err != nil {
			return err
		}
		log.Printf("wrote %d years of %s to %s", len(pts), exportArgs.scenario, exportArgs.out)
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkArgs.manifest, "manifest", "", "Compare with and update a manifest JSON file")
	topEventsCmd.Flags().IntVar(&topArgs.limit, "limit", 0, "Number of events (default: dashboard.top_events)")

	flags := exportCmd.Flags()
	flags.StringVar(&exportArgs.scenario, "scenario", "", "Forecast scenario column")
	flags.StringVar(&exportArgs.format, "format", "csv", "Output format: csv or xlsx")
	flags.StringVar(&exportArgs.out, "out", "", "Write to file instead of stdout")
	_ = exportCmd.MarkFlagRequired("scenario")
}
