package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/MeKo-Tech/lapse/internal/config"
	"github.com/MeKo-Tech/lapse/internal/timing"
	"github.com/MeKo-Tech/lapse/internal/workload"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// benchReport is the structured form of a bench run for json/yaml output.
type benchReport struct {
	Iterations int               `json:"iterations" yaml:"iterations"`
	Baseline   timing.Stats      `json:"baseline" yaml:"baseline"`
	Results    []workload.Result `json:"results" yaml:"results"`
}

// benchCmd represents the bench command.
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time built-in workloads and report summary statistics",
	Long: `Run built-in workloads for a fixed number of iterations each, timing
every iteration through the registry, and report min/max/avg/total per
workload. The clock-overhead baseline recorded during calibration is
always included so the cost of the measurement itself is visible.

Examples:
  lapse bench
  lapse bench --iterations 500 --workloads sleep,hash
  lapse bench --format tsv --output report.tsv
  lapse bench --format json --mem`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		iterations := cfg.Bench.Iterations
		if cmd.Flags().Changed("iterations") {
			iterations, _ = cmd.Flags().GetInt("iterations")
		}

		workloadsCSV := cfg.Bench.Workloads
		if cmd.Flags().Changed("workloads") {
			workloadsCSV, _ = cmd.Flags().GetString("workloads")
		}

		format := cfg.Bench.Format
		if cmd.Flags().Changed("format") {
			format, _ = cmd.Flags().GetString("format")
		}

		outputFile := cfg.Bench.Output
		if cmd.Flags().Changed("output") {
			outputFile, _ = cmd.Flags().GetString("output")
		}

		trackMemory := cfg.Bench.Memory
		if cmd.Flags().Changed("mem") {
			trackMemory, _ = cmd.Flags().GetBool("mem")
		}

		ws, err := workload.ByNames(config.WorkloadNames(workloadsCSV))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer func() { _ = f.Close() }()
			out = f
		}

		return runBench(out, ws, iterations, format, trackMemory)
	},
}

func runBench(out io.Writer, ws []workload.Workload, iterations int, format string, trackMemory bool) error {
	regCfg := timing.DefaultConfig()
	regCfg.Iterations = iterations
	regCfg.SlotCount = len(ws) + 1
	regCfg.Output = out
	if format != "tsv" {
		// Close would emit the TSV report; other formats render from
		// snapshots instead.
		regCfg.Output = io.Discard
	}

	reg, err := timing.New(regCfg)
	if err != nil {
		return err
	}

	results, err := workload.RunAll(reg, ws, trackMemory)
	if err != nil {
		return err
	}

	report := benchReport{Iterations: iterations, Results: results}
	if report.Baseline, err = reg.Snapshot(timing.OverheadSlot); err != nil && iterations > 0 {
		return err
	}

	if err := writeBenchReport(out, report, format, trackMemory); err != nil {
		return err
	}
	return reg.Close()
}

func writeBenchReport(out io.Writer, report benchReport, format string, trackMemory bool) error {
	switch format {
	case "tsv":
		// The registry prints the report itself on Close.
		return nil
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	default: // text
		return writeTextReport(out, report, trackMemory)
	}
}

func writeTextReport(out io.Writer, report benchReport, trackMemory bool) error {
	if _, err := fmt.Fprintf(out, "lapse bench: %d iterations per workload\n\n", report.Iterations); err != nil {
		return err
	}
	if report.Baseline.Count > 0 {
		if err := writeTextLine(out, report.Baseline); err != nil {
			return err
		}
	}
	for _, res := range report.Results {
		if res.Stats.Count == 0 {
			if _, err := fmt.Fprintf(out, "%-8s no samples\n", res.Stats.Name); err != nil {
				return err
			}
			continue
		}
		if err := writeTextLine(out, res.Stats); err != nil {
			return err
		}
		if trackMemory {
			allocKB := int64(res.MemoryAfter.TotalAllocBytes-res.MemoryBefore.TotalAllocBytes) / 1024 //nolint:gosec
			if _, err := fmt.Fprintf(out, "         mem: +%d KB, GC: %d\n",
				allocKB, res.MemoryAfter.NumGC-res.MemoryBefore.NumGC); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeTextLine(out io.Writer, st timing.Stats) error {
	_, err := fmt.Fprintf(out, "%-8s samples=%d min=%.2e max=%.2e avg=%.2e total=%.2e\n",
		st.Name, st.Count, st.Min, st.Max, st.Avg, st.Total)
	return err
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().IntP("iterations", "n", 100, "samples to record per workload")
	benchCmd.Flags().StringP("workloads", "w", "", "comma-separated workloads to run (default all)")
	benchCmd.Flags().StringP("format", "f", "text", "report format (text, tsv, json, yaml)")
	benchCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	benchCmd.Flags().Bool("mem", false, "include memory statistics per workload")

	_ = viper.BindPFlag("bench.iterations", benchCmd.Flags().Lookup("iterations"))
	_ = viper.BindPFlag("bench.workloads", benchCmd.Flags().Lookup("workloads"))
	_ = viper.BindPFlag("bench.format", benchCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("bench.output", benchCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("bench.memory", benchCmd.Flags().Lookup("mem"))
}
