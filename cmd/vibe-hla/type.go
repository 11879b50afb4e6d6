package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-hla/internal/typer"
)

func newTypeCmd() *cobra.Command {
	defaults := typer.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "type [flags] <alignments.bam>",
		Short: "Type HLA class I genes from a SAM or BAM file",
		Long: `Build fragments from reads over the configured gene regions, enrich them into
amino acid fragments and narrow each gene's candidates. Gene regions are read
from the config file (key "genes").`,
		Example: `  vibe-hla type --aa-panel A_prot.csv --nuc-panel A_nuc.csv -o out/S1 S1.bam
  vibe-hla type --config hla.yaml --duckdb results.duckdb --sample S1 S1.bam`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runType(cmd.Context(), args[0])
		},
	}

	f := cmd.Flags()
	f.Int("min-base-quality", defaults.MinBaseQuality, "Minimum base quality")
	f.Int("min-base-count", defaults.MinBaseCount, "Minimum supporting fragments for a nucleotide")
	f.Int("min-evidence", defaults.MinEvidence, "Minimum supporting fragments for a residue or phased combination")
	f.Int("min-mapping-quality", defaults.MinMappingQuality, "Minimum read mapping quality")
	f.IntP("threads", "t", 0, "Worker goroutines for fragment construction (0 = NumCPU)")
	f.String("sample", defaults.Sample, "Sample name stored with results")
	f.StringP("output-prefix", "o", "", "Prefix for count tables, candidate table and QC summary")
	f.String("duckdb", "", "DuckDB results database (optional)")
	f.String("cache-dir", "", "Directory for the parsed panel cache (optional)")
	f.Bool("plot", false, "Print amino acid depth plots to stderr")
	f.StringSlice("aa-panel", nil, "Amino acid panel CSV (repeatable)")
	f.StringSlice("nuc-panel", nil, "Nucleotide panel CSV (repeatable)")

	for key, flag := range map[string]string{
		"min_base_quality":    "min-base-quality",
		"min_base_count":      "min-base-count",
		"min_evidence":        "min-evidence",
		"min_mapping_quality": "min-mapping-quality",
		"threads":             "threads",
		"sample":              "sample",
		"output_prefix":       "output-prefix",
		"duckdb":              "duckdb",
		"cache_dir":           "cache-dir",
		"plot":                "plot",
		"amino_acid_panels":   "aa-panel",
		"nucleotide_panels":   "nuc-panel",
	} {
		viper.BindPFlag(key, f.Lookup(flag))
	}

	return cmd
}

func runType(ctx context.Context, alignments string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	cfg := typer.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	t, err := typer.New(cfg)
	if err != nil {
		return err
	}
	t.SetLogger(logger)
	t.SetPlotWriter(os.Stderr)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	report, err := t.Run(ctx, alignments)
	if err != nil {
		logger.Error("typing failed", zap.String("alignments", alignments), zap.Error(err))
		return err
	}

	for _, s := range report.Summaries {
		fmt.Printf("%s\t%d candidates", s.Gene, len(s.Final))
		for _, a := range s.Final {
			fmt.Printf("\t%s", a)
		}
		fmt.Println()
	}
	return nil
}
