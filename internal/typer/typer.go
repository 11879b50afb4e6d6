// Package typer runs a complete typing pass: reference panels and gene
// regions in, per-gene candidate sets, count tables and QC out.
package typer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"github.com/inodb/vibe-hla/internal/amino"
	"github.com/inodb/vibe-hla/internal/candidates"
	"github.com/inodb/vibe-hla/internal/duckdb"
	"github.com/inodb/vibe-hla/internal/evidence"
	"github.com/inodb/vibe-hla/internal/fragment"
	"github.com/inodb/vibe-hla/internal/hla"
	"github.com/inodb/vibe-hla/internal/output"
	"github.com/inodb/vibe-hla/internal/qc"
	"github.com/inodb/vibe-hla/internal/reads"
	"github.com/inodb/vibe-hla/internal/reference"
)

// Report is the outcome of a typing run. Phased, Results and Summaries are
// indexed by gene in config order.
type Report struct {
	Stats     reads.Stats
	Combined  *evidence.SequenceCount // amino acid counts over every gene's fragments
	Phased    [][]evidence.Phased
	Results   []candidates.Result
	Summaries []qc.GeneSummary
}

// Typer runs typing passes with a fixed configuration.
type Typer struct {
	cfg    Config
	logger *zap.Logger
	plots  io.Writer
}

// New validates cfg and creates a Typer.
func New(cfg Config) (*Typer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.NumCPU()
	}
	return &Typer{cfg: cfg, logger: zap.NewNop(), plots: io.Discard}, nil
}

// SetLogger sets the logger for the run and its components.
func (t *Typer) SetLogger(l *zap.Logger) {
	t.logger = l
}

// SetPlotWriter sets where depth plots go when plotting is enabled.
func (t *Typer) SetPlotWriter(w io.Writer) {
	t.plots = w
}

// LoadPanel reads the reference panels, going through the gob cache when a
// cache directory is configured.
func (t *Typer) LoadPanel() (*reference.Panel, error) {
	if t.cfg.CacheDir == "" {
		return reference.Load(t.cfg.AminoAcidPanels, t.cfg.NucleotidePanels)
	}

	sources, err := duckdb.StatFiles(append(append([]string(nil), t.cfg.AminoAcidPanels...), t.cfg.NucleotidePanels...)...)
	if err != nil {
		return nil, err
	}

	pc := duckdb.NewPanelCache(t.cfg.CacheDir)
	if pc.Valid(sources...) {
		p, err := pc.Load()
		if err == nil {
			t.logger.Debug("panel loaded from cache", zap.String("dir", t.cfg.CacheDir))
			return p, nil
		}
		t.logger.Warn("panel cache unreadable, reloading", zap.Error(err))
	}

	p, err := reference.Load(t.cfg.AminoAcidPanels, t.cfg.NucleotidePanels)
	if err != nil {
		return nil, err
	}
	if err := pc.Write(p, sources...); err != nil {
		t.logger.Warn("could not write panel cache", zap.Error(err))
	}
	return p, nil
}

// Run types the reads of one SAM or BAM file.
func (t *Typer) Run(ctx context.Context, alignments string) (*Report, error) {
	regions, err := t.cfg.Regions()
	if err != nil {
		return nil, fmt.Errorf("gene regions: %w", err)
	}

	panel, err := t.LoadPanel()
	if err != nil {
		return nil, err
	}
	t.logger.Info("reference panel loaded",
		zap.Int("amino_acid_sequences", len(panel.AminoAcids)),
		zap.Int("nucleotide_sequences", len(panel.Nucleotides)),
		zap.Int("inserts", len(panel.Inserts())),
		zap.Int("deletes", len(panel.Deletes())))

	factory := fragment.NewFactory(t.cfg.MinBaseQuality, panel.Inserts(), panel.Deletes())
	builder := reads.NewBuilder(factory, hla.NewRegionIndex(regions), reads.Filter{MinMappingQuality: t.cfg.MinMappingQuality})
	builder.SetLogger(t.logger)

	frags, stats, err := builder.BuildFile(alignments, t.cfg.Threads)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("type %s: %w", alignments, err)
	}

	contexts := make([]hla.GeneContext, len(regions))
	for i, r := range regions {
		contexts[i] = r.Context()
	}

	enriched := amino.NewGeneEnrichment(contexts...).Enrich(frags)
	pipeline := amino.NewPipeline(t.cfg.MinBaseQuality, t.cfg.MinBaseCount, enriched)
	combined := evidence.AminoAcidCounts(t.cfg.MinEvidence, pipeline.Combined(hla.CombinedBoundaries(contexts...)))
	t.logger.Info("amino acid fragments combined",
		zap.Int("loci", combined.Len()),
		zap.Int("heterozygous_loci", len(combined.HeterozygousLoci())))

	requests := geneRequests(pipeline, contexts, t.cfg.MinEvidence)
	for _, req := range requests {
		for _, p := range req.Phased {
			t.logger.Debug("phased evidence", zap.String("gene", req.Context.Name()), zap.Stringer("evidence", p))
		}
	}

	engine := candidates.NewEngine(t.cfg.MinEvidence, panel.AminoAcids, panel.Nucleotides)
	engine.SetLogger(t.logger)
	results, err := engine.ResolveAll(ctx, requests)
	if err != nil {
		return nil, err
	}

	report := &Report{Stats: stats, Combined: combined, Results: results}
	for i, r := range results {
		report.Phased = append(report.Phased, requests[i].Phased)
		s := qc.Summarize(r, len(requests[i].Fragments), requests[i].Phased)
		report.Summaries = append(report.Summaries, s)
		t.logger.Info("gene typed", s.Fields()...)
		if t.cfg.Plot {
			if plot := qc.DepthPlot(r.Gene, r.AminoAcidCounts, 10); plot != "" {
				fmt.Fprintln(t.plots, plot)
			}
		}
	}

	if err := t.writeOutputs(report); err != nil {
		return nil, err
	}
	if err := t.writeStore(report); err != nil {
		return nil, err
	}
	return report, nil
}

// geneRequests types each gene's fragments and builds its phased evidence
// from those fragments alone.
func geneRequests(pipeline *amino.Pipeline, contexts []hla.GeneContext, minEvidence int) []candidates.Request {
	requests := make([]candidates.Request, len(contexts))
	for i, c := range contexts {
		frags := pipeline.Type(c)
		phased := evidence.PhasedEvidence(minEvidence, evidence.AminoAcidCounts(minEvidence, frags), frags)
		requests[i] = candidates.Request{Context: c, Fragments: frags, Phased: phased}
	}
	return requests
}

func (t *Typer) writeOutputs(report *Report) error {
	prefix := t.cfg.OutputPrefix
	if prefix == "" {
		return nil
	}
	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	for _, r := range report.Results {
		if err := output.WriteCountFile(output.CountTablePath(prefix, output.AminoAcids, r.Gene), r.AminoAcidCounts); err != nil {
			return err
		}
		if err := output.WriteCountFile(output.CountTablePath(prefix, output.Nucleotides, r.Gene), r.NucleotideCounts); err != nil {
			return err
		}
	}

	f, err := os.Create(prefix + ".candidates.tsv")
	if err != nil {
		return fmt.Errorf("create candidate table: %w", err)
	}
	cw := output.NewCandidateWriter(f)
	if err := cw.WriteHeader(); err != nil {
		f.Close()
		return fmt.Errorf("write candidate table: %w", err)
	}
	for _, r := range report.Results {
		if err := cw.Write(r); err != nil {
			f.Close()
			return fmt.Errorf("write candidate table: %w", err)
		}
	}
	if err := cw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write candidate table: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	qf, err := os.Create(prefix + ".qc.tsv")
	if err != nil {
		return fmt.Errorf("create qc summary: %w", err)
	}
	if err := qc.WriteSummary(qf, report.Summaries); err != nil {
		qf.Close()
		return err
	}
	return qf.Close()
}

func (t *Typer) writeStore(report *Report) error {
	if t.cfg.DuckDB == "" {
		return nil
	}
	store, err := duckdb.Open(t.cfg.DuckDB)
	if err != nil {
		return err
	}
	defer store.Close()

	for i, r := range report.Results {
		if err := store.WriteResult(t.cfg.Sample, r); err != nil {
			return fmt.Errorf("store %s: %w", r.Gene, err)
		}
		if err := store.WriteUnmatched(t.cfg.Sample, r.Gene, report.Summaries[i].Unmatched); err != nil {
			return fmt.Errorf("store %s: %w", r.Gene, err)
		}
	}
	t.logger.Info("results stored", zap.String("path", t.cfg.DuckDB), zap.String("sample", t.cfg.Sample))
	return nil
}
