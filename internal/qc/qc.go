// Package qc summarizes the evidence behind each gene's typing result.
package qc

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/inodb/vibe-hla/internal/candidates"
	"github.com/inodb/vibe-hla/internal/evidence"
	"github.com/inodb/vibe-hla/internal/hla"
)

// GeneSummary holds the QC metrics of one gene.
type GeneSummary struct {
	Gene        string
	Fragments   int
	MeanDepth   float64 // amino acid depth over observed loci
	MedianDepth float64
	MaxDepth    float64
	LowDepth    int   // loci covered by fewer than MinCount fragments
	StageCounts []int // indexed by candidates.Stage
	Final       []string
	Unmatched   []evidence.Unmatched
}

// Depths returns the amino acid depth at each locus of counts.
func Depths(counts *evidence.SequenceCount) []float64 {
	depths := make([]float64, counts.Len())
	for locus := range depths {
		depths[locus] = float64(counts.Depth(locus))
	}
	return depths
}

// Summarize computes the QC metrics of a resolved gene. fragments is the
// number of amino acid fragments typed against it.
func Summarize(r candidates.Result, fragments int, phased []evidence.Phased) GeneSummary {
	s := GeneSummary{
		Gene:        hla.LongGeneName(r.Gene),
		Fragments:   fragments,
		StageCounts: make([]int, len(r.Stages)),
	}
	for i, set := range r.Stages {
		s.StageCounts[i] = set.Len()
	}
	if len(r.Stages) > 0 {
		final := r.Final()
		for _, a := range final.Alleles() {
			s.Final = append(s.Final, a.String())
		}
		s.Unmatched = evidence.UnmatchedHaplotypes(phased, final.Sequences())
	}

	if r.AminoAcidCounts == nil || r.AminoAcidCounts.Len() == 0 {
		return s
	}

	depths := Depths(r.AminoAcidCounts)
	for _, d := range depths {
		if d < float64(r.AminoAcidCounts.MinCount()) {
			s.LowDepth++
		}
	}
	s.MeanDepth = stat.Mean(depths, nil)
	s.MaxDepth = floats.Max(depths)

	sorted := append([]float64(nil), depths...)
	sort.Float64s(sorted)
	s.MedianDepth = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s
}

// Fields returns the summary as structured log fields.
func (s GeneSummary) Fields() []zap.Field {
	fields := []zap.Field{
		zap.String("gene", s.Gene),
		zap.Int("fragments", s.Fragments),
		zap.Float64("mean_depth", s.MeanDepth),
		zap.Float64("max_depth", s.MaxDepth),
		zap.Int("low_depth_loci", s.LowDepth),
		zap.Strings("final", s.Final),
		zap.Int("unmatched_haplotypes", len(s.Unmatched)),
	}
	for i, n := range s.StageCounts {
		fields = append(fields, zap.Int(candidates.Stage(i).String(), n))
	}
	return fields
}

// DepthPlot renders the amino acid depth per locus as a terminal line chart.
// It returns "" when nothing was observed.
func DepthPlot(gene string, counts *evidence.SequenceCount, height int) string {
	if counts == nil || counts.Len() == 0 {
		return ""
	}
	return asciigraph.Plot(Depths(counts),
		asciigraph.Height(height),
		asciigraph.Precision(0),
		asciigraph.Caption(hla.LongGeneName(gene)+" amino acid depth"))
}

var summaryColumns = []string{
	"#Gene", "Fragments", "MeanDepth", "MedianDepth", "MaxDepth", "LowDepthLoci",
	"Seed", "AminoAcid", "Nucleotide", "Phased", "UnmatchedHaplotypes", "Final",
}

// WriteSummary writes one tab-delimited line per gene.
func WriteSummary(w io.Writer, summaries []GeneSummary) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(summaryColumns, "\t") + "\n"); err != nil {
		return err
	}

	for _, s := range summaries {
		values := []string{
			s.Gene,
			strconv.Itoa(s.Fragments),
			strconv.FormatFloat(s.MeanDepth, 'f', 2, 64),
			strconv.FormatFloat(s.MedianDepth, 'f', 1, 64),
			strconv.FormatFloat(s.MaxDepth, 'f', 0, 64),
			strconv.Itoa(s.LowDepth),
		}
		for _, stage := range candidates.Stages {
			n := "-"
			if int(stage) < len(s.StageCounts) {
				n = strconv.Itoa(s.StageCounts[stage])
			}
			values = append(values, n)
		}
		final := "-"
		if len(s.Final) > 0 {
			final = strings.Join(s.Final, ",")
		}
		values = append(values, strconv.Itoa(len(s.Unmatched)), final)

		if _, err := bw.WriteString(strings.Join(values, "\t") + "\n"); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write qc summary: %w", err)
	}
	return nil
}
