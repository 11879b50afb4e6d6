package typer

import (
	"errors"
	"fmt"

	"github.com/inodb/vibe-hla/internal/hla"
)

// GeneConfig describes one gene's coding exons, 1-based inclusive.
type GeneConfig struct {
	Name   string  `mapstructure:"name" yaml:"name"`
	Chrom  string  `mapstructure:"chrom" yaml:"chrom"`
	Strand int8    `mapstructure:"strand" yaml:"strand"`
	Exons  [][]int `mapstructure:"exons" yaml:"exons"`
}

// Config holds the settings of a typing run.
type Config struct {
	MinBaseQuality    int `mapstructure:"min_base_quality" yaml:"min_base_quality"`
	MinBaseCount      int `mapstructure:"min_base_count" yaml:"min_base_count"`
	MinEvidence       int `mapstructure:"min_evidence" yaml:"min_evidence"`
	MinMappingQuality int `mapstructure:"min_mapping_quality" yaml:"min_mapping_quality"`
	Threads           int `mapstructure:"threads" yaml:"threads"` // 0 = NumCPU

	Sample       string `mapstructure:"sample" yaml:"sample"`
	OutputPrefix string `mapstructure:"output_prefix" yaml:"output_prefix"`
	DuckDB       string `mapstructure:"duckdb" yaml:"duckdb"`
	CacheDir     string `mapstructure:"cache_dir" yaml:"cache_dir"`
	Plot         bool   `mapstructure:"plot" yaml:"plot"`

	AminoAcidPanels  []string     `mapstructure:"amino_acid_panels" yaml:"amino_acid_panels"`
	NucleotidePanels []string     `mapstructure:"nucleotide_panels" yaml:"nucleotide_panels"`
	Genes            []GeneConfig `mapstructure:"genes" yaml:"genes"`
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		MinBaseQuality:    30,
		MinBaseCount:      2,
		MinEvidence:       2,
		MinMappingQuality: 1,
		Sample:            "sample",
	}
}

// Validate checks the settings needed before any input is read.
func (c Config) Validate() error {
	var errs []error
	if c.MinBaseQuality < 0 {
		errs = append(errs, fmt.Errorf("min_base_quality must not be negative"))
	}
	if c.MinBaseCount < 1 {
		errs = append(errs, fmt.Errorf("min_base_count must be at least 1"))
	}
	if c.MinEvidence < 1 {
		errs = append(errs, fmt.Errorf("min_evidence must be at least 1"))
	}
	if len(c.AminoAcidPanels) == 0 {
		errs = append(errs, fmt.Errorf("no amino acid panels"))
	}
	if len(c.NucleotidePanels) == 0 {
		errs = append(errs, fmt.Errorf("no nucleotide panels"))
	}
	if len(c.Genes) == 0 {
		errs = append(errs, fmt.Errorf("no genes"))
	}
	return errors.Join(errs...)
}

// Regions builds the gene regions of the configured genes.
func (c Config) Regions() ([]*hla.GeneRegion, error) {
	regions := make([]*hla.GeneRegion, 0, len(c.Genes))
	for _, g := range c.Genes {
		exons := make([]hla.Exon, len(g.Exons))
		for i, e := range g.Exons {
			if len(e) != 2 {
				return nil, fmt.Errorf("gene %s: exon %d: expected [start, end], got %v", g.Name, i, e)
			}
			exons[i] = hla.Exon{Start: e[0], End: e[1]}
		}
		r, err := hla.NewGeneRegion(g.Name, g.Chrom, g.Strand, exons)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}
