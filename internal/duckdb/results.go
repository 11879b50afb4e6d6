package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-hla/internal/candidates"
	"github.com/inodb/vibe-hla/internal/evidence"
	"github.com/inodb/vibe-hla/internal/hla"
)

// Sequence count kinds.
const (
	KindAminoAcid  = "amino_acid"
	KindNucleotide = "nucleotide"
)

// CandidateRow is one allele surviving a resolution stage.
type CandidateRow struct {
	Sample string
	Gene   string
	Stage  string
	Allele string
}

// CountRow is the support for one residue at one locus.
type CountRow struct {
	Sample  string
	Gene    string
	Kind    string
	Locus   int
	Residue string
	Count   int
}

// withAppender runs fn with an appender on table and flushes it.
func (s *Store) withAppender(table string, fn func(*goduckdb.Appender) error) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	if err := fn(appender); err != nil {
		return err
	}
	return appender.Flush()
}

// WriteResult stores every stage's candidates and both sequence count tables
// of one resolved gene. Earlier rows for the same sample and gene are replaced.
func (s *Store) WriteResult(sample string, r candidates.Result) error {
	gene := hla.LongGeneName(r.Gene)
	if err := s.clearGene(sample, gene); err != nil {
		return err
	}

	err := s.withAppender("candidates", func(a *goduckdb.Appender) error {
		for _, stage := range candidates.Stages {
			if int(stage) >= len(r.Stages) {
				break
			}
			seen := make(map[string]bool)
			for _, allele := range r.At(stage).Alleles() {
				name := allele.String()
				if seen[name] {
					continue
				}
				seen[name] = true
				if err := a.AppendRow(sample, gene, stage.String(), name); err != nil {
					return fmt.Errorf("append candidate: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.withAppender("sequence_counts", func(a *goduckdb.Appender) error {
		for _, c := range []struct {
			kind   string
			counts *evidence.SequenceCount
		}{{KindAminoAcid, r.AminoAcidCounts}, {KindNucleotide, r.NucleotideCounts}} {
			if c.counts == nil {
				continue
			}
			for locus := 0; locus < c.counts.Len(); locus++ {
				for _, residue := range c.counts.MinCountSequences(locus) {
					count := int32(c.counts.Count(locus, residue))
					if err := a.AppendRow(sample, gene, c.kind, int32(locus), residue, count); err != nil {
						return fmt.Errorf("append sequence count: %w", err)
					}
				}
			}
		}
		return nil
	})
}

// WriteUnmatched stores phased combinations no final candidate explains.
func (s *Store) WriteUnmatched(sample, gene string, unmatched []evidence.Unmatched) error {
	if len(unmatched) == 0 {
		return nil
	}
	gene = hla.LongGeneName(gene)
	return s.withAppender("unmatched_haplotypes", func(a *goduckdb.Appender) error {
		for _, u := range unmatched {
			loci := make([]string, len(u.Loci))
			for i, l := range u.Loci {
				loci[i] = strconv.Itoa(l)
			}
			if err := a.AppendRow(sample, gene, strings.Join(loci, ","), strings.Join(u.Residues, ","), int32(u.Count)); err != nil {
				return fmt.Errorf("append unmatched haplotype: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) clearGene(sample, gene string) error {
	for _, table := range []string{"candidates", "sequence_counts", "unmatched_haplotypes"} {
		if _, err := s.db.Exec("DELETE FROM "+table+" WHERE sample=? AND gene=?", sample, gene); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Clear removes every stored result.
func (s *Store) Clear() error {
	for _, table := range []string{"candidates", "sequence_counts", "unmatched_haplotypes"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// LookupCandidates returns the alleles stored for a sample, gene and stage.
func (s *Store) LookupCandidates(sample, gene, stage string) ([]string, error) {
	rows, err := s.db.Query(`SELECT allele FROM candidates
		WHERE sample=? AND gene=? AND stage=?
		ORDER BY allele`, sample, hla.LongGeneName(gene), stage)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var alleles []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		alleles = append(alleles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return alleles, nil
}

// SearchByAllele returns every stored stage in which allele survived, across
// samples.
func (s *Store) SearchByAllele(allele string) ([]CandidateRow, error) {
	rows, err := s.db.Query(`SELECT sample, gene, stage, allele FROM candidates
		WHERE allele=? ORDER BY sample, gene, stage`, allele)
	if err != nil {
		return nil, fmt.Errorf("query by allele: %w", err)
	}
	defer rows.Close()

	var out []CandidateRow
	for rows.Next() {
		var r CandidateRow
		if err := rows.Scan(&r.Sample, &r.Gene, &r.Stage, &r.Allele); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

// LookupCounts returns the stored counts of one kind, ordered by locus then
// descending count.
func (s *Store) LookupCounts(sample, gene, kind string) ([]CountRow, error) {
	rows, err := s.db.Query(`SELECT sample, gene, kind, locus, residue, count
		FROM sequence_counts
		WHERE sample=? AND gene=? AND kind=?
		ORDER BY locus, count DESC, residue`, sample, hla.LongGeneName(gene), kind)
	if err != nil {
		return nil, fmt.Errorf("query sequence counts: %w", err)
	}
	defer rows.Close()

	var out []CountRow
	for rows.Next() {
		var r CountRow
		if err := rows.Scan(&r.Sample, &r.Gene, &r.Kind, &r.Locus, &r.Residue, &r.Count); err != nil {
			return nil, fmt.Errorf("scan sequence count: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sequence counts: %w", err)
	}
	return out, nil
}

// CountUnmatched returns how many unmatched haplotypes are stored for a gene.
func (s *Store) CountUnmatched(sample, gene string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM unmatched_haplotypes WHERE sample=? AND gene=?`,
		sample, hla.LongGeneName(gene)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unmatched haplotypes: %w", err)
	}
	return n, nil
}
