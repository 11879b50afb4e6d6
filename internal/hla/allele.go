// Package hla models HLA alleles, their reference sequences and the gene
// regions reads are typed against.
package hla

import (
	"fmt"
	"strings"
)

// GenePrefix is prepended to short gene names (A, B, C) to form the names
// carried by fragments and coding regions.
const GenePrefix = "HLA-"

// LongGeneName returns the prefixed gene name, e.g. "A" -> "HLA-A".
func LongGeneName(gene string) string {
	if strings.HasPrefix(gene, GenePrefix) {
		return gene
	}
	return GenePrefix + gene
}

// ShortGeneName strips the HLA- prefix, e.g. "HLA-A" -> "A".
func ShortGeneName(gene string) string {
	return strings.TrimPrefix(gene, GenePrefix)
}

// Allele is an HLA allele identifier: a gene plus up to four digit groups.
type Allele struct {
	Gene                string // short gene name, e.g. "A"
	AlleleGroup         string // first field, e.g. "01"
	Protein             string // second field
	Synonymous          string // third field
	SynonymousNonCoding string // fourth field
}

// ParseAllele parses names such as "A*01:01:01:01" or "HLA-B*07:02".
func ParseAllele(s string) (Allele, error) {
	name := strings.TrimPrefix(strings.TrimSpace(s), GenePrefix)

	gene, fields, ok := strings.Cut(name, "*")
	if !ok || gene == "" || fields == "" {
		return Allele{}, fmt.Errorf("parse allele %q: expected <gene>*<fields>", s)
	}

	parts := strings.Split(fields, ":")
	if len(parts) > 4 {
		return Allele{}, fmt.Errorf("parse allele %q: too many fields", s)
	}
	for _, p := range parts {
		if p == "" {
			return Allele{}, fmt.Errorf("parse allele %q: empty field", s)
		}
	}

	a := Allele{Gene: gene, AlleleGroup: parts[0]}
	if len(parts) > 1 {
		a.Protein = parts[1]
	}
	if len(parts) > 2 {
		a.Synonymous = parts[2]
	}
	if len(parts) > 3 {
		a.SynonymousNonCoding = parts[3]
	}
	return a, nil
}

// MustParseAllele is like ParseAllele but panics on malformed input.
func MustParseAllele(s string) Allele {
	a, err := ParseAllele(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String formats the allele with as many fields as are set.
func (a Allele) String() string {
	var b strings.Builder
	b.WriteString(a.Gene)
	b.WriteByte('*')
	b.WriteString(a.AlleleGroup)
	for _, f := range []string{a.Protein, a.Synonymous, a.SynonymousNonCoding} {
		if f == "" {
			break
		}
		b.WriteByte(':')
		b.WriteString(f)
	}
	return b.String()
}

// FourDigit reduces the allele to its first two fields, e.g. A*01:01.
func (a Allele) FourDigit() Allele {
	return Allele{Gene: a.Gene, AlleleGroup: a.AlleleGroup, Protein: a.Protein}
}

// TwoDigit reduces the allele to its first field, e.g. A*01.
func (a Allele) TwoDigit() Allele {
	return Allele{Gene: a.Gene, AlleleGroup: a.AlleleGroup}
}
