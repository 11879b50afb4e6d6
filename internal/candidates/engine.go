package candidates

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-hla/internal/evidence"
	"github.com/inodb/vibe-hla/internal/fragment"
	"github.com/inodb/vibe-hla/internal/hla"
)

// Stage identifies a step of candidate resolution.
type Stage int

const (
	StageSeed Stage = iota
	StageAminoAcid
	StageNucleotide
	StagePhased
)

var stageNames = [...]string{"seed", "amino_acid", "nucleotide", "phased"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Stages lists every stage in execution order.
var Stages = []Stage{StageSeed, StageAminoAcid, StageNucleotide, StagePhased}

// Result is the outcome of resolving one gene.
type Result struct {
	Gene             string
	Stages           []Set // indexed by Stage
	AminoAcidCounts  *evidence.SequenceCount
	NucleotideCounts *evidence.SequenceCount
}

// Final returns the candidates surviving every stage.
func (r Result) Final() Set {
	return r.Stages[len(r.Stages)-1]
}

// At returns the candidates after the given stage.
func (r Result) At(s Stage) Set {
	return r.Stages[s]
}

// Engine resolves candidates from shared amino acid and nucleotide panels.
// The panels are read-only; each Resolve works on its own Sets, so an Engine
// may resolve several genes at once.
type Engine struct {
	minEvidence int
	aminoAcids  []hla.SequenceLoci
	nucleotides []hla.SequenceLoci
	logger      *zap.Logger
}

// NewEngine creates an Engine over the amino acid and nucleotide panels.
func NewEngine(minEvidence int, aminoAcids, nucleotides []hla.SequenceLoci) *Engine {
	return &Engine{
		minEvidence: minEvidence,
		aminoAcids:  aminoAcids,
		nucleotides: nucleotides,
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the logger for per-stage candidate counts.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Resolve narrows the gene's candidates using the fragments and phased evidence.
func (e *Engine) Resolve(ctx hla.GeneContext, fragments []*fragment.AminoAcid, phased []evidence.Phased) Result {
	aminoAcidCounts := evidence.AminoAcidCounts(e.minEvidence, fragments)
	nucleotideCounts := evidence.NucleotideCounts(e.minEvidence, fragment.NucleotidesOf(fragments))

	seed := ByGene(NewSet(e.aminoAcids), ctx.Gene)
	aminoAcid := FilterAminoAcids(seed, aminoAcidCounts, ctx.AminoAcidBoundaries)

	nucleotidePanel := FilterFourDigit(NewSet(e.nucleotides), aminoAcid.FourDigitGroups())
	boundaryGroups := FilterBoundaryNucleotides(nucleotidePanel, nucleotideCounts, ctx.AminoAcidBoundaries).FourDigitGroups()
	nucleotide := FilterFourDigit(aminoAcid, boundaryGroups)

	final := FilterPhased(nucleotide, phased)

	r := Result{
		Gene:             ctx.Gene,
		Stages:           []Set{seed, aminoAcid, nucleotide, final},
		AminoAcidCounts:  aminoAcidCounts,
		NucleotideCounts: nucleotideCounts,
	}
	for _, s := range Stages {
		e.logger.Debug("candidates",
			zap.String("gene", ctx.Name()),
			zap.Stringer("stage", s),
			zap.Int("count", r.At(s).Len()))
	}
	return r
}

// Request is the input for one gene.
type Request struct {
	Context   hla.GeneContext
	Fragments []*fragment.AminoAcid
	Phased    []evidence.Phased
}

// ResolveAll resolves every request concurrently. Results follow request
// order. Genes not yet started when ctx is cancelled are skipped and the
// context error is returned.
func (e *Engine) ResolveAll(ctx context.Context, requests []Request) ([]Result, error) {
	results := make([]Result, len(requests))

	g, ctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("resolve %s: %w", req.Context.Name(), err)
			}
			results[i] = e.Resolve(req.Context, req.Fragments, req.Phased)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
