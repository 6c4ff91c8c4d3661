package grammar

import (
	"fmt"
	"sort"

	"github.com/nihei9/argot/spec/grammar/tree"
)

// PrecedenceArgName is the argument a rewritten left-recursive rule receives its minimum precedence in.
const PrecedenceArgName = "_p"

type LeftRecursiveAltKind int

const (
	LeftRecursiveAltKindBinary LeftRecursiveAltKind = iota
	LeftRecursiveAltKindTernary
	LeftRecursiveAltKindPrefix
	LeftRecursiveAltKindSuffix
	LeftRecursiveAltKindOther
)

func (k LeftRecursiveAltKind) String() string {
	switch k {
	case LeftRecursiveAltKindBinary:
		return "binary"
	case LeftRecursiveAltKindTernary:
		return "ternary"
	case LeftRecursiveAltKindPrefix:
		return "prefix"
	case LeftRecursiveAltKindSuffix:
		return "suffix"
	case LeftRecursiveAltKindOther:
		return "other"
	}
	return fmt.Sprintf("LeftRecursiveAltKind(%d)", int(k))
}

// IsOperator reports whether alternatives of the kind go to the operator loop of a rewritten rule.
func (k LeftRecursiveAltKind) IsOperator() bool {
	return k == LeftRecursiveAltKindBinary || k == LeftRecursiveAltKindTernary || k == LeftRecursiveAltKindSuffix
}

type Assoc int

const (
	AssocLeft Assoc = iota
	AssocRight
)

func (a Assoc) String() string {
	if a == AssocRight {
		return "right"
	}
	return "left"
}

// LeftRecursiveAlt describes how one alternative of a left-recursive rule was rewritten.
type LeftRecursiveAlt struct {
	// AltNum is the number of the alternative in the rule as written.
	AltNum int

	Kind       LeftRecursiveAltKind
	Precedence int

	// NextPrecedence is the precedence passed to the trailing recursive reference of a binary alternative.
	NextPrecedence int
	Assoc          Assoc

	// Label is the `# label` of the alternative.
	Label    string
	LabelPos tree.Position

	// LeftRecursiveRuleRefLabel is the label of the stripped left operand, like `a` in `a=e '*' b=e`.
	LeftRecursiveRuleRefLabel string
	IsListLabel               bool

	// AltText is the alternative as it appears in the rewritten rule.
	AltText string

	// OriginalAlt is the alternative node as written. It is no longer part of the grammar tree.
	OriginalAlt tree.NodeID

	// Alt is the alternative in the rewritten rule. It is bound after the rewritten rule has been spliced in.
	Alt tree.NodeID
}

// LeftRecursion holds what a left-recursive rule looked like before the rewrite and where its alternatives went.
type LeftRecursion struct {
	OriginalNode tree.NodeID

	// PrimaryAlts are the alternatives of the primary block in order, prefix alternatives included.
	PrimaryAlts []*LeftRecursiveAlt

	// OpAlts are the alternatives of the operator loop in order.
	OpAlts []*LeftRecursiveAlt

	// Text is the synthesized source of the rewritten rule.
	Text string

	originalNumberOfAlts int
}

func NewLeftRecursion(original tree.NodeID, originalNumberOfAlts int) *LeftRecursion {
	return &LeftRecursion{
		OriginalNode:         original,
		originalNumberOfAlts: originalNumberOfAlts,
	}
}

func (lr *LeftRecursion) OriginalNumberOfAlts() int {
	return lr.originalNumberOfAlts
}

// Alts returns the alternatives in their original order.
func (lr *LeftRecursion) Alts() []*LeftRecursiveAlt {
	alts := make([]*LeftRecursiveAlt, 0, len(lr.PrimaryAlts)+len(lr.OpAlts))
	alts = append(alts, lr.PrimaryAlts...)
	alts = append(alts, lr.OpAlts...)
	sort.SliceStable(alts, func(i, j int) bool {
		return alts[i].AltNum < alts[j].AltNum
	})
	return alts
}

// PrecedenceOf returns the precedence of an alternative as originally numbered.
func (lr *LeftRecursion) PrecedenceOf(altNum int) int {
	return lr.originalNumberOfAlts - altNum + 1
}
