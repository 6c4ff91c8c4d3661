package grammar

import (
	"github.com/nihei9/argot/spec/grammar/tree"
)

// ReduceBlocksToSets replaces the subrules of the subtree that match one token of a set, like ('+' | '-') or
// (A | B), with SET nodes. Outermost rule blocks are left alone so alternatives keep their numbers.
func ReduceBlocksToSets(t *tree.Tree, root tree.NodeID, lexer bool) {
	var blocks []tree.NodeID
	t.Walk(root, func(id tree.NodeID) bool {
		if t.Kind(id) == tree.KindBlock && t.Kind(t.Parent(id)) != tree.KindRule {
			blocks = append(blocks, id)
		}
		return true
	})
	// Innermost blocks come last in pre-order; reducing them first lets enclosing blocks see the sets.
	for i := len(blocks) - 1; i >= 0; i-- {
		blk := blocks[i]
		if t.ChildCount(blk) < 2 || !isSetBlock(t, blk, lexer) {
			continue
		}
		pos := t.Node(blk).Pos
		set := t.Add(tree.KindSet, "", pos)
		for _, alt := range t.Children(blk) {
			t.AppendChild(set, t.Child(alt, 0))
		}
		parent := t.Parent(blk)
		if t.Kind(parent).IsEBNF() {
			// An EBNF operator keeps its block; the block now holds a single alternative matching the set.
			alt := t.Add(tree.KindAlt, "", pos)
			t.AppendChild(alt, set)
			t.ReplaceChildren(blk, 0, t.ChildCount(blk), alt)
			continue
		}
		t.Replace(blk, set)
	}
}

func isSetBlock(t *tree.Tree, blk tree.NodeID, lexer bool) bool {
	for _, alt := range t.Children(blk) {
		n := t.Node(alt)
		if len(n.Children) != 1 || len(n.Options) > 0 || n.AltLabel != "" {
			return false
		}
		if !isSetElement(t, n.Children[0], lexer) {
			return false
		}
	}
	return true
}

func isSetElement(t *tree.Tree, id tree.NodeID, lexer bool) bool {
	n := t.Node(id)
	if len(n.Options) > 0 {
		return false
	}
	switch n.Kind {
	case tree.KindTokenRef:
		return true
	case tree.KindStringLiteral:
		// A lexer set matches single characters only.
		return !lexer || literalLen(n.Text) == 1
	case tree.KindRange, tree.KindCharSet:
		return lexer
	}
	return false
}

// literalLen returns the number of characters a quoted literal matches.
func literalLen(lit string) int {
	s, err := UnquoteLiteral(lit)
	if err != nil {
		return -1
	}
	return len([]rune(s))
}
