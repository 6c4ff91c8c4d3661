package driver

import (
	"fmt"
	"io"
	"strings"
)

// Node is a node of a parse tree. A rule node has the rule's name as its kind; a token node has the token's
// display name and its text.
type Node struct {
	KindName string
	Text     string
	Row      int
	Col      int
	Children []*Node
	Terminal bool
}

// String renders the tree in the notation of test cases: (rule (TOKEN 'text') ...).
func (n *Node) String() string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n *Node) {
	b.WriteString("(")
	b.WriteString(n.KindName)
	if n.Terminal {
		b.WriteString(" ")
		b.WriteString(QuoteText(n.Text))
	}
	for _, c := range n.Children {
		b.WriteString(" ")
		writeNode(b, c)
	}
	b.WriteString(")")
}

var textQuoter = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// QuoteText quotes token text the way test cases write it.
func QuoteText(s string) string {
	return "'" + textQuoter.Replace(s) + "'"
}

func PrintTree(w io.Writer, node *Node) {
	printTree(w, node, "", "")
}

func printTree(w io.Writer, node *Node, ruledLine string, childRuledLinePrefix string) {
	if node == nil {
		return
	}

	if node.Terminal {
		fmt.Fprintf(w, "%v%v %#v\n", ruledLine, node.KindName, node.Text)
	} else {
		fmt.Fprintf(w, "%v%v\n", ruledLine, node.KindName)
	}

	num := len(node.Children)
	for i, child := range node.Children {
		var line string
		if num > 1 && i < num-1 {
			line = "├─ "
		} else {
			line = "└─ "
		}

		var prefix string
		if i >= num-1 {
			prefix = "   "
		} else {
			prefix = "│  "
		}

		printTree(w, child, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
	}
}
