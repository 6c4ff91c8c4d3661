package action

import (
	"fmt"
	"strings"
)

type ChunkKind int

const (
	ChunkText ChunkKind = iota
	ChunkArgRef
	ChunkRetValueRef
	ChunkLocalRef
	ChunkThisRulePropertyRef
	ChunkRulePropertyRef
	ChunkTokenRef
	ChunkLabelRef
	ChunkListLabelRef
	ChunkQRetValueRef
	ChunkTokenPropertyRef
	ChunkNonLocalAttrRef
	ChunkSetAttr
	ChunkSetNonLocalAttr
)

var chunkKindNames = map[ChunkKind]string{
	ChunkText:                "text",
	ChunkArgRef:              "arg_ref",
	ChunkRetValueRef:         "ret_value_ref",
	ChunkLocalRef:            "local_ref",
	ChunkThisRulePropertyRef: "this_rule_property_ref",
	ChunkRulePropertyRef:     "rule_property_ref",
	ChunkTokenRef:            "token_ref",
	ChunkLabelRef:            "label_ref",
	ChunkListLabelRef:        "list_label_ref",
	ChunkQRetValueRef:        "q_ret_value_ref",
	ChunkTokenPropertyRef:    "token_property_ref",
	ChunkNonLocalAttrRef:     "non_local_attr_ref",
	ChunkSetAttr:             "set_attr",
	ChunkSetNonLocalAttr:     "set_non_local_attr",
}

func (k ChunkKind) String() string {
	if n, ok := chunkKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ChunkKind(%d)", int(k))
}

// Chunk is a piece of a translated action: literal text or a resolved reference. A renderer needs no further
// lookups to emit it.
type Chunk struct {
	Kind ChunkKind `json:"kind"`

	// Ctx is the context the reference reads from: the rule, or the labeled alternative the action is in.
	Ctx string `json:"ctx,omitempty"`

	// Text is the literal text of a text chunk.
	Text string `json:"text,omitempty"`

	// Name is the attribute, list label, or assigned name.
	Name string `json:"name,omitempty"`

	// Label is the label of a referenced token or rule; an unlabeled element is referred to by its own name.
	Label string `json:"label,omitempty"`

	// Prop is a predefined property such as text or start.
	Prop string `json:"prop,omitempty"`

	// Rule and RuleIndex identify the rule of a non-local reference.
	Rule      string `json:"rule,omitempty"`
	RuleIndex int    `json:"rule_index,omitempty"`

	// RHS is the translated right-hand side of an assignment.
	RHS []*Chunk `json:"rhs,omitempty"`
}

// String renders the chunk back in the `$` form it was written in.
func (c *Chunk) String() string {
	switch c.Kind {
	case ChunkText:
		return c.Text
	case ChunkArgRef, ChunkRetValueRef, ChunkLocalRef, ChunkListLabelRef:
		return "$" + c.Name
	case ChunkThisRulePropertyRef:
		return "$" + c.Prop
	case ChunkRulePropertyRef, ChunkTokenPropertyRef:
		return "$" + c.Label + "." + c.Prop
	case ChunkTokenRef, ChunkLabelRef:
		return "$" + c.Label
	case ChunkQRetValueRef:
		return "$" + c.Label + "." + c.Name
	case ChunkNonLocalAttrRef:
		return "$" + c.Rule + "::" + c.Name
	case ChunkSetAttr:
		return "$" + c.Name + " =" + Render(c.RHS) + ";"
	case ChunkSetNonLocalAttr:
		return "$" + c.Rule + "::" + c.Name + " =" + Render(c.RHS) + ";"
	}
	return ""
}

// Render concatenates chunks in their `$` form.
func Render(chunks []*Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.String())
	}
	return b.String()
}
