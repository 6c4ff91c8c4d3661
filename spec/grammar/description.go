package grammar

type Rule struct {
	Index    int          `json:"index"`
	Name     string       `json:"name"`
	Lexer    bool         `json:"lexer,omitempty"`
	Fragment bool         `json:"fragment,omitempty"`
	Mode     string       `json:"mode,omitempty"`
	Args     []*Attribute `json:"args,omitempty"`
	Returns  []*Attribute `json:"returns,omitempty"`
	Locals   []*Attribute `json:"locals,omitempty"`
	Alts     int          `json:"alts"`

	// Start marks a parser rule no other rule refers to.
	Start bool `json:"start,omitempty"`

	LeftRecursion *LeftRecursion `json:"left_recursion,omitempty"`
}

type Attribute struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Init string `json:"init,omitempty"`
}

// LeftRecursion describes a rule rewritten from a left-recursive form. Text is the source of the rewritten rule.
type LeftRecursion struct {
	Alts []*LeftRecursiveAlt `json:"alts"`
	Text string              `json:"text"`
}

type LeftRecursiveAlt struct {
	// Alt is the number of the alternative as written.
	Alt            int    `json:"alt"`
	Kind           string `json:"kind"`
	Precedence     int    `json:"prec"`
	NextPrecedence int    `json:"next_prec,omitempty"`
	Assoc          string `json:"assoc"`
	Label          string `json:"label,omitempty"`
	Text           string `json:"text"`
}
