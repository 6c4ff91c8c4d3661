// Package grammar describes a resolved grammar in the form the compile command writes it in.
package grammar

import "github.com/nihei9/argot/action"

type ResolvedGrammar struct {
	Name    string            `json:"name"`
	Type    string            `json:"type"`
	Options map[string]string `json:"options,omitempty"`

	// Tokens lists the token names; Literals lists the quoted string literals. A literal aliasing a token
	// shares its type.
	Tokens   []*Token   `json:"tokens"`
	Literals []*Token   `json:"literals"`
	Channels []*Channel `json:"channels,omitempty"`
	Modes    []string   `json:"modes,omitempty"`

	Rules   []*Rule   `json:"rules"`
	Actions []*Action `json:"actions"`
}

type Token struct {
	Name string `json:"name"`
	Type int    `json:"type"`
}

type Channel struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Action is an action, a predicate, or an exception handler with its translation.
type Action struct {
	Kind string `json:"kind"`

	// Rule is empty for a global named action.
	Rule  string `json:"rule,omitempty"`
	Scope string `json:"scope,omitempty"`
	Name  string `json:"name,omitempty"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Text  string `json:"text"`

	Chunks []*action.Chunk `json:"chunks"`
}
