package parser

type SyntaxError struct {
	message string
}

func newSyntaxError(message string) *SyntaxError {
	return &SyntaxError{
		message: message,
	}
}

func (e *SyntaxError) Error() string {
	return e.message
}

var (
	// lexical errors
	synErrUnclosedString = newSyntaxError("unclosed string literal")
	synErrUnclosedAction = newSyntaxError("unclosed action; a { must be closed by }")
	synErrUnclosedArg    = newSyntaxError("unclosed argument; a [ must be closed by ]")

	// syntax errors
	synErrInvalidToken         = newSyntaxError("invalid token")
	synErrNoGrammarDecl        = newSyntaxError("a grammar must begin with a grammar declaration such as `grammar Name;`")
	synErrNoGrammarName        = newSyntaxError("a grammar name is missing")
	synErrNoSemicolon          = newSyntaxError("the semicolon is missing")
	synErrNoRuleName           = newSyntaxError("a rule name is missing")
	synErrNoColon              = newSyntaxError("the colon must precede alternatives")
	synErrNoOptionName         = newSyntaxError("an option name is missing")
	synErrNoOptionValue        = newSyntaxError("an option value is missing")
	synErrUnclosedOptions      = newSyntaxError("an options block must be closed by }")
	synErrUnclosedIDList       = newSyntaxError("a tokens or channels block must be closed by }")
	synErrNoNamedActionName    = newSyntaxError("a named action needs a name")
	synErrNoNamedActionBody    = newSyntaxError("a named action needs an action block")
	synErrNoReturnsArg         = newSyntaxError("returns must be followed by [...]")
	synErrNoLocalsArg          = newSyntaxError("locals must be followed by [...]")
	synErrNoCatchArg           = newSyntaxError("catch must be followed by [...] and an action")
	synErrNoFinallyAction      = newSyntaxError("finally must be followed by an action")
	synErrUnclosedBlock        = newSyntaxError("a block must be closed by )")
	synErrNoAltLabel           = newSyntaxError("an alternative label is missing after #")
	synErrLabelWithNoElement   = newSyntaxError("a label must be followed by an element")
	synErrNoElement            = newSyntaxError("an element is expected")
	synErrNoRangeEnd           = newSyntaxError("a range needs a string literal after ..")
	synErrInvalidSetElement    = newSyntaxError("a set can contain only token references, string literals, ranges, and character sets")
	synErrUnclosedSet          = newSyntaxError("a set must be closed by )")
	synErrUnclosedElemOptions  = newSyntaxError("element options must be closed by >")
	synErrNoLexerCommand       = newSyntaxError("a lexer command is missing after ->")
	synErrUnclosedCommandArg   = newSyntaxError("a lexer command argument must be closed by )")
	synErrNoModeName           = newSyntaxError("a mode name is missing")
	synErrUnexpectedAfterRules = newSyntaxError("only rules and modes can follow the first rule")
	synErrNotARule             = newSyntaxError("the source is not a single rule")
)
