package error

import (
	"fmt"
	"strings"
)

type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	}
	return "unknown"
}

// Kind is an entry of the diagnostics catalog. A Kind is used as the Cause of a SpecError, so callers can test
// for a specific diagnostic with errors.Is.
type Kind struct {
	Code     int
	Name     string
	Severity Severity
	template string
}

func newKind(code int, name string, sev Severity, template string) *Kind {
	return &Kind{
		Code:     code,
		Name:     name,
		Severity: sev,
		template: template,
	}
}

func (k *Kind) Error() string {
	return strings.ToLower(strings.ReplaceAll(k.Name, "_", " "))
}

// Format expands the <arg>, <arg2> and <arg3> placeholders of the message template.
func (k *Kind) Format(args ...interface{}) string {
	msg := k.template
	for i, placeholder := range []string{"<arg>", "<arg2>", "<arg3>"} {
		v := ""
		if i < len(args) && args[i] != nil {
			v = fmt.Sprint(args[i])
		}
		msg = strings.ReplaceAll(msg, placeholder, v)
	}
	return msg
}

var (
	// tool errors
	ErrCannotOpenFile             = newKind(7, "CANNOT_OPEN_FILE", SeverityError, "cannot find or open file: <arg>")
	ErrBadOptionSetSyntax         = newKind(9, "BAD_OPTION_SET_SYNTAX", SeverityError, "invalid -Dname=value syntax: <arg>")
	ErrWarningTreatedAsError      = newKind(10, "WARNING_TREATED_AS_ERROR", SeverityError, "warning treated as error")
	ErrInternal                   = newKind(20, "INTERNAL_ERROR", SeverityFatal, "internal error: <arg> <arg2>")
	ErrTokensFileSyntax           = newKind(21, "TOKENS_FILE_SYNTAX_ERROR", SeverityError, ".tokens file syntax error <arg>:<arg2>")
	ErrCannotFindTokensFileInGram = newKind(114, "CANNOT_FIND_TOKENS_FILE_REFD_IN_GRAMMAR", SeverityError, "cannot find tokens file <arg>")

	// structural errors
	ErrSyntax                         = newKind(50, "SYNTAX_ERROR", SeverityError, "syntax error: <arg>")
	ErrRuleRedefinition               = newKind(51, "RULE_REDEFINITION", SeverityError, "rule <arg> redefinition; previous at line <arg2>")
	ErrLexerRulesNotAllowed           = newKind(52, "LEXER_RULES_NOT_ALLOWED", SeverityError, "lexer rule <arg> not allowed in parser")
	ErrParserRulesNotAllowed          = newKind(53, "PARSER_RULES_NOT_ALLOWED", SeverityError, "parser rule <arg> not allowed in lexer")
	ErrRepeatedPrequel                = newKind(54, "REPEATED_PREQUEL", SeverityError, "repeated grammar prequel spec (options, tokens, or import); please merge")
	ErrInvalidRuleModifier            = newKind(55, "INVALID_RULE_MODIFIER", SeverityError, "modifier <arg> is not allowed on rule <arg2>")
	ErrTokenNamesMustStartUpper       = newKind(60, "TOKEN_NAMES_MUST_START_UPPER", SeverityError, "token names must start with an uppercase letter: <arg>")
	ErrIllegalOption                  = newKind(83, "ILLEGAL_OPTION", SeverityWarning, "unsupported option <arg>")
	ErrIllegalOptionValue             = newKind(84, "ILLEGAL_OPTION_VALUE", SeverityWarning, "unsupported option value <arg>=<arg2>")
	ErrNoRules                        = newKind(99, "NO_RULES", SeverityError, "grammar <arg> has no rules")
	ErrModeNotInLexer                 = newKind(120, "MODE_NOT_IN_LEXER", SeverityError, "lexical modes are only allowed in lexer grammars")
	ErrRuleWithTooFewAltLabels        = newKind(122, "RULE_WITH_TOO_FEW_ALT_LABELS", SeverityError, "rule <arg>: must label all alternatives or none")
	ErrAltLabelRedef                  = newKind(123, "ALT_LABEL_REDEF", SeverityError, "rule alt label <arg> redefined in rule <arg2>, originally in rule <arg3>")
	ErrAltLabelConflictsWithRule      = newKind(124, "ALT_LABEL_CONFLICTS_WITH_RULE", SeverityError, "rule alt label <arg> conflicts with rule <arg2>")
	ErrLabelBlockNotASet              = newKind(130, "LABEL_BLOCK_NOT_A_SET", SeverityError, "label <arg> assigned to a block which is not a set")
	ErrLexerCommandPlacementIssue     = newKind(133, "LEXER_COMMAND_PLACEMENT_ISSUE", SeverityError, "->command in lexer rule <arg> must be last element of single outermost alt")
	ErrModeWithoutRules               = newKind(145, "MODE_WITHOUT_RULES", SeverityError, "lexer mode <arg> must contain at least one non-fragment rule")
	ErrInvalidLexerCommand            = newKind(149, "INVALID_LEXER_COMMAND", SeverityError, "lexer command <arg> does not exist or is not supported by the current target")
	ErrMissingLexerCommandArgument    = newKind(150, "MISSING_LEXER_COMMAND_ARGUMENT", SeverityError, "missing argument for lexer command <arg>")
	ErrUnwantedLexerCommandArgument   = newKind(151, "UNWANTED_LEXER_COMMAND_ARGUMENT", SeverityError, "lexer command <arg> does not take any arguments")
	ErrUnrecognizedAssocOption        = newKind(157, "UNRECOGNIZED_ASSOC_OPTION", SeverityWarning, "rule <arg> contains an assoc terminal option in an unrecognized location")
	ErrFragmentActionIgnored          = newKind(158, "FRAGMENT_ACTION_IGNORED", SeverityWarning, "fragment rule <arg> contains an action or command which can never be executed")
	ErrParserRuleRefInLexerRule       = newKind(160, "PARSER_RULE_REF_IN_LEXER_RULE", SeverityError, "reference to parser rule <arg> in lexer rule <arg2>")
	ErrChannelsBlockInParserGrammar   = newKind(163, "CHANNELS_BLOCK_IN_PARSER_GRAMMAR", SeverityError, "custom channels are not supported in parser grammars")
	ErrChannelsBlockInCombinedGrammar = newKind(164, "CHANNELS_BLOCK_IN_COMBINED_GRAMMAR", SeverityError, "custom channels are not supported in combined grammars")
	ErrEmptyStringsAndSetsNotAllowed  = newKind(174, "EMPTY_STRINGS_AND_SETS_NOT_ALLOWED", SeverityError, "string literals and sets cannot be empty: <arg>")

	// rewrite errors
	ErrNoNonLRAlts        = newKind(147, "NO_NON_LR_ALTS", SeverityError, "left recursive rule <arg> must contain an alternative which is not left recursive")
	ErrNonconformingLRule = newKind(169, "NONCONFORMING_LR_RULE", SeverityError, "rule <arg> is left recursive but doesn't conform to a pattern that can be rewritten")

	// symbolic errors
	ErrUndefinedRuleRef                     = newKind(56, "UNDEFINED_RULE_REF", SeverityError, "reference to undefined rule: <arg>")
	ErrLabelConflictsWithRule               = newKind(69, "LABEL_CONFLICTS_WITH_RULE", SeverityError, "label <arg> conflicts with rule with same name")
	ErrLabelConflictsWithToken              = newKind(70, "LABEL_CONFLICTS_WITH_TOKEN", SeverityError, "label <arg> conflicts with token with same name")
	ErrLabelConflictsWithArg                = newKind(72, "LABEL_CONFLICTS_WITH_ARG", SeverityError, "label <arg> conflicts with parameter with same name")
	ErrLabelConflictsWithRetval             = newKind(73, "LABEL_CONFLICTS_WITH_RETVAL", SeverityError, "label <arg> conflicts with return value with same name")
	ErrLabelConflictsWithLocal              = newKind(74, "LABEL_CONFLICTS_WITH_LOCAL", SeverityError, "label <arg> conflicts with local with same name")
	ErrLabelTypeConflict                    = newKind(75, "LABEL_TYPE_CONFLICT", SeverityError, "label <arg> type mismatch with previous definition: <arg2>")
	ErrRetvalConflictsWithArg               = newKind(76, "RETVAL_CONFLICTS_WITH_ARG", SeverityError, "return value <arg> conflicts with parameter with same name")
	ErrMissingRuleArgs                      = newKind(79, "MISSING_RULE_ARGS", SeverityError, "missing argument(s) on rule reference: <arg>")
	ErrRuleHasNoArgs                        = newKind(80, "RULE_HAS_NO_ARGS", SeverityError, "rule <arg> has no defined parameters")
	ErrRuleArgCountMismatch                 = newKind(81, "RULE_ARG_COUNT_MISMATCH", SeverityError, "rule <arg> expects <arg2> argument(s) but <arg3> given")
	ErrActionRedefinition                   = newKind(94, "ACTION_REDEFINITION", SeverityError, "redefinition of <arg> action")
	ErrTokenNameReassignment                = newKind(108, "TOKEN_NAME_REASSIGNMENT", SeverityWarning, "token name <arg> is already defined")
	ErrImplicitTokenDefinition              = newKind(125, "IMPLICIT_TOKEN_DEFINITION", SeverityWarning, "implicit definition of token <arg> in parser")
	ErrImplicitStringDefinition             = newKind(126, "IMPLICIT_STRING_DEFINITION", SeverityError, "cannot create implicit token for string literal in non-combined grammar: <arg>")
	ErrRetvalConflictsWithRule              = newKind(136, "RETVAL_CONFLICTS_WITH_RULE", SeverityError, "return value <arg> conflicts with rule with same name")
	ErrRetvalConflictsWithToken             = newKind(137, "RETVAL_CONFLICTS_WITH_TOKEN", SeverityError, "return value <arg> conflicts with token with same name")
	ErrArgConflictsWithRule                 = newKind(138, "ARG_CONFLICTS_WITH_RULE", SeverityError, "parameter <arg> conflicts with rule with same name")
	ErrArgConflictsWithToken                = newKind(139, "ARG_CONFLICTS_WITH_TOKEN", SeverityError, "parameter <arg> conflicts with token with same name")
	ErrLocalConflictsWithRule               = newKind(140, "LOCAL_CONFLICTS_WITH_RULE", SeverityError, "local <arg> conflicts with rule with same name")
	ErrLocalConflictsWithToken              = newKind(141, "LOCAL_CONFLICTS_WITH_TOKEN", SeverityError, "local <arg> conflicts with token with same name")
	ErrLocalConflictsWithArg                = newKind(142, "LOCAL_CONFLICTS_WITH_ARG", SeverityError, "local <arg> conflicts with parameter with same name")
	ErrLocalConflictsWithRetval             = newKind(143, "LOCAL_CONFLICTS_WITH_RETVAL", SeverityError, "local <arg> conflicts with return value with same name")
	ErrReservedRuleName                     = newKind(159, "RESERVED_RULE_NAME", SeverityError, "cannot declare a rule with reserved name <arg>")
	ErrChannelConflictsWithToken            = newKind(161, "CHANNEL_CONFLICTS_WITH_TOKEN", SeverityError, "channel <arg> conflicts with token with same name")
	ErrChannelConflictsWithMode             = newKind(162, "CHANNEL_CONFLICTS_WITH_MODE", SeverityError, "channel <arg> conflicts with mode with same name")
	ErrModeConflictsWithToken               = newKind(170, "MODE_CONFLICTS_WITH_TOKEN", SeverityError, "mode <arg> conflicts with token with same name")
	ErrTokenConflictsWithCommonConstants    = newKind(171, "TOKEN_CONFLICTS_WITH_COMMON_CONSTANTS", SeverityError, "cannot use or declare token with reserved name <arg>")
	ErrChannelConflictsWithCommonConstants  = newKind(172, "CHANNEL_CONFLICTS_WITH_COMMON_CONSTANTS", SeverityError, "cannot use or declare channel with reserved name <arg>")
	ErrModeConflictsWithCommonConstants     = newKind(173, "MODE_CONFLICTS_WITH_COMMON_CONSTANTS", SeverityError, "cannot use or declare mode with reserved name <arg>")
	ErrConstantValueIsNotARecognizedToken   = newKind(175, "CONSTANT_VALUE_IS_NOT_A_RECOGNIZED_TOKEN_NAME", SeverityError, "<arg> is not a recognized token name")
	ErrConstantValueIsNotARecognizedMode    = newKind(176, "CONSTANT_VALUE_IS_NOT_A_RECOGNIZED_MODE_NAME", SeverityError, "<arg> is not a recognized mode name")
	ErrConstantValueIsNotARecognizedChannel = newKind(177, "CONSTANT_VALUE_IS_NOT_A_RECOGNIZED_CHANNEL_NAME", SeverityError, "<arg> is not a recognized channel name")
	ErrTokenUnreachable                     = newKind(184, "TOKEN_UNREACHABLE", SeverityWarning, "One of the token <arg> values unreachable. <arg2> is always overlapped by token <arg3>")

	// attribute-resolution errors
	ErrUndefinedRuleInNonlocalRef    = newKind(57, "UNDEFINED_RULE_IN_NONLOCAL_REF", SeverityError, "reference to undefined rule <arg> in non-local ref <arg3>")
	ErrUnknownSimpleAttribute        = newKind(63, "UNKNOWN_SIMPLE_ATTRIBUTE", SeverityError, "unknown attribute reference <arg> in <arg2>")
	ErrInvalidRuleParameterRef       = newKind(64, "INVALID_RULE_PARAMETER_REF", SeverityError, "parameter <arg> of rule <arg2> is not accessible in this scope: <arg3>")
	ErrUnknownRuleAttribute          = newKind(65, "UNKNOWN_RULE_ATTRIBUTE", SeverityError, "unknown attribute <arg> for rule <arg2> in <arg3>")
	ErrUnknownAttributeInScope       = newKind(66, "UNKNOWN_ATTRIBUTE_IN_SCOPE", SeverityError, "attribute <arg> isn't a valid property in <arg2>")
	ErrIsolatedRuleRef               = newKind(67, "ISOLATED_RULE_REF", SeverityError, "missing attribute access on rule reference <arg> in <arg2>")
	ErrCannotFindAttributeNameInDecl = newKind(121, "CANNOT_FIND_ATTRIBUTE_NAME_IN_DECL", SeverityError, "cannot find an attribute name in attribute declaration")
	ErrAttributeInLexerAction        = newKind(128, "ATTRIBUTE_IN_LEXER_ACTION", SeverityError, "attribute references not allowed in lexer actions: $<arg>")
	ErrAssignmentToListLabel         = newKind(135, "ASSIGNMENT_TO_LIST_LABEL", SeverityError, "cannot assign a value to list label <arg>")
)
