// Package script implements the bitrealm behavior language: a lexer for its
// token set, a recursive descent parser producing the event-block AST that
// the game interpreter executes, and the error types both report.
package script

import "fmt"

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Literals & identifiers
	ID
	STRING
	NUMBER
	BOOLEAN

	// Keywords
	ON
	IF
	ELSE
	GIVE
	WARP
	EMIT
	WAIT
	SCRIPT
	PLAYER
	NPC
	ITEM

	// Punctuation
	LCURLY    // "{"
	RCURLY    // "}"
	LROUND    // "("
	RROUND    // ")"
	SEMICOLON // ";"
	COMMA     // ","
	PERIOD    // "."

	// Operators
	ASSIGN     // "="
	EQ         // "=="
	NEQ        // "!="
	LESS       // "<"
	LESS_EQ    // "<="
	GREATER    // ">"
	GREATER_EQ // ">="

	// Embedded code captured after the 'script' keyword
	CODE
)

var tokenNames = map[TokenType]string{
	EOF:        "end of input",
	ILLEGAL:    "illegal",
	ID:         "identifier",
	STRING:     "string",
	NUMBER:     "number",
	BOOLEAN:    "boolean",
	ON:         "'on'",
	IF:         "'if'",
	ELSE:       "'else'",
	GIVE:       "'give'",
	WARP:       "'warp'",
	EMIT:       "'emit'",
	WAIT:       "'wait'",
	SCRIPT:     "'script'",
	PLAYER:     "'player'",
	NPC:        "'npc'",
	ITEM:       "'item'",
	LCURLY:     "'{'",
	RCURLY:     "'}'",
	LROUND:     "'('",
	RROUND:     "')'",
	SEMICOLON:  "';'",
	COMMA:      "','",
	PERIOD:     "'.'",
	ASSIGN:     "'='",
	EQ:         "'=='",
	NEQ:        "'!='",
	LESS:       "'<'",
	LESS_EQ:    "'<='",
	GREATER:    "'>'",
	GREATER_EQ: "'>='",
	CODE:       "embedded code",
}

func (tt TokenType) String() string {
	if name, found := tokenNames[tt]; found {
		return name
	}
	return fmt.Sprintf("token(%d)", int(tt))
}

// Token is a lexical token with optional literal value.
type Token struct {
	Type    TokenType
	Lexeme  string // raw text slice
	Literal any    // parsed value for STRING, NUMBER, BOOLEAN and CODE
	Line    int    // 1-based
	Col     int    // 0-based column within line
}

var keywords = map[string]TokenType{
	"on":     ON,
	"if":     IF,
	"else":   ELSE,
	"give":   GIVE,
	"warp":   WARP,
	"emit":   EMIT,
	"wait":   WAIT,
	"script": SCRIPT,
	"player": PLAYER,
	"npc":    NPC,
	"item":   ITEM,
	"true":   BOOLEAN,
	"false":  BOOLEAN,
}
