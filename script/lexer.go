package script

import (
	"fmt"
	"strconv"

	goccy "github.com/goccy/go-json"
)

// LexError reports an unrecognized character. Lexing is all-or-nothing: the
// first bad character aborts the whole scan.
type LexError struct {
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Char string `json:"char"`
	Msg  string `json:"msg"`
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// MarshalJSON is used to relay load-time errors back to the editor.
func (e *LexError) MarshalJSON() ([]byte, error) {
	type wire LexError
	return goccy.Marshal((*wire)(e))
}

// Lexer scans behavior script source into tokens.
type Lexer struct {
	src    string
	start  int // start index of current token
	cur    int // current index
	line   int // 1-based
	col    int // 0-based column within line
	tokens []Token

	tokStartLine int
	tokStartCol  int
}

func NewLexer(src string) *Lexer {
	return &Lexer{
		src:  src,
		line: 1,
	}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) addToken(tt TokenType, lit any) Token {
	tok := Token{
		Type:    tt,
		Lexeme:  l.src[l.start:l.cur],
		Literal: lit,
		Line:    l.tokStartLine,
		Col:     l.tokStartCol,
	}
	l.tokens = append(l.tokens, tok)
	l.start = l.cur
	return tok
}

func (l *Lexer) previousToken() *Token {
	if len(l.tokens) == 0 {
		return nil
	}
	return &l.tokens[len(l.tokens)-1]
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' || b == '$'
}
func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '_'
}

func (l *Lexer) err(char byte, msg string) error {
	return &LexError{Line: l.line, Col: l.col, Char: string(char), Msg: msg}
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for !l.isAtEnd() {
		ch, _ := l.peek()
		switch {
		case ch == ' ' || ch == '\r' || ch == '\n' || ch == '\t':
			l.advance()
		case ch == '/':
			next, ok := l.peekN(1)
			if !ok {
				return nil
			}
			switch next {
			case '/':
				for {
					b, ok := l.peek()
					if !ok || b == '\n' {
						break
					}
					l.advance()
				}
			case '*':
				l.advance()
				l.advance()
				closed := false
				for !l.isAtEnd() {
					b, _ := l.advance()
					if b == '*' {
						if b2, ok := l.peek(); ok && b2 == '/' {
							l.advance()
							closed = true
							break
						}
					}
				}
				if !closed {
					return l.err('*', "block comment was not terminated")
				}
			default:
				return nil
			}
		default:
			return nil
		}
		l.start = l.cur
	}
	return nil
}

// scanString parses a quoted string literal. The caller has consumed the
// opening quote.
func (l *Lexer) scanString(del byte) (string, error) {
	var out []byte
	for !l.isAtEnd() {
		ch, _ := l.advance()
		if ch == del {
			return string(out), nil
		}
		if ch == '\\' {
			esc, ok := l.advance()
			if !ok {
				return "", l.err('\\', "unfinished escape sequence")
			}
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '\\':
				out = append(out, '\\')
			case '"':
				out = append(out, '"')
			case '\'':
				out = append(out, '\'')
			default:
				return "", l.err(esc, fmt.Sprintf("invalid escape sequence: \\%c", esc))
			}
			continue
		}
		out = append(out, ch)
	}
	return "", l.err(del, "string was not terminated")
}

// scanNumber parses digits with at most one decimal point. No exponents, no
// hex.
func (l *Lexer) scanNumber() (float64, error) {
	for {
		b, ok := l.peek()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
	}
	if b, ok := l.peek(); ok && b == '.' {
		if b2, ok2 := l.peekN(1); ok2 && isDigit(b2) {
			l.advance()
			for {
				b, ok := l.peek()
				if !ok || !isDigit(b) {
					break
				}
				l.advance()
			}
		}
	}
	lex := l.src[l.start:l.cur]
	v, err := strconv.ParseFloat(lex, 64)
	if err != nil {
		return 0, l.err(lex[0], "invalid number literal")
	}
	return v, nil
}

func (l *Lexer) scanIdentifier() string {
	for {
		b, ok := l.peek()
		if !ok || !isAlphaNum(b) {
			break
		}
		l.advance()
	}
	return l.src[l.start:l.cur]
}

// scanCode captures the balanced-brace region following the 'script' keyword
// verbatim. The content is host code, not expressible in this token set, so
// it is cut straight out of the raw source. The caller has consumed the
// opening brace.
func (l *Lexer) scanCode() (string, error) {
	depth := 1
	bodyStart := l.cur
	for !l.isAtEnd() {
		ch, _ := l.advance()
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return l.src[bodyStart : l.cur-1], nil
			}
		case '"', '\'':
			// Strings inside the embedded code may contain braces.
			for !l.isAtEnd() {
				b, _ := l.advance()
				if b == '\\' {
					l.advance()
					continue
				}
				if b == ch {
					break
				}
			}
		case '/':
			// So may comments.
			if next, ok := l.peek(); ok && next == '/' {
				for !l.isAtEnd() {
					b, _ := l.advance()
					if b == '\n' {
						break
					}
				}
			} else if ok && next == '*' {
				l.advance()
				for !l.isAtEnd() {
					b, _ := l.advance()
					if b == '*' {
						if after, ok := l.peek(); ok && after == '/' {
							l.advance()
							break
						}
					}
				}
			}
		}
	}
	return "", l.err('{', "embedded code block was not terminated")
}

// afterScriptKeyword reports whether the token just produced was the 'script'
// keyword, meaning a '{' opens an embedded code capture rather than an
// ordinary block.
func (l *Lexer) afterScriptKeyword() bool {
	p := l.previousToken()
	return p != nil && p.Type == SCRIPT
}

func (l *Lexer) scanToken() (Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return Token{}, err
	}
	l.tokStartLine = l.line
	l.tokStartCol = l.col
	l.start = l.cur

	if l.isAtEnd() {
		return l.addToken(EOF, nil), nil
	}

	ch, _ := l.advance()

	switch ch {
	case '{':
		if l.afterScriptKeyword() {
			body, err := l.scanCode()
			if err != nil {
				return Token{}, err
			}
			return l.addToken(CODE, body), nil
		}
		return l.addToken(LCURLY, nil), nil
	case '}':
		return l.addToken(RCURLY, nil), nil
	case '(':
		return l.addToken(LROUND, nil), nil
	case ')':
		return l.addToken(RROUND, nil), nil
	case ';':
		return l.addToken(SEMICOLON, nil), nil
	case ',':
		return l.addToken(COMMA, nil), nil
	case '.':
		return l.addToken(PERIOD, nil), nil
	case '=':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(EQ, nil), nil
		}
		return l.addToken(ASSIGN, nil), nil
	case '!':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(NEQ, nil), nil
		}
		return Token{}, l.err(ch, "unexpected character: '!'")
	case '<':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(LESS_EQ, nil), nil
		}
		return l.addToken(LESS, nil), nil
	case '>':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(GREATER_EQ, nil), nil
		}
		return l.addToken(GREATER, nil), nil
	}

	if ch == '"' || ch == '\'' {
		text, err := l.scanString(ch)
		if err != nil {
			return Token{}, err
		}
		return l.addToken(STRING, text), nil
	}

	if isDigit(ch) {
		v, err := l.scanNumber()
		if err != nil {
			return Token{}, err
		}
		return l.addToken(NUMBER, v), nil
	}

	if isAlpha(ch) {
		lex := l.scanIdentifier()
		if tt, found := keywords[lex]; found {
			if tt == BOOLEAN {
				return l.addToken(BOOLEAN, lex == "true"), nil
			}
			return l.addToken(tt, nil), nil
		}
		return l.addToken(ID, lex), nil
	}

	return Token{}, l.err(ch, fmt.Sprintf("unexpected character: %q", ch))
}

// Scan tokenizes the entire source and returns tokens, EOF included.
func (l *Lexer) Scan() ([]Token, error) {
	for {
		tok, err := l.scanToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == EOF {
			return l.tokens, nil
		}
	}
}
