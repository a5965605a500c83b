package script

import (
	"fmt"

	goccy "github.com/goccy/go-json"

	bitrealm "github.com/virgilvox/bitrealm-sub000"
)

// ParseError reports the first structural mismatch. There is no recovery:
// parsing stops where the error occurred.
type ParseError struct {
	Expected TokenType `json:"-"`
	Found    TokenType `json:"-"`
	Lexeme   string    `json:"lexeme,omitempty"`
	Line     int       `json:"line"`
	Col      int       `json:"col"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: expected %v, found %v", e.Line, e.Col, e.Expected, e.Found)
}

// MarshalJSON produces the structured message relayed to the editor.
func (e *ParseError) MarshalJSON() ([]byte, error) {
	return goccy.Marshal(struct {
		Expected string `json:"expected"`
		Found    string `json:"found"`
		Lexeme   string `json:"lexeme,omitempty"`
		Line     int    `json:"line"`
		Col      int    `json:"col"`
	}{
		Expected: e.Expected.String(),
		Found:    e.Found.String(),
		Lexeme:   e.Lexeme,
		Line:     e.Line,
		Col:      e.Col,
	})
}

// Parse tokenizes and parses source in one step.
func Parse(source string) (*Script, error) {
	tokens, err := NewLexer(source).Scan()
	if err != nil {
		return nil, bitrealm.WithStack(err)
	}
	return NewParser(tokens).Script()
}

// Parser is a single-pass recursive descent parser with one token of
// lookahead.
type Parser struct {
	tokens []Token
	pos    int
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// current returns the lookahead token without consuming it.
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect validates the lookahead against tt and consumes it.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != tt {
		return Token{}, &ParseError{
			Expected: tt,
			Found:    tok.Type,
			Lexeme:   tok.Lexeme,
			Line:     tok.Line,
			Col:      tok.Col,
		}
	}
	return p.advance(), nil
}

func (p *Parser) fail(expected TokenType) error {
	tok := p.current()
	return &ParseError{
		Expected: expected,
		Found:    tok.Type,
		Lexeme:   tok.Lexeme,
		Line:     tok.Line,
		Col:      tok.Col,
	}
}

// Script parses the whole token stream: a sequence of event blocks.
func (p *Parser) Script() (*Script, error) {
	script := &Script{}
	for p.current().Type != EOF {
		block, err := p.eventBlock()
		if err != nil {
			return nil, bitrealm.WithStack(err)
		}
		script.Blocks = append(script.Blocks, block)
	}
	return script, nil
}

// event_block := 'on' IDENTIFIER '{' { statement } '}'
func (p *Parser) eventBlock() (*EventBlock, error) {
	if _, err := p.expect(ON); err != nil {
		return nil, err
	}
	name, err := p.expect(ID)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LCURLY); err != nil {
		return nil, err
	}
	block := &EventBlock{Event: name.Literal.(string)}
	for p.current().Type != RCURLY {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}
	if _, err := p.expect(RCURLY); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) statement() (Stmt, error) {
	switch p.current().Type {
	case IF:
		return p.ifStmt()
	case GIVE:
		return p.giveStmt()
	case WARP:
		return p.warpStmt()
	case EMIT:
		return p.emitStmt()
	case WAIT:
		return p.waitStmt()
	case SCRIPT:
		return p.scriptBlock()
	case ID:
		return p.assignment()
	default:
		return nil, p.fail(ID)
	}
}

// assignment := IDENTIFIER '=' expression ';'
func (p *Parser) assignment() (Stmt, error) {
	nameTok, err := p.expect(ID)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	// '$counter = 1' and 'counter = 1' name the same variable, matching
	// how '$counter' reads on the right-hand side.
	name := nameTok.Literal.(string)
	if len(name) > 1 && name[0] == '$' {
		name = name[1:]
	}
	return &Assign{Name: name, Value: value}, nil
}

// if_stmt := 'if' '(' condition ')' '{' {statement} '}' [ 'else' '{' {statement} '}' ]
func (p *Parser) ifStmt() (Stmt, error) {
	if _, err := p.expect(IF); err != nil {
		return nil, err
	}
	if _, err := p.expect(LROUND); err != nil {
		return nil, err
	}
	cond, err := p.condition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RROUND); err != nil {
		return nil, err
	}
	then, err := p.statementBlock()
	if err != nil {
		return nil, err
	}
	result := &If{Cond: cond, Then: then}
	if p.current().Type == ELSE {
		p.advance()
		if result.Else, err = p.statementBlock(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (p *Parser) statementBlock() ([]Stmt, error) {
	if _, err := p.expect(LCURLY); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for p.current().Type != RCURLY {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(RCURLY); err != nil {
		return nil, err
	}
	return stmts, nil
}

// give := 'give' player_ref expression expression ';'
func (p *Parser) giveStmt() (Stmt, error) {
	if _, err := p.expect(GIVE); err != nil {
		return nil, err
	}
	target, err := p.playerRef()
	if err != nil {
		return nil, err
	}
	item, err := p.expression()
	if err != nil {
		return nil, err
	}
	qty, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &Give{Target: target, Item: item, Qty: qty}, nil
}

// warp := 'warp' player_ref expression expression expression ';'
func (p *Parser) warpStmt() (Stmt, error) {
	if _, err := p.expect(WARP); err != nil {
		return nil, err
	}
	target, err := p.playerRef()
	if err != nil {
		return nil, err
	}
	mapID, err := p.expression()
	if err != nil {
		return nil, err
	}
	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	y, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &Warp{Target: target, Map: mapID, X: x, Y: y}, nil
}

// emit := 'emit' expression ',' expression ';'
func (p *Parser) emitStmt() (Stmt, error) {
	if _, err := p.expect(EMIT); err != nil {
		return nil, err
	}
	channel, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA); err != nil {
		return nil, err
	}
	message, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &Emit{Channel: channel, Message: message}, nil
}

// wait := 'wait' expression ';'
func (p *Parser) waitStmt() (Stmt, error) {
	if _, err := p.expect(WAIT); err != nil {
		return nil, err
	}
	duration, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &Wait{Duration: duration}, nil
}

// script_block := 'script' CODE
//
// The CODE token carries the balanced-brace body verbatim; the content is
// handed whole to the sandbox and never enters this grammar.
func (p *Parser) scriptBlock() (Stmt, error) {
	if _, err := p.expect(SCRIPT); err != nil {
		return nil, err
	}
	code, err := p.expect(CODE)
	if err != nil {
		return nil, err
	}
	return &Embedded{Source: code.Literal.(string)}, nil
}

// condition := expression comparison_op expression
func (p *Parser) condition() (*Condition, error) {
	left, err := p.expression()
	if err != nil {
		return nil, err
	}
	op := p.current()
	switch op.Type {
	case EQ, NEQ, LESS, LESS_EQ, GREATER, GREATER_EQ:
		p.advance()
	default:
		return nil, p.fail(EQ)
	}
	right, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &Condition{Left: left, Op: op.Type, Right: right}, nil
}

// player_ref := 'player' | IDENTIFIER
func (p *Parser) playerRef() (Expr, error) {
	switch tok := p.current(); tok.Type {
	case PLAYER:
		p.advance()
		return &PathRef{Parts: []string{"player"}}, nil
	case ID:
		p.advance()
		return &PathRef{Parts: []string{tok.Literal.(string)}}, nil
	default:
		return nil, p.fail(PLAYER)
	}
}

// expression := STRING | NUMBER | BOOL | IDENTIFIER {'.' IDENTIFIER}
func (p *Parser) expression() (Expr, error) {
	switch tok := p.current(); tok.Type {
	case STRING:
		p.advance()
		return &StringLit{Value: tok.Literal.(string)}, nil
	case NUMBER:
		p.advance()
		return &NumberLit{Value: tok.Literal.(float64)}, nil
	case BOOLEAN:
		p.advance()
		return &BoolLit{Value: tok.Literal.(bool)}, nil
	case PLAYER, NPC, ITEM:
		// Context entities read naturally in dotted paths: player.level.
		p.advance()
		return p.pathRest(tok.Lexeme)
	case ID:
		p.advance()
		name := tok.Literal.(string)
		if len(name) > 1 && name[0] == '$' {
			return &VarRef{Name: name[1:]}, nil
		}
		return p.pathRest(name)
	default:
		return nil, p.fail(ID)
	}
}

func (p *Parser) pathRest(first string) (Expr, error) {
	parts := []string{first}
	for p.current().Type == PERIOD {
		p.advance()
		switch next := p.current(); next.Type {
		case ID:
			p.advance()
			parts = append(parts, next.Literal.(string))
		case PLAYER, NPC, ITEM:
			// Keywords double as property names after a dot.
			p.advance()
			parts = append(parts, next.Lexeme)
		default:
			return nil, p.fail(ID)
		}
	}
	return &PathRef{Parts: parts}, nil
}
