package parser

import (
	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/lexer"
	"wisp/internal/source"
	"wisp/internal/token"
)

// Parser holds the state for parsing one source file.
type Parser struct {
	lx       *lexer.Lexer
	reporter diag.Reporter
	lastSpan source.Span
	fatal    bool
}

// New wires a parser to a token stream.
func New(lx *lexer.Lexer, reporter diag.Reporter) *Parser {
	return &Parser{
		lx:       lx,
		reporter: reporter,
	}
}

// ParseFile parses a whole file into an item list. fatal reports whether
// parsing was aborted before EOF.
func ParseFile(file *source.File, reporter diag.Reporter) (items []ast.Item, fatal bool) {
	p := New(lexer.New(file, reporter), reporter)
	items = p.ParseItems()
	return items, p.fatal
}

// ParseItems is the top-level loop: items until EOF.
func (p *Parser) ParseItems() []ast.Item {
	var items []ast.Item
	for !p.at(token.EOF) && !p.fatal {
		it, ok := p.parseItem()
		if it != nil {
			// error sentinels stay in the tree
			items = append(items, it)
		}
		if !ok {
			p.resyncTop()
		}
	}
	return items
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) next() token.Token {
	tok := p.lx.Next()
	p.lastSpan = tok.Span
	return tok
}

// eat consumes the next token when it matches k.
func (p *Parser) eat(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.next(), true
	}
	return token.Token{}, false
}

// expect consumes a token of kind k or reports code at the current token.
func (p *Parser) expect(k token.Kind, code diag.Code) (token.Token, diag.Emitted, bool) {
	if tok, ok := p.eat(k); ok {
		return tok, diag.Emitted{}, true
	}
	got := p.lx.Peek()
	if got.Kind == token.EOF {
		// nothing left to recover with; give up on this file
		p.fatal = true
	}
	msg := "expected '" + k.String() + "', found '" + describe(got) + "'"
	err := p.report(code, got.Span, msg)
	return token.Token{}, err, false
}

func (p *Parser) report(code diag.Code, span source.Span, msg string) diag.Emitted {
	return diag.ReportError(p.reporter, code, span, msg).Emit()
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Ident, token.IntLit, token.IntI32Lit:
		return tok.Text
	case token.StringLit:
		return "string literal"
	default:
		return tok.Kind.String()
	}
}

// resyncTop skips ahead to the next plausible item start after an error.
func (p *Parser) resyncTop() {
	for {
		switch p.lx.Peek().Kind {
		case token.EOF:
			return
		case token.Semicolon:
			p.next()
			return
		case token.KwFunction, token.KwType, token.KwImport, token.KwExtern,
			token.KwMod, token.KwGlobal, token.KwUse:
			return
		default:
			p.next()
		}
	}
}
