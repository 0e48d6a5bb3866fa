package parser

import (
	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/token"
)

// parseType parses a source type:
//
//	NAME[A, B]  |  (T1, T2, …)  |  *T  |  !
func (p *Parser) parseType() ast.TypeExpr {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Ident:
		p.next()
		ty := &ast.IdentType{
			TypeExprBase: ast.TypeExprBase{Span: tok.Span},
			Name:         tok.Text,
		}
		if _, ok := p.eat(token.LBracket); ok {
			for !p.at(token.RBracket) {
				ty.Args = append(ty.Args, p.parseType())
				if _, ok := p.eat(token.Comma); !ok {
					break
				}
			}
			if _, err, ok := p.expect(token.RBracket, diag.SynUnclosedBracket); !ok {
				return &ast.ErrorType{TypeExprBase: ast.TypeExprBase{Span: tok.Span}, Err: err}
			}
			ty.Span = tok.Span.Cover(p.lastSpan)
		}
		return ty

	case token.LParen:
		p.next()
		tuple := &ast.TupleType{TypeExprBase: ast.TypeExprBase{Span: tok.Span}}
		for !p.at(token.RParen) {
			tuple.Elems = append(tuple.Elems, p.parseType())
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
		}
		if _, err, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
			return &ast.ErrorType{TypeExprBase: ast.TypeExprBase{Span: tok.Span}, Err: err}
		}
		tuple.Span = tok.Span.Cover(p.lastSpan)
		return tuple

	case token.Star:
		p.next()
		elem := p.parseType()
		return &ast.RawPtrType{
			TypeExprBase: ast.TypeExprBase{Span: tok.Span.Cover(elem.TypeBase().Span)},
			Elem:         elem,
		}

	case token.Bang:
		p.next()
		return &ast.NeverType{TypeExprBase: ast.TypeExprBase{Span: tok.Span}}

	default:
		err := p.report(diag.SynExpectType, tok.Span,
			"expected type, found '"+describe(tok)+"'")
		return &ast.ErrorType{TypeExprBase: ast.TypeExprBase{Span: tok.Span}, Err: err}
	}
}
