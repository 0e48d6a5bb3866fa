package parser

import (
	"strconv"

	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/token"
)

// binding powers, loosest first
const (
	precNone = iota
	precBit
	precCompare
	precAdd
	precMul
)

func binOpFor(k token.Kind) (ast.BinOp, int, bool) {
	switch k {
	case token.Amp:
		return ast.OpAnd, precBit, true
	case token.Pipe:
		return ast.OpOr, precBit, true
	case token.Lt:
		return ast.OpLt, precCompare, true
	case token.Gt:
		return ast.OpGt, precCompare, true
	case token.LtEq:
		return ast.OpLe, precCompare, true
	case token.GtEq:
		return ast.OpGe, precCompare, true
	case token.EqEq:
		return ast.OpEq, precCompare, true
	case token.BangEq:
		return ast.OpNe, precCompare, true
	case token.Plus:
		return ast.OpAdd, precAdd, true
	case token.Minus:
		return ast.OpSub, precAdd, true
	case token.Star:
		return ast.OpMul, precMul, true
	case token.Slash:
		return ast.OpDiv, precMul, true
	case token.Percent:
		return ast.OpRem, precMul, true
	default:
		return 0, precNone, false
	}
}

// ParseExpr parses one expression and validates precedence-class mixing.
func (p *Parser) ParseExpr() ast.Expr {
	e := p.parseExpr()
	p.validateClasses(e)
	return e
}

func (p *Parser) parseExpr() ast.Expr {
	switch p.lx.Peek().Kind {
	case token.KwLet:
		return p.parseLet()
	case token.KwIf:
		return p.parseIf()
	case token.KwLoop:
		kw := p.next()
		body := p.parseExpr()
		return &ast.LoopExpr{
			ExprBase: ast.ExprBase{Span: kw.Span.Cover(body.Base().Span)},
			Loop:     ast.NoLoopID,
			Body:     body,
		}
	case token.KwBreak:
		kw := p.next()
		return &ast.BreakExpr{
			ExprBase: ast.ExprBase{Span: kw.Span},
			Target:   ast.NoLoopID,
		}
	default:
		return p.parseAssign()
	}
}

// let NAME [: T] = EXPR
func (p *Parser) parseLet() ast.Expr {
	kw := p.next()
	name, err, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		return &ast.ErrorExpr{ExprBase: ast.ExprBase{Span: kw.Span}, Err: err}
	}
	var ascribed ast.TypeExpr
	if _, ok := p.eat(token.Colon); ok {
		ascribed = p.parseType()
	}
	if _, err, ok := p.expect(token.Assign, diag.SynExpectEquals); !ok {
		return &ast.ErrorExpr{ExprBase: ast.ExprBase{Span: kw.Span}, Err: err}
	}
	rhs := p.parseExpr()
	return &ast.LetExpr{
		ExprBase: ast.ExprBase{Span: kw.Span.Cover(rhs.Base().Span)},
		Name:     name.Text,
		NameSpan: name.Span,
		Ascribed: ascribed,
		Rhs:      rhs,
	}
}

// if COND then EXPR [else EXPR]
func (p *Parser) parseIf() ast.Expr {
	kw := p.next()
	cond := p.parseExpr()
	if _, err, ok := p.expect(token.KwThen, diag.SynUnexpectedToken); !ok {
		return &ast.ErrorExpr{ExprBase: ast.ExprBase{Span: kw.Span}, Err: err}
	}
	then := p.parseExpr()
	var els ast.Expr
	if _, ok := p.eat(token.KwElse); ok {
		els = p.parseExpr()
	}
	return &ast.IfExpr{
		ExprBase: ast.ExprBase{Span: kw.Span.Cover(p.lastSpan)},
		Cond:     cond,
		Then:     then,
		Else:     els,
	}
}

// assignment is right-assoc and loosest: lhs = rhs
func (p *Parser) parseAssign() ast.Expr {
	lhs := p.parseBinary(precNone)
	if _, ok := p.eat(token.Assign); !ok {
		return lhs
	}
	rhs := p.parseExpr()
	return &ast.AssignExpr{
		ExprBase: ast.ExprBase{Span: lhs.Base().Span.Cover(rhs.Base().Span)},
		Lhs:      lhs,
		Rhs:      rhs,
	}
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	lhs := p.parseUnary()
	for {
		op, prec, ok := binOpFor(p.lx.Peek().Kind)
		if !ok || prec <= minPrec {
			return lhs
		}
		opTok := p.next()
		rhs := p.parseBinary(prec)
		lhs = &ast.BinaryExpr{
			ExprBase: ast.ExprBase{Span: lhs.Base().Span.Cover(rhs.Base().Span)},
			Op:       op,
			OpSpan:   opTok.Span,
			Lhs:      lhs,
			Rhs:      rhs,
		}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.lx.Peek().Kind {
	case token.Bang:
		tok := p.next()
		operand := p.parseUnary()
		return &ast.UnaryExpr{
			ExprBase: ast.ExprBase{Span: tok.Span.Cover(operand.Base().Span)},
			Op:       ast.UnNot,
			Operand:  operand,
		}
	case token.Minus:
		tok := p.next()
		operand := p.parseUnary()
		return &ast.UnaryExpr{
			ExprBase: ast.ExprBase{Span: tok.Span.Cover(operand.Base().Span)},
			Op:       ast.UnNeg,
			Operand:  operand,
		}
	default:
		return p.parsePostfix()
	}
}

// postfix: calls and field accesses
func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch p.lx.Peek().Kind {
		case token.LParen:
			p.next()
			var args []ast.Expr
			for !p.at(token.RParen) {
				args = append(args, p.parseExpr())
				if _, ok := p.eat(token.Comma); !ok {
					break
				}
			}
			if _, err, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
				return &ast.ErrorExpr{ExprBase: ast.ExprBase{Span: e.Base().Span}, Err: err}
			}
			e = &ast.CallExpr{
				ExprBase: ast.ExprBase{Span: e.Base().Span.Cover(p.lastSpan)},
				Callee:   e,
				Args:     args,
			}
		case token.Dot:
			p.next()
			field, ok := p.parseFieldName()
			if !ok {
				return e
			}
			e = &ast.FieldAccessExpr{
				ExprBase: ast.ExprBase{Span: e.Base().Span.Cover(field.Span)},
				Lhs:      e,
				Field:    field,
				FieldIdx: ast.NoFieldIdx,
			}
		default:
			return e
		}
	}
}

func (p *Parser) parseFieldName() (ast.FieldName, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Ident:
		p.next()
		return ast.FieldName{Name: tok.Text, Span: tok.Span}, true
	case token.IntLit:
		p.next()
		n, _ := strconv.ParseUint(tok.Text, 10, 32)
		return ast.FieldName{Num: uint32(n), IsNum: true, Span: tok.Span}, true
	default:
		p.report(diag.SynExpectFieldName, tok.Span,
			"expected field name, found '"+describe(tok)+"'")
		return ast.FieldName{}, false
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.LParen:
		return p.parseParenExpr()
	case token.IntLit, token.IntI32Lit:
		p.next()
		n, perr := strconv.ParseUint(tok.Text, 10, 64)
		if perr != nil {
			err := p.report(diag.SynExpectExpression, tok.Span, "integer literal out of range")
			return &ast.ErrorExpr{ExprBase: ast.ExprBase{Span: tok.Span}, Err: err}
		}
		lit := ast.LitInt
		if tok.Kind == token.IntI32Lit {
			lit = ast.LitI32
		}
		return &ast.LitExpr{ExprBase: ast.ExprBase{Span: tok.Span}, Lit: lit, Int: n}
	case token.StringLit:
		p.next()
		return &ast.LitExpr{ExprBase: ast.ExprBase{Span: tok.Span}, Lit: ast.LitString, Str: tok.Text}
	case token.Ident:
		p.next()
		if p.at(token.LBrace) {
			return p.parseStructLit(tok)
		}
		return &ast.IdentExpr{ExprBase: ast.ExprBase{Span: tok.Span}, Name: tok.Text}
	default:
		err := p.report(diag.SynExpectExpression, tok.Span,
			"expected expression, found '"+describe(tok)+"'")
		if tok.Kind != token.EOF && tok.Kind != token.Semicolon &&
			tok.Kind != token.RParen && tok.Kind != token.RBrace {
			p.next()
		}
		return &ast.ErrorExpr{ExprBase: ast.ExprBase{Span: tok.Span}, Err: err}
	}
}

// parseParenExpr disambiguates `()` (unit), `( e1; e2 )` (block),
// `(a, b)` / `(x,)` (tuple), and `( e )` (block of one).
func (p *Parser) parseParenExpr() ast.Expr {
	open := p.next()

	if _, ok := p.eat(token.RParen); ok {
		return &ast.EmptyExpr{ExprBase: ast.ExprBase{Span: open.Span.Cover(p.lastSpan)}}
	}

	first := p.parseExpr()

	switch p.lx.Peek().Kind {
	case token.Comma:
		elems := []ast.Expr{first}
		for {
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
			if p.at(token.RParen) {
				break // trailing comma: (x,) is a 1-tuple
			}
			elems = append(elems, p.parseExpr())
		}
		if _, err, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
			return &ast.ErrorExpr{ExprBase: ast.ExprBase{Span: open.Span}, Err: err}
		}
		return &ast.TupleLitExpr{
			ExprBase: ast.ExprBase{Span: open.Span.Cover(p.lastSpan)},
			Elems:    elems,
		}
	default:
		exprs := []ast.Expr{first}
		for {
			if _, ok := p.eat(token.Semicolon); !ok {
				break
			}
			if p.at(token.RParen) {
				break // allow a trailing semicolon
			}
			exprs = append(exprs, p.parseExpr())
		}
		if _, err, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
			return &ast.ErrorExpr{ExprBase: ast.ExprBase{Span: open.Span}, Err: err}
		}
		return &ast.BlockExpr{
			ExprBase: ast.ExprBase{Span: open.Span.Cover(p.lastSpan)},
			Exprs:    exprs,
		}
	}
}

// Name { field: expr, … } — Name was already consumed.
func (p *Parser) parseStructLit(name token.Token) ast.Expr {
	p.next() // {
	var fields []ast.StructLitField
	for !p.at(token.RBrace) {
		fname, _, ok := p.expect(token.Ident, diag.SynExpectFieldName)
		if !ok {
			break
		}
		if _, _, ok := p.expect(token.Colon, diag.SynExpectColon); !ok {
			break
		}
		value := p.parseExpr()
		fields = append(fields, ast.StructLitField{
			Name:     fname.Text,
			Span:     fname.Span,
			Value:    value,
			FieldIdx: ast.NoFieldIdx,
		})
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	if _, err, ok := p.expect(token.RBrace, diag.SynUnclosedBrace); !ok {
		return &ast.ErrorExpr{ExprBase: ast.ExprBase{Span: name.Span}, Err: err}
	}
	return &ast.StructLitExpr{
		ExprBase: ast.ExprBase{Span: name.Span.Cover(p.lastSpan)},
		Name:     name.Text,
		NameSpan: name.Span,
		Fields:   fields,
	}
}
