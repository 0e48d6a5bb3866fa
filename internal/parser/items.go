package parser

import (
	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/token"
)

func (p *Parser) parseItem() (ast.Item, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.KwFunction:
		return p.parseFunction()
	case token.KwType:
		return p.parseTypeItem()
	case token.KwImport:
		return p.parseImport()
	case token.KwExtern:
		return p.parseExtern()
	case token.KwMod:
		return p.parseMod()
	case token.KwGlobal:
		return p.parseGlobal()
	case token.KwUse:
		return p.parseUse()
	default:
		err := p.report(diag.SynExpectItem, tok.Span,
			"expected an item, found '"+describe(tok)+"'")
		return &ast.ErrorItem{
			ItemBase: ast.ItemBase{Span: tok.Span},
			Err:      err,
		}, false
	}
}

// function NAME(p: T, …) [-> T] = EXPR;
func (p *Parser) parseFunction() (ast.Item, bool) {
	kw := p.next()
	name, _, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		return nil, false
	}

	params, ok := p.parseParams()
	if !ok {
		return nil, false
	}

	var ret ast.TypeExpr
	if _, ok := p.eat(token.Arrow); ok {
		ret = p.parseType()
	}

	if _, _, ok := p.expect(token.Assign, diag.SynExpectEquals); !ok {
		return nil, false
	}
	body := p.ParseExpr()
	p.expect(token.Semicolon, diag.SynExpectSemicolon)

	return &ast.FnItem{
		ItemBase: ast.ItemBase{Span: kw.Span.Cover(p.lastSpan), Name: name.Text},
		Params:   params,
		Ret:      ret,
		Body:     body,
	}, true
}

// (name: T, …)
func (p *Parser) parseParams() ([]ast.Param, bool) {
	if _, _, ok := p.expect(token.LParen, diag.SynUnclosedParen); !ok {
		return nil, false
	}
	var params []ast.Param
	for !p.at(token.RParen) {
		name, _, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			return nil, false
		}
		if _, _, ok := p.expect(token.Colon, diag.SynExpectColon); !ok {
			return nil, false
		}
		ty := p.parseType()
		params = append(params, ast.Param{Name: name.Text, Span: name.Span, Type: ty})
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	if _, _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
		return nil, false
	}
	return params, true
}

// type NAME[A, B] = struct { f: T, … };
// type NAME = T;
func (p *Parser) parseTypeItem() (ast.Item, bool) {
	kw := p.next()
	name, _, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		return nil, false
	}

	var generics []string
	if _, ok := p.eat(token.LBracket); ok {
		for !p.at(token.RBracket) {
			g, _, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
			if !ok {
				return nil, false
			}
			generics = append(generics, g.Text)
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
		}
		if _, _, ok := p.expect(token.RBracket, diag.SynUnclosedBracket); !ok {
			return nil, false
		}
	}

	if _, _, ok := p.expect(token.Assign, diag.SynExpectEquals); !ok {
		return nil, false
	}

	item := &ast.TypeItem{
		ItemBase: ast.ItemBase{Name: name.Text},
		Generics: generics,
	}

	if _, ok := p.eat(token.KwStruct); ok {
		def, ok := p.parseStructDef()
		if !ok {
			return nil, false
		}
		item.Struct = def
	} else {
		item.Alias = p.parseType()
	}
	p.expect(token.Semicolon, diag.SynExpectSemicolon)
	item.Span = kw.Span.Cover(p.lastSpan)
	return item, true
}

// { f: T, … }
func (p *Parser) parseStructDef() (*ast.StructDef, bool) {
	if _, _, ok := p.expect(token.LBrace, diag.SynUnclosedBrace); !ok {
		return nil, false
	}
	def := &ast.StructDef{}
	for !p.at(token.RBrace) {
		name, _, ok := p.expect(token.Ident, diag.SynExpectFieldName)
		if !ok {
			return nil, false
		}
		if _, _, ok := p.expect(token.Colon, diag.SynExpectColon); !ok {
			return nil, false
		}
		ty := p.parseType()
		def.Fields = append(def.Fields, ast.FieldDef{Name: name.Text, Span: name.Span, Type: ty})
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	if _, _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace); !ok {
		return nil, false
	}
	return def, true
}

// import ("mod" "func") NAME(p: T, …) [-> T];
func (p *Parser) parseImport() (ast.Item, bool) {
	kw := p.next()
	if _, _, ok := p.expect(token.LParen, diag.SynUnclosedParen); !ok {
		return nil, false
	}
	mod, _, ok := p.expect(token.StringLit, diag.SynExpectString)
	if !ok {
		return nil, false
	}
	fn, _, ok := p.expect(token.StringLit, diag.SynExpectString)
	if !ok {
		return nil, false
	}
	if _, _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
		return nil, false
	}

	name, _, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		return nil, false
	}
	params, ok := p.parseParams()
	if !ok {
		return nil, false
	}
	var ret ast.TypeExpr
	if _, ok := p.eat(token.Arrow); ok {
		ret = p.parseType()
	}
	p.expect(token.Semicolon, diag.SynExpectSemicolon)

	return &ast.ImportItem{
		ItemBase: ast.ItemBase{Span: kw.Span.Cover(p.lastSpan), Name: name.Text},
		Module:   mod.Text,
		Func:     fn.Text,
		Params:   params,
		Ret:      ret,
	}, true
}

// extern mod NAME;
func (p *Parser) parseExtern() (ast.Item, bool) {
	kw := p.next()
	if _, _, ok := p.expect(token.KwMod, diag.SynUnexpectedToken); !ok {
		return nil, false
	}
	name, _, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		return nil, false
	}
	p.expect(token.Semicolon, diag.SynExpectSemicolon)
	return &ast.ExternItem{
		ItemBase: ast.ItemBase{Span: kw.Span.Cover(p.lastSpan), Name: name.Text},
	}, true
}

// mod NAME ( items );  |  mod NAME;   (file-based)
func (p *Parser) parseMod() (ast.Item, bool) {
	kw := p.next()
	name, _, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		return nil, false
	}

	mod := &ast.ModItem{
		ItemBase: ast.ItemBase{Name: name.Text},
	}

	if _, ok := p.eat(token.Semicolon); ok {
		// file-based submodule: the loader fills Items from NAME.wisp
		mod.FromFile = true
		mod.Span = kw.Span.Cover(p.lastSpan)
		return mod, true
	}

	if _, _, ok := p.expect(token.LParen, diag.SynUnclosedParen); !ok {
		return nil, false
	}
	for !p.at(token.RParen) && !p.at(token.EOF) {
		it, ok := p.parseItem()
		if !ok {
			p.resyncTop()
			continue
		}
		mod.Items = append(mod.Items, it)
	}
	if _, _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
		return nil, false
	}
	p.expect(token.Semicolon, diag.SynExpectSemicolon)
	mod.Span = kw.Span.Cover(p.lastSpan)
	return mod, true
}

// global [mut] NAME: T = EXPR;
func (p *Parser) parseGlobal() (ast.Item, bool) {
	kw := p.next()
	_, mut := p.eat(token.KwMut)
	name, _, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		return nil, false
	}
	if _, _, ok := p.expect(token.Colon, diag.SynExpectColon); !ok {
		return nil, false
	}
	ty := p.parseType()
	if _, _, ok := p.expect(token.Assign, diag.SynExpectEquals); !ok {
		return nil, false
	}
	init := p.ParseExpr()
	p.expect(token.Semicolon, diag.SynExpectSemicolon)

	return &ast.GlobalItem{
		ItemBase: ast.ItemBase{Span: kw.Span.Cover(p.lastSpan), Name: name.Text},
		Mut:      mut,
		Type:     ty,
		Init:     init,
	}, true
}

// use a.b.c;
func (p *Parser) parseUse() (ast.Item, bool) {
	kw := p.next()
	var segs []ast.PathSeg
	for {
		seg, _, ok := p.expect(token.Ident, diag.SynExpectPathSegment)
		if !ok {
			return nil, false
		}
		segs = append(segs, ast.PathSeg{Name: seg.Text, Span: seg.Span})
		if _, ok := p.eat(token.Dot); !ok {
			break
		}
	}
	p.expect(token.Semicolon, diag.SynExpectSemicolon)

	// the use item's name is the final segment's name
	return &ast.UseItem{
		ItemBase: ast.ItemBase{Span: kw.Span.Cover(p.lastSpan), Name: segs[len(segs)-1].Name},
		Segments: segs,
	}, true
}
