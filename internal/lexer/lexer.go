package lexer

import (
	"strings"

	"wisp/internal/diag"
	"wisp/internal/source"
	"wisp/internal/token"
)

// Lexer turns a source file into a token stream.
type Lexer struct {
	file     *source.File
	cursor   Cursor
	reporter diag.Reporter
	look     *token.Token
}

func New(file *source.File, reporter diag.Reporter) *Lexer {
	return &Lexer{
		file:     file,
		cursor:   NewCursor(file),
		reporter: reporter,
	}
}

// Tokenize drains the lexer into a slice ending with the EOF token.
func Tokenize(file *source.File, reporter diag.Reporter) []token.Token {
	lx := New(file, reporter)
	var out []token.Token
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

// Next returns the next significant token. After EOF it always returns EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.skipTrivia()

	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.emptySpan()}
	}

	ch := lx.cursor.Peek()
	switch {
	case isIdentStart(ch):
		return lx.scanIdentOrKeyword()
	case isDec(ch):
		return lx.scanNumber()
	case ch == '"':
		return lx.scanString()
	default:
		return lx.scanOperatorOrPunct()
	}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

// skipTrivia consumes whitespace and // line comments.
func (lx *Lexer) skipTrivia() {
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			lx.cursor.Bump()
		case ch == '/':
			if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '/' && b1 == '/' {
				for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
					lx.cursor.Bump()
				}
				continue
			}
			return
		default:
			return
		}
	}
}

func (lx *Lexer) scanIdentOrKeyword() token.Token {
	m := lx.cursor.Mark()
	for !lx.cursor.EOF() && isIdentContinue(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	span := lx.cursor.SpanFrom(m)
	text := string(lx.file.Content[span.Start:span.End])
	return token.Token{Kind: token.LookupKeyword(text), Span: span, Text: text}
}

// scanNumber reads a base-10 integer with an optional _I32 or _Int suffix.
// Without a suffix the literal defaults to Int.
func (lx *Lexer) scanNumber() token.Token {
	m := lx.cursor.Mark()
	for !lx.cursor.EOF() && isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}

	kind := token.IntLit
	if lx.cursor.Peek() == '_' {
		sm := lx.cursor.Mark()
		lx.cursor.Bump()
		for !lx.cursor.EOF() && isIdentContinue(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		suffix := string(lx.file.Content[lx.cursor.SpanFrom(sm).Start:lx.cursor.Off])
		switch suffix {
		case "_I32":
			kind = token.IntI32Lit
		case "_Int":
			kind = token.IntLit
		default:
			span := lx.cursor.SpanFrom(m)
			lx.report(diag.LexBadNumber, span, "unknown integer suffix '"+suffix+"'")
			return token.Token{Kind: token.Error, Span: span, Text: string(lx.file.Content[span.Start:span.End])}
		}
	}

	span := lx.cursor.SpanFrom(m)
	text := string(lx.file.Content[span.Start:span.End])
	// strip the suffix so the parser sees only digits
	if idx := strings.IndexByte(text, '_'); idx >= 0 {
		text = text[:idx]
	}
	return token.Token{Kind: kind, Span: span, Text: text}
}

func (lx *Lexer) scanString() token.Token {
	m := lx.cursor.Mark()
	lx.cursor.Bump() // opening quote

	var sb strings.Builder
	for {
		if lx.cursor.EOF() || lx.cursor.Peek() == '\n' {
			span := lx.cursor.SpanFrom(m)
			lx.report(diag.LexUnterminatedString, span, "unterminated string literal")
			return token.Token{Kind: token.Error, Span: span, Text: sb.String()}
		}
		ch := lx.cursor.Bump()
		if ch == '"' {
			break
		}
		if ch == '\\' {
			esc := lx.cursor.Bump()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case '0':
				sb.WriteByte(0)
			default:
				span := lx.cursor.SpanFrom(m)
				lx.report(diag.LexBadEscape, span, "unknown escape sequence")
			}
			continue
		}
		sb.WriteByte(ch)
	}

	return token.Token{Kind: token.StringLit, Span: lx.cursor.SpanFrom(m), Text: sb.String()}
}

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	m := lx.cursor.Mark()
	ch := lx.cursor.Bump()

	kind := token.Error
	switch ch {
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	case '[':
		kind = token.LBracket
	case ']':
		kind = token.RBracket
	case ',':
		kind = token.Comma
	case ';':
		kind = token.Semicolon
	case ':':
		kind = token.Colon
	case '.':
		kind = token.Dot
	case '+':
		kind = token.Plus
	case '-':
		if lx.cursor.Eat('>') {
			kind = token.Arrow
		} else {
			kind = token.Minus
		}
	case '*':
		kind = token.Star
	case '/':
		kind = token.Slash
	case '%':
		kind = token.Percent
	case '&':
		kind = token.Amp
	case '|':
		kind = token.Pipe
	case '=':
		if lx.cursor.Eat('=') {
			kind = token.EqEq
		} else {
			kind = token.Assign
		}
	case '!':
		if lx.cursor.Eat('=') {
			kind = token.BangEq
		} else {
			kind = token.Bang
		}
	case '<':
		if lx.cursor.Eat('=') {
			kind = token.LtEq
		} else {
			kind = token.Lt
		}
	case '>':
		if lx.cursor.Eat('=') {
			kind = token.GtEq
		} else {
			kind = token.Gt
		}
	}

	span := lx.cursor.SpanFrom(m)
	text := string(lx.file.Content[span.Start:span.End])
	if kind == token.Error {
		lx.report(diag.LexUnknownChar, span, "unknown character '"+text+"'")
	}
	return token.Token{Kind: kind, Span: span, Text: text}
}

func (lx *Lexer) report(code diag.Code, span source.Span, msg string) {
	if lx.reporter != nil {
		lx.reporter.Report(code, diag.SevError, span, msg, nil)
	}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || isDec(b)
}

func isDec(b byte) bool {
	return b >= '0' && b <= '9'
}
