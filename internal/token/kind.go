package token

// Kind enumerates every token produced by the lexer.
type Kind uint8

const (
	EOF Kind = iota
	Error

	Ident
	IntLit    // 42
	IntI32Lit // 42_I32
	StringLit // "text"

	// keywords
	KwFunction
	KwType
	KwStruct
	KwImport
	KwExtern
	KwMod
	KwGlobal
	KwUse
	KwLet
	KwMut
	KwIf
	KwThen
	KwElse
	KwLoop
	KwBreak

	// punctuation and operators
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Semicolon
	Colon
	Dot
	Assign
	Plus
	Minus
	Star
	Slash
	Percent
	Lt
	Gt
	LtEq
	GtEq
	EqEq
	BangEq
	Bang
	Amp
	Pipe
	Arrow
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "eof"
	case Error:
		return "error"
	case Ident:
		return "ident"
	case IntLit:
		return "int"
	case IntI32Lit:
		return "int_i32"
	case StringLit:
		return "string"
	case KwFunction:
		return "function"
	case KwType:
		return "type"
	case KwStruct:
		return "struct"
	case KwImport:
		return "import"
	case KwExtern:
		return "extern"
	case KwMod:
		return "mod"
	case KwGlobal:
		return "global"
	case KwUse:
		return "use"
	case KwLet:
		return "let"
	case KwMut:
		return "mut"
	case KwIf:
		return "if"
	case KwThen:
		return "then"
	case KwElse:
		return "else"
	case KwLoop:
		return "loop"
	case KwBreak:
		return "break"
	case LParen:
		return "("
	case RParen:
		return ")"
	case LBrace:
		return "{"
	case RBrace:
		return "}"
	case LBracket:
		return "["
	case RBracket:
		return "]"
	case Comma:
		return ","
	case Semicolon:
		return ";"
	case Colon:
		return ":"
	case Dot:
		return "."
	case Assign:
		return "="
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Star:
		return "*"
	case Slash:
		return "/"
	case Percent:
		return "%"
	case Lt:
		return "<"
	case Gt:
		return ">"
	case LtEq:
		return "<="
	case GtEq:
		return ">="
	case EqEq:
		return "=="
	case BangEq:
		return "!="
	case Bang:
		return "!"
	case Amp:
		return "&"
	case Pipe:
		return "|"
	case Arrow:
		return "->"
	}
	return "unknown"
}
