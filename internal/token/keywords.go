package token

var keywords = map[string]Kind{
	"function": KwFunction,
	"type":     KwType,
	"struct":   KwStruct,
	"import":   KwImport,
	"extern":   KwExtern,
	"mod":      KwMod,
	"global":   KwGlobal,
	"use":      KwUse,
	"let":      KwLet,
	"mut":      KwMut,
	"if":       KwIf,
	"then":     KwThen,
	"else":     KwElse,
	"loop":     KwLoop,
	"break":    KwBreak,
}

// LookupKeyword maps identifier text to a keyword kind, or Ident.
func LookupKeyword(text string) Kind {
	if k, ok := keywords[text]; ok {
		return k
	}
	return Ident
}
