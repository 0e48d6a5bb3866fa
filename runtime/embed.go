// Package runtime embeds the wisp standard library sources so the
// compiler binary is self-contained.
package runtime

import _ "embed"

//go:embed std.wisp
var StdSource []byte
