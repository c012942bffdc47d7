package lexer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// bomUTF8 is the UTF-8 byte order mark some editors still prepend.
const bomUTF8 = "﻿"

// Normalize performs input normalization at the lexer boundary, grounded
// on the teacher's own lexer.Normalize: strip a leading BOM, then apply
// Unicode NFC so that lexically equivalent source text (e.g. a composed
// vs. decomposed accented identifier) always produces the same token
// stream regardless of which byte sequence the editor wrote.
func Normalize(src string) string {
	src = strings.TrimPrefix(src, bomUTF8)
	if !norm.NFC.IsNormalString(src) {
		src = norm.NFC.String(src)
	}
	return src
}
