package container

import "strings"

// tagAliases maps obfuscated or reversed four-character tags to their
// canonical spelling. Representative entries only; the table is not
// meant to be exhaustive of every byte-reversal a hostile or merely old
// authoring tool could produce.
var tagAliases = map[string]string{
	"pami": "imap",
	"pamm": "mmap",
	"*YEK": "KEY*",
	"YEK*": "KEY*",
	"Lscl": "MCsL",
	"XtcL": "LctX",
	"manL": "Lnam",
	"rcsL": "Lscr",
	"CAS*": "CASt",
	"DIB ": "BITD",
	"IEGF": "FGEI",
	"PMBA": "Abmp",
}

// NormalizeTag resolves a raw four-character tag to its canonical form.
// Unknown tags pass through unchanged. Comparisons downstream are then
// done case-insensitively against the canonical constants.
func NormalizeTag(tag string) string {
	if canon, ok := tagAliases[tag]; ok {
		return canon
	}
	return tag
}

// tagEquals compares a (possibly obfuscated) tag against a canonical
// constant, normalizing and folding case first.
func tagEquals(tag, canonical string) bool {
	return strings.EqualFold(NormalizeTag(tag), canonical)
}
