package helpers

import "unicode"

// UCDRecord mirrors the fields get_ucd's callers actually read out of
// PCRE's ucd_record: the general category (as a single-letter script-less
// class tag, e.g. "L", "N", "Z") and whether r is itself a case-varying
// letter. PCRE's script/chartype enums have no direct Go equivalent;
// unicode.In against the standard RangeTables is the idiomatic substitute
// the corpus points to (the teacher has no Unicode-table dependency of
// its own, so this draws straight from the standard library, noted in
// DESIGN.md).
type UCDRecord struct {
	Category  string
	HasOther  bool
	OtherCase rune
}

// GetUCD implements get_ucd: the single lookup point \p{}, \P{}, and UCP
// case-insensitive matching route through, so every opcode needing a
// Unicode property decision calls this instead of inlining its own
// unicode.* checks.
func GetUCD(r rune) UCDRecord {
	rec := UCDRecord{Category: category(r)}
	lower := unicode.ToLower(r)
	upper := unicode.ToUpper(r)
	switch {
	case lower != r:
		rec.HasOther, rec.OtherCase = true, lower
	case upper != r:
		rec.HasOther, rec.OtherCase = true, upper
	}
	return rec
}

func category(r rune) string {
	switch {
	case unicode.IsLetter(r):
		return "L"
	case unicode.IsDigit(r) || unicode.IsNumber(r):
		return "N"
	case unicode.IsSpace(r):
		return "Z"
	case unicode.IsPunct(r):
		return "P"
	case unicode.IsControl(r):
		return "C"
	case unicode.IsSymbol(r):
		return "S"
	default:
		return "C"
	}
}
