package dump

import "strings"

const (
	nullSentinel   = "NULL"
	binarySentinel = "_binary"
)

// unescapes are applied one after another, in this order. `\r\n` has to be
// resolved before the single `\r` and `\n` forms.
var unescapes = [...]struct{ old, new string }{
	{`\'`, `'`},
	{`\r\n`, "\n"},
	{`\n`, "\n"},
	{`\r`, "\n"},
}

// Clean converts a raw tuple field to display text.
//
// NULL (any case) and _binary literals become "". One surrounding pair of
// single quotes is removed if still present; a lone quote is taken as that
// pair and yields "". The escapes \' \r\n \n and \r
// are resolved; every other backslash sequence is left untouched.
func Clean(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, nullSentinel) {
		return ""
	}
	if strings.HasPrefix(v, binarySentinel) {
		return ""
	}
	if v[0] == '\'' && v[len(v)-1] == '\'' {
		if len(v) == 1 {
			return ""
		}
		v = v[1 : len(v)-1]
	}
	for _, u := range unescapes {
		v = strings.ReplaceAll(v, u.old, u.new)
	}
	return v
}
