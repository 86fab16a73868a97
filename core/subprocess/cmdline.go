package subprocess

import "strings"

// commandLine joins argv into the single command-line string Windows
// CreateProcess consumes. An argument containing whitespace, control
// characters, or a double quote is wrapped in quotes, with embedded quotes
// backslash-escaped; everything else passes through verbatim.
func commandLine(argv []string) string {
	var b strings.Builder
	for i, arg := range argv {
		if i > 0 {
			b.WriteByte(' ')
		}
		appendQuotedArg(&b, arg)
	}
	return b.String()
}

func appendQuotedArg(b *strings.Builder, arg string) {
	needQuote := arg == ""
	for i := 0; i < len(arg); i++ {
		if arg[i] <= ' ' || arg[i] == '"' {
			needQuote = true
			break
		}
	}
	if !needQuote {
		b.WriteString(arg)
		return
	}
	b.WriteByte('"')
	for i := 0; i < len(arg); i++ {
		if arg[i] == '"' {
			b.WriteByte('\\')
		}
		b.WriteByte(arg[i])
	}
	b.WriteByte('"')
}
