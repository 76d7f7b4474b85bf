package backup

import "strings"

// SplitStatements splits a SQL dump into executable statements. Semicolons
// inside quoted literals, quoted identifiers and line comments do not end a
// statement. Leading comment lines are stripped and empty statements dropped.
// backslashEscapes must match the dialect that produced the dump.
func SplitStatements(content string, backslashEscapes bool) []string {
	var (
		stmts []string
		start int
		quote byte
	)

	for i := 0; i < len(content); i++ {
		c := content[i]

		if quote != 0 {
			switch {
			case c == '\\' && backslashEscapes && quote != '`':
				i++
			case c == quote:
				// A doubled quote is an escaped quote.
				if i+1 < len(content) && content[i+1] == quote {
					i++
				} else {
					quote = 0
				}
			}
			continue
		}

		switch c {
		case '\'', '"', '`':
			quote = c
		case '-':
			if i+1 < len(content) && content[i+1] == '-' {
				if nl := strings.IndexByte(content[i:], '\n'); nl >= 0 {
					i += nl
				} else {
					i = len(content)
				}
			}
		case ';':
			stmts = appendStatement(stmts, content[start:i])
			start = i + 1
		}
	}
	if start < len(content) {
		stmts = appendStatement(stmts, content[start:])
	}
	return stmts
}

func appendStatement(stmts []string, chunk string) []string {
	chunk = strings.TrimSpace(chunk)
	for strings.HasPrefix(chunk, "--") {
		nl := strings.IndexByte(chunk, '\n')
		if nl < 0 {
			return stmts
		}
		chunk = strings.TrimSpace(chunk[nl+1:])
	}
	if chunk == "" {
		return stmts
	}
	return append(stmts, chunk)
}
