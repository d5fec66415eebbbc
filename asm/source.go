package asm

import "strings"

// statement is one meaningful source line split into its parts.
type statement struct {
	line   int    // 1-based line number
	source string // the line with surrounding space trimmed
	label  string // "" when the line defines no label
	op     string // mnemonic or directive, "" for a label-only line
	args   string // everything after op
}

func (s statement) isDirective() bool {
	return strings.HasPrefix(s.op, ".")
}

// scan splits source lines into statements. Blank lines and lines whose
// first non-space character is '#' are dropped.
func scan(lines []string) []statement {
	stmts := make([]statement, 0, len(lines))

	for i, raw := range lines {
		text := strings.TrimSpace(raw)
		if text == "" || text[0] == '#' {
			continue
		}

		st := statement{line: i + 1, source: text}
		body := strings.TrimSpace(stripComment(text))

		if label, rest, ok := cutLabel(body); ok {
			st.label = label
			body = rest
		}

		st.op, st.args = cutOp(body)
		stmts = append(stmts, st)
	}

	return stmts
}

// stripComment drops a trailing '#' comment that is not inside a string
// literal.
func stripComment(text string) string {
	inString := false
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			if inString {
				i++
			}
		case '"':
			inString = !inString
		case '#':
			if !inString {
				return text[:i]
			}
		}
	}
	return text
}

// cutLabel splits "name: rest" into its label and the remaining statement.
func cutLabel(body string) (label, rest string, ok bool) {
	first, after := cutOp(body)
	if colon := strings.IndexByte(first, ':'); colon > 0 {
		label = first[:colon]
		rest = strings.TrimSpace(first[colon+1:] + " " + after)
		return label, rest, true
	}
	return "", body, false
}

// cutOp splits off the first whitespace-delimited word.
func cutOp(body string) (op, args string) {
	body = strings.TrimSpace(body)
	if i := strings.IndexAny(body, " \t"); i >= 0 {
		return body[:i], strings.TrimSpace(body[i+1:])
	}
	return body, ""
}

// operandTokens splits an operand list on commas and whitespace.
func operandTokens(args string) []string {
	return strings.FieldsFunc(args, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// memOperand splits "imm(reg)" into its two parts. An empty imm means 0.
func memOperand(tok string) (imm, reg string, ok bool) {
	open := strings.IndexByte(tok, '(')
	if open < 0 || !strings.HasSuffix(tok, ")") {
		return "", "", false
	}
	imm = strings.TrimSpace(tok[:open])
	if imm == "" {
		imm = "0"
	}
	return imm, strings.TrimSpace(tok[open+1 : len(tok)-1]), true
}
