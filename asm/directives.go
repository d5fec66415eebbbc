package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment directives.
const (
	dirText = ".text"
	dirData = ".data"
)

// dataWidths is the element size of each fixed-width data directive.
var dataWidths = map[string]int{
	".byte":  1,
	".half":  2,
	".word":  4,
	".dword": 8,
}

const dirAsciz = ".asciz"

// dataValues splits a directive operand list on commas, dropping empty
// elements.
func dataValues(args string) []string {
	var out []string
	for _, v := range strings.Split(args, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ascizContent extracts the text between the first and last double quote.
// Go escape sequences are honoured; content that does not unquote is used
// verbatim.
func ascizContent(args string) (string, error) {
	start := strings.IndexByte(args, '"')
	end := strings.LastIndexByte(args, '"')
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: .asciz needs a quoted string", ErrOperandSyntax)
	}

	quoted := args[start : end+1]
	if s, err := strconv.Unquote(quoted); err == nil {
		return s, nil
	}
	return quoted[1 : len(quoted)-1], nil
}

// dataSize returns how many bytes a data directive occupies.
func dataSize(op, args string) (uint32, error) {
	if w, ok := dataWidths[op]; ok {
		return uint32(w * len(dataValues(args))), nil
	}
	if op == dirAsciz {
		s, err := ascizContent(args)
		if err != nil {
			return 0, err
		}
		return uint32(len(s) + 1), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownDirective, op)
}
