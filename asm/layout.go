package asm

// layout is pass 1: it walks the statements with the same segment rules
// as emission and records the address of every label.
func (a *Assembler) layout(stmts []statement) (*SymbolTable, []Diagnostic) {
	symbols := NewSymbolTable()
	var diags []Diagnostic

	seg := SegmentText
	text, data := a.textBase, a.dataBase

	for _, st := range stmts {
		if st.label != "" {
			addr := text
			if seg == SegmentData {
				addr = data
			}
			if err := symbols.Define(st.label, addr); err != nil {
				a.report(&diags, st, err)
			}
		}

		switch {
		case st.op == "":
		case st.op == dirText:
			seg, text = SegmentText, a.textBase
		case st.op == dirData:
			seg, data = SegmentData, a.dataBase
		case seg == SegmentText:
			// Every instruction line takes a slot, valid or not.
			if !st.isDirective() {
				text += 4
			}
		case seg == SegmentData:
			if size, err := dataSize(st.op, st.args); err == nil {
				data += size
			}
		}
	}

	return symbols, diags
}
