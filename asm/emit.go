package asm

import (
	"fmt"
	"strings"

	"github.com/sarchlab/rv32sim/insts"
)

// emitter is pass 2.
type emitter struct {
	a       *Assembler
	symbols *SymbolTable
	res     *Result

	seg        Segment
	text, data uint32
	closed     bool // sentinel emitted

	textRecs []Record
	dataRecs []Record
}

func (e *emitter) run(stmts []statement) {
	e.seg = SegmentText
	e.text, e.data = e.a.textBase, e.a.dataBase

	for _, st := range stmts {
		switch {
		case st.op == "":
		case st.op == dirText:
			e.seg, e.text = SegmentText, e.a.textBase
		case st.op == dirData:
			// A leading .data does not end an empty text segment.
			if e.seg == SegmentText && e.text != e.a.textBase {
				e.closeText()
			}
			e.seg, e.data = SegmentData, e.a.dataBase
		case e.seg == SegmentText:
			if st.isDirective() {
				e.report(st, fmt.Errorf("%w: %s in text segment", ErrUnknownDirective, st.op))
				continue
			}
			e.instruction(st)
			e.text += 4
		default:
			if !st.isDirective() {
				e.report(st, fmt.Errorf("%w: instruction %q in data segment", ErrWrongSegment, st.op))
				continue
			}
			e.directive(st)
		}
	}

	e.closeText()

	e.res.Records = append(e.textRecs, e.dataRecs...)
}

// closeText appends the trap word after the last instruction, once.
func (e *emitter) closeText() {
	if e.closed {
		return
	}
	e.closed = true
	e.textRecs = append(e.textRecs, Record{
		Address:  e.text,
		Value:    uint64(insts.TrapWord),
		Width:    4,
		Segment:  SegmentText,
		Sentinel: true,
		Source:   "END",
	})
}

func (e *emitter) report(st statement, err error) {
	e.a.report(&e.res.Diagnostics, st, err)
}

// instruction encodes one text-segment line. Lines that cannot be encoded
// at all leave their slot empty.
func (e *emitter) instruction(st statement) {
	spec, ok := insts.Lookup(strings.ToLower(st.op))
	if !ok {
		e.report(st, fmt.Errorf("%w: %q", ErrUnknownMnemonic, st.op))
		return
	}

	ops, err := e.operands(spec, st)
	if err != nil {
		e.report(st, err)
		return
	}

	word, err := insts.Encode(ops)
	if err != nil {
		e.report(st, err)
		return
	}

	e.textRecs = append(e.textRecs, Record{
		Address:   e.text,
		Value:     uint64(word),
		Width:     4,
		Segment:   SegmentText,
		Source:    st.source,
		Breakdown: insts.Breakdown(ops),
	})
}

// operands parses the operand list into fields. Bad registers, immediates
// and labels are reported and encode as zero; a wrong operand shape is
// returned as an error.
func (e *emitter) operands(spec insts.Spec, st statement) (insts.Operands, error) {
	toks := operandTokens(st.args)
	o := insts.Operands{Spec: spec}
	bits := spec.ImmWidth()

	syntax := func(shape string) error {
		return fmt.Errorf("%w: %s expects %s", ErrOperandSyntax, spec.Mnemonic, shape)
	}

	switch spec.Format {
	case insts.FormatR:
		if len(toks) != 3 {
			return o, syntax("rd, rs1, rs2")
		}
		o.Rd = e.reg(st, toks[0])
		o.Rs1 = e.reg(st, toks[1])
		o.Rs2 = e.reg(st, toks[2])

	case insts.FormatI:
		switch len(toks) {
		case 3:
			o.Rd = e.reg(st, toks[0])
			o.Rs1 = e.reg(st, toks[1])
			o.Imm = e.imm(st, toks[2], bits)
		case 2:
			imm, base, ok := memOperand(toks[1])
			if !ok {
				return o, syntax("rd, rs1, imm or rd, imm(rs1)")
			}
			o.Rd = e.reg(st, toks[0])
			o.Rs1 = e.reg(st, base)
			o.Imm = e.imm(st, imm, bits)
		default:
			return o, syntax("rd, rs1, imm or rd, imm(rs1)")
		}

	case insts.FormatS:
		if len(toks) != 2 {
			return o, syntax("rs2, imm(rs1)")
		}
		imm, base, ok := memOperand(toks[1])
		if !ok {
			return o, syntax("rs2, imm(rs1)")
		}
		o.Rs2 = e.reg(st, toks[0])
		o.Rs1 = e.reg(st, base)
		o.Imm = e.imm(st, imm, bits)

	case insts.FormatB:
		if len(toks) != 3 {
			return o, syntax("rs1, rs2, target")
		}
		o.Rs1 = e.reg(st, toks[0])
		o.Rs2 = e.reg(st, toks[1])
		o.Imm = e.target(st, toks[2], bits)

	case insts.FormatU:
		if len(toks) != 2 {
			return o, syntax("rd, imm")
		}
		o.Rd = e.reg(st, toks[0])
		o.Imm = e.imm(st, toks[1], bits)

	case insts.FormatJ:
		switch len(toks) {
		case 1:
			o.Rd = 1
			o.Imm = e.target(st, toks[0], bits)
		case 2:
			o.Rd = e.reg(st, toks[0])
			o.Imm = e.target(st, toks[1], bits)
		default:
			return o, syntax("rd, target")
		}
	}

	return o, nil
}

func (e *emitter) reg(st statement, tok string) uint8 {
	r, err := insts.ParseRegister(tok)
	if err != nil {
		e.report(st, err)
		return 0
	}
	return r
}

func (e *emitter) imm(st statement, tok string, bits int) int64 {
	v, err := insts.ParseImmediate(tok)
	if err != nil {
		e.report(st, err)
		return 0
	}
	e.noteTruncation(st, v, bits)
	return v
}

// target resolves a branch or jump operand: a literal byte offset or a
// label, which becomes label - current address.
func (e *emitter) target(st statement, tok string, bits int) int64 {
	if v, err := insts.ParseImmediate(tok); err == nil {
		e.noteTruncation(st, v, bits)
		return v
	}

	if looksNumeric(tok) {
		e.report(st, fmt.Errorf("%w: %q", insts.ErrBadImmediate, tok))
		return 0
	}

	addr, ok := e.symbols.Lookup(tok)
	if !ok {
		e.report(st, fmt.Errorf("%w: %q", ErrUndefinedLabel, tok))
		return 0
	}

	offset := int64(addr) - int64(e.text)
	e.noteTruncation(st, offset, bits)
	return offset
}

func (e *emitter) noteTruncation(st statement, v int64, bits int) {
	if insts.FitsSigned(v, bits) || (v >= 0 && v < int64(1)<<bits) {
		return
	}
	e.a.log.V(1).Info("immediate truncated", "line", st.line, "value", v, "bits", bits)
}

func looksNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	return c == '-' || c == '+' || (c >= '0' && c <= '9')
}

// directive emits the elements of a data directive.
func (e *emitter) directive(st statement) {
	if w, ok := dataWidths[st.op]; ok {
		for _, tok := range dataValues(st.args) {
			v, err := insts.ParseImmediate(tok)
			if err != nil {
				e.report(st, err)
				v = 0
			}
			e.noteTruncation(st, v, w*8)
			e.emitData(st, uint64(v)&widthMask(w), w)
		}
		return
	}

	if st.op == dirAsciz {
		s, err := ascizContent(st.args)
		if err != nil {
			e.report(st, err)
			return
		}
		for i := 0; i < len(s); i++ {
			e.emitData(st, uint64(s[i]), 1)
		}
		e.emitData(st, 0, 1)
		return
	}

	e.report(st, fmt.Errorf("%w: %s", ErrUnknownDirective, st.op))
}

func (e *emitter) emitData(st statement, v uint64, width int) {
	e.dataRecs = append(e.dataRecs, Record{
		Address: e.data,
		Value:   v,
		Width:   width,
		Segment: SegmentData,
		Source:  st.source,
	})
	e.data += uint32(width)
}

func widthMask(width int) uint64 {
	if width >= 8 {
		return ^uint64(0)
	}
	return (uint64(1) << (8 * width)) - 1
}
