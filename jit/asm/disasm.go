package asm

import (
	"fmt"
	"strings"
)

// Disassemble renders prog as one line per instruction, the format
// cmd/pcrejit's "disasm" subcommand prints: address, mnemonic, and
// whichever of N1/N2/R/Flag/Str that Op's comment in op.go documents as
// meaningful. Classes/Natives are summarized by count rather than content,
// since a class is a raw 32-byte bitmap and a native is an opaque closure.
func Disassemble(prog *Program) string {
	var sb strings.Builder
	for pc, in := range prog.Instrs {
		fmt.Fprintf(&sb, "%4d  %s", pc, in.Op)
		for _, f := range operandFields(in) {
			sb.WriteByte(' ')
			sb.WriteString(f)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "; %d instruction(s), %d class(es), %d native(s), %d capture(s), %d frame word(s)\n",
		len(prog.Instrs), len(prog.Classes), len(prog.Natives), prog.Captures, prog.FrameWords)
	return sb.String()
}

func operandFields(in Instr) []string {
	switch in.Op {
	case MatchChar, MatchNotChar:
		return []string{fmt.Sprintf("%q", in.R), fmt.Sprintf("caseless=%v", in.Flag)}
	case MatchClass:
		return []string{fmt.Sprintf("class=%d", in.N1), fmt.Sprintf("negate=%v", in.Flag)}
	case MatchAny:
		return []string{fmt.Sprintf("dotall=%v", in.Flag)}
	case AnchorBOL, AnchorEOL:
		return []string{fmt.Sprintf("multiline=%v", in.Flag)}
	case Jmp, JmpIfNotOK, JmpIfOK:
		return []string{fmt.Sprintf("->%d", in.N1)}
	case Call:
		return []string{fmt.Sprintf("->%d", in.N1), fmt.Sprintf("group=%d", in.N2)}
	case CallNative:
		return []string{fmt.Sprintf("native=%d", in.N1)}
	case PushInt:
		return []string{fmt.Sprintf("%d", in.N1)}
	case CapStart, CapEnd:
		return []string{fmt.Sprintf("#%d", in.N1), fmt.Sprintf("optimized=%v", in.Flag)}
	case CapRestore, CapRestoreStart:
		return []string{fmt.Sprintf("#%d", in.N1)}
	case Advance, Rewind:
		return []string{fmt.Sprintf("%d", in.N1)}
	case CallLimitCheck, StackCheck:
		fields := []string{fmt.Sprintf("->%d", in.N1)}
		if in.Op == StackCheck {
			fields = append(fields, fmt.Sprintf("words=%d", in.N2))
		}
		return fields
	case Mark:
		return []string{fmt.Sprintf("%q", in.Str)}
	case SetOK:
		return []string{fmt.Sprintf("%v", in.Flag)}
	case Halt:
		return []string{fmt.Sprintf("result=%d", in.N1)}
	default:
		return nil
	}
}
