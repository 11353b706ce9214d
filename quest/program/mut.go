package program

// MutOp is the operation a MutStmt applies to its target
type MutOp int

const (
	MutAdd MutOp = iota
	MutSub
	MutMul
	MutDiv
	MutSwap
	MutFn
)

// String returns the operator as written in programs
func (op MutOp) String() string {
	switch op {
	case MutAdd:
		return "+"
	case MutSub:
		return "-"
	case MutMul:
		return "*"
	case MutDiv:
		return "/"
	case MutSwap:
		return "swap"
	case MutFn:
		return "fn"
	default:
		return "?"
	}
}

// Arithmetic reports whether the op combines two numbers
func (op MutOp) Arithmetic() bool {
	return op == MutAdd || op == MutSub || op == MutMul || op == MutDiv
}

// ParseMutOp maps an operator word to its op. Function calls are written
// fn:<name> and are handled by the parser.
func ParseMutOp(s string) (MutOp, bool) {
	switch s {
	case "+", "add":
		return MutAdd, true
	case "-", "sub":
		return MutSub, true
	case "*", "mul":
		return MutMul, true
	case "/", "div":
		return MutDiv, true
	case "=", "swap":
		return MutSwap, true
	default:
		return 0, false
	}
}
