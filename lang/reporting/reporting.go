// Package reporting implements the error taxonomy of §7: one concrete Go
// type per fault, grouped by pipeline stratum, plus an ErrorList that
// accumulates build-time faults the way the teacher's scanner/resolver
// packages accumulate lex and binding errors.
package reporting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/felys-lang/felys/lang/token"
)

// Fault is implemented by every error value produced by stages after the
// parser (build, analyzer, runtime). Lex/parse errors are reported directly
// as a formatted string per §7 stratum 1 and are not part of this type.
type Fault interface {
	error
	Span() token.Span
}

type fault struct {
	sp  token.Span
	msg string
}

func (f fault) Error() string     { return f.msg }
func (f fault) Span() token.Span  { return f.sp }

// --- stratum 2: build faults (§4.2, §7) ---

func MainNotFound() Fault { return fault{msg: "MainNotFound: no fn main(arg) block defined"} }

func DuplicatePath(sp token.Span, path string) Fault {
	return fault{sp: sp, msg: fmt.Sprintf("DuplicatePath: %q already declared", path)}
}

func PathNotExist(sp token.Span, path string) Fault {
	return fault{sp: sp, msg: fmt.Sprintf("PathNotExist: %q is not defined", path)}
}

func OutsideLoop(sp token.Span) Fault {
	return fault{sp: sp, msg: "OutsideLoop: break/continue outside of a loop"}
}

func BlockEarlyReturn(sp token.Span, stmtIdx int) Fault {
	return fault{sp: sp, msg: fmt.Sprintf("BlockEarlyReturn: unreachable statement at index %d", stmtIdx)}
}

func FunctionNoReturn(sp token.Span) Fault {
	return fault{sp: sp, msg: "FunctionNoReturn: function body does not return on all paths"}
}

func NoReturnValue(sp token.Span) Fault {
	return fault{sp: sp, msg: "NoReturnValue: expression used in value position produced no value"}
}

func InvalidInt(sp token.Span, lit string) Fault {
	return fault{sp: sp, msg: fmt.Sprintf("InvalidInt: %q is not a valid integer literal", lit)}
}

func InvalidStrChunk(sp token.Span, chunk string) Fault {
	return fault{sp: sp, msg: fmt.Sprintf("InvalidStrChunk: %q is not a valid string escape", chunk)}
}

func ValueNotDefined(sp token.Span, name string) Fault {
	return fault{sp: sp, msg: fmt.Sprintf("ValueNotDefined: %q is not defined", name)}
}

// --- stratum 3: analyzer faults (§4.3, §7) ---

func BinaryOperation(sp token.Span, op string, lhs, rhs string) Fault {
	return fault{sp: sp, msg: fmt.Sprintf("BinaryOperation: %q not defined for (%s, %s)", op, lhs, rhs)}
}

func UnaryOperation(sp token.Span, op string, src string) Fault {
	return fault{sp: sp, msg: fmt.Sprintf("UnaryOperation: %q not defined for %s", op, src)}
}

func ConstantType(sp token.Span, val string, expected string) Fault {
	return fault{sp: sp, msg: fmt.Sprintf("ConstantType: %s is not a %s", val, expected)}
}

// --- stratum 5: runtime faults (§4.5, §7) ---

func DataType(op string, got string) error {
	return fmt.Errorf("DataType: %s: unexpected operand type %s", op, got)
}

func RuntimeBinaryOperation(op string, lhs, rhs string) error {
	return fmt.Errorf("BinaryOperation: %q not defined for (%s, %s)", op, lhs, rhs)
}

func RuntimeUnaryOperation(op string, src string) error {
	return fmt.Errorf("UnaryOperation: %q not defined for %s", op, src)
}

func NumArgsNotMatch(want, got int) error {
	return fmt.Errorf("NumArgsNotMatch: want %d args, got %d", want, got)
}

func IndexOutOfBounds(idx, length int) error {
	return fmt.Errorf("IndexOutOfBounds: index %d out of bounds for length %d", idx, length)
}

func NotEnoughToUnpack(want, got int) error {
	return fmt.Errorf("NotEnoughToUnpack: want %d elements, got %d", want, got)
}

var ErrStackOverflow = fmt.Errorf("StackOverflow: call stack exceeded the configured depth")
var ErrTimeout = fmt.Errorf("Timeout: execution exceeded the configured deadline")

// ErrorList accumulates build-time faults and renders a bounded, sorted
// report. It is the build/analyzer-stage counterpart of the parser's single
// furthest-forward error.
type ErrorList struct {
	Faults []Fault
}

func (el *ErrorList) Add(f Fault) { el.Faults = append(el.Faults, f) }

func (el *ErrorList) HasErrors() bool { return len(el.Faults) > 0 }

// MaxReported bounds how many faults Error renders before eliding the rest.
const MaxReported = 20

func (el *ErrorList) Error() string {
	if len(el.Faults) == 0 {
		return ""
	}
	sorted := make([]Fault, len(el.Faults))
	copy(sorted, el.Faults)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Span().Start < sorted[j].Span().Start })

	var b strings.Builder
	n := len(sorted)
	if n > MaxReported {
		n = MaxReported
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%s\n", sorted[i].Error())
	}
	if len(sorted) > n {
		fmt.Fprintf(&b, "... and %d more errors\n", len(sorted)-n)
	}
	return strings.TrimRight(b.String(), "\n")
}
