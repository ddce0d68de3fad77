package vm

import (
	"math"

	"github.com/felys-lang/felys/lang/bytecode"
	"github.com/felys-lang/felys/lang/reporting"
)

func symbol(op bytecode.Op) string {
	switch op {
	case bytecode.ADD:
		return "+"
	case bytecode.SUB:
		return "-"
	case bytecode.MUL:
		return "*"
	case bytecode.DIV:
		return "/"
	case bytecode.MOD:
		return "%"
	case bytecode.EQL:
		return "=="
	case bytecode.NEQ:
		return "!="
	case bytecode.LT:
		return "<"
	case bytecode.GT:
		return ">"
	case bytecode.LE:
		return "<="
	case bytecode.GE:
		return ">="
	case bytecode.AND:
		return "and"
	case bytecode.OR:
		return "or"
	case bytecode.NEG:
		return "-"
	case bytecode.NOT:
		return "not"
	default:
		return op.String()
	}
}

// binaryOp evaluates one arithmetic/comparison/logical operator on two
// Objects. Kept in exact agreement with lang/optimize's constant evaluator
// (§4.3, §4.5) so folding a constant expression at compile time and
// executing the same expression at runtime never disagree.
func binaryOp(op bytecode.Op, a, b Object) (Object, error) {
	switch op {
	case bytecode.ADD:
		return add(a, b)
	case bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD:
		return arith(op, a, b)
	case bytecode.EQL:
		return equality(a, b, false)
	case bytecode.NEQ:
		return equality(a, b, true)
	case bytecode.LT, bytecode.GT, bytecode.LE, bytecode.GE:
		return compare(op, a, b)
	case bytecode.AND:
		if !truthable(a) || !truthable(b) {
			return Object{}, reporting.RuntimeBinaryOperation(symbol(op), a.Kind.String(), b.Kind.String())
		}
		return BoolVal(a.Truthy() && b.Truthy()), nil
	case bytecode.OR:
		if !truthable(a) || !truthable(b) {
			return Object{}, reporting.RuntimeBinaryOperation(symbol(op), a.Kind.String(), b.Kind.String())
		}
		return BoolVal(a.Truthy() || b.Truthy()), nil
	default:
		return Object{}, reporting.RuntimeBinaryOperation(symbol(op), a.Kind.String(), b.Kind.String())
	}
}

func truthable(o Object) bool {
	switch o.Kind {
	case Bool, Int, Float, Str, List, Tuple:
		return true
	default:
		return false
	}
}

func add(a, b Object) (Object, error) {
	switch {
	case a.Kind == Int && b.Kind == Int:
		sum := int64(a.Int) + int64(b.Int)
		if sum > math.MaxInt32 || sum < math.MinInt32 {
			return Object{}, reporting.RuntimeBinaryOperation("+", "int", "int")
		}
		return IntVal(int32(sum)), nil
	case a.Kind == Float && b.Kind == Float:
		return FloatVal(a.Float + b.Float), nil
	case a.Kind == Str && b.Kind == Str:
		return StrVal(a.Str + b.Str), nil
	case a.Kind == List && b.Kind == List:
		out := make([]Object, 0, len(a.List)+len(b.List))
		out = append(out, a.List...)
		out = append(out, b.List...)
		return Object{Kind: List, List: out}, nil
	default:
		return Object{}, reporting.RuntimeBinaryOperation("+", a.Kind.String(), b.Kind.String())
	}
}

func arith(op bytecode.Op, a, b Object) (Object, error) {
	sym := symbol(op)
	switch {
	case a.Kind == Int && b.Kind == Int:
		if (op == bytecode.DIV || op == bytecode.MOD) && b.Int == 0 {
			return Object{}, reporting.RuntimeBinaryOperation(sym, "int", "int")
		}
		switch op {
		case bytecode.SUB:
			return checkedInt(int64(a.Int)-int64(b.Int), sym)
		case bytecode.MUL:
			return checkedInt(int64(a.Int)*int64(b.Int), sym)
		case bytecode.DIV:
			return IntVal(a.Int / b.Int), nil
		default: // MOD
			return IntVal(a.Int % b.Int), nil
		}
	case a.Kind == Float && b.Kind == Float:
		switch op {
		case bytecode.SUB:
			return FloatVal(a.Float - b.Float), nil
		case bytecode.MUL:
			return FloatVal(a.Float * b.Float), nil
		case bytecode.DIV:
			return FloatVal(a.Float / b.Float), nil
		default:
			return FloatVal(float32(math.Mod(float64(a.Float), float64(b.Float)))), nil
		}
	default:
		return Object{}, reporting.RuntimeBinaryOperation(sym, a.Kind.String(), b.Kind.String())
	}
}

func checkedInt(v int64, sym string) (Object, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return Object{}, reporting.RuntimeBinaryOperation(sym, "int", "int")
	}
	return IntVal(int32(v)), nil
}

func equality(a, b Object, negate bool) (Object, error) {
	switch a.Kind {
	case Bool, Int, Float, Str, List, Tuple:
		if a.Kind != b.Kind {
			return Object{}, reporting.RuntimeBinaryOperation("==", a.Kind.String(), b.Kind.String())
		}
	default:
		return Object{}, reporting.RuntimeBinaryOperation("==", a.Kind.String(), b.Kind.String())
	}
	eq := Equal(a, b)
	if negate {
		eq = !eq
	}
	return BoolVal(eq), nil
}

func compare(op bytecode.Op, a, b Object) (Object, error) {
	sym := symbol(op)
	var lt, eq bool
	switch {
	case a.Kind == Int && b.Kind == Int:
		lt, eq = a.Int < b.Int, a.Int == b.Int
	case a.Kind == Float && b.Kind == Float:
		lt, eq = a.Float < b.Float, a.Float == b.Float
	case a.Kind == Str && b.Kind == Str:
		lt, eq = a.Str < b.Str, a.Str == b.Str
	default:
		return Object{}, reporting.RuntimeBinaryOperation(sym, a.Kind.String(), b.Kind.String())
	}
	switch op {
	case bytecode.LT:
		return BoolVal(lt), nil
	case bytecode.GT:
		return BoolVal(!lt && !eq), nil
	case bytecode.LE:
		return BoolVal(lt || eq), nil
	default: // GE
		return BoolVal(!lt), nil
	}
}

func unaryOp(op bytecode.Op, a Object) (Object, error) {
	switch op {
	case bytecode.NEG:
		switch a.Kind {
		case Int:
			if a.Int == math.MinInt32 {
				return Object{}, reporting.RuntimeUnaryOperation("-", "int")
			}
			return IntVal(-a.Int), nil
		case Float:
			return FloatVal(-a.Float), nil
		default:
			return Object{}, reporting.RuntimeUnaryOperation("-", a.Kind.String())
		}
	case bytecode.NOT:
		if a.Kind != Bool {
			return Object{}, reporting.RuntimeUnaryOperation("not", a.Kind.String())
		}
		return BoolVal(!a.Bool), nil
	default:
		return Object{}, reporting.RuntimeUnaryOperation(symbol(op), a.Kind.String())
	}
}

func index(recv, idx Object) (Object, error) {
	if idx.Kind != Int {
		return Object{}, reporting.DataType("index", idx.Kind.String())
	}
	switch recv.Kind {
	case List:
		return indexSlice(recv.List, idx.Int)
	case Tuple:
		return indexSlice(recv.Tuple, idx.Int)
	case Str:
		runes := []rune(recv.Str)
		i := int(idx.Int)
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return Object{}, reporting.IndexOutOfBounds(int(idx.Int), len(runes))
		}
		return StrVal(string(runes[i])), nil
	default:
		return Object{}, reporting.DataType("index", recv.Kind.String())
	}
}

func indexSlice(elems []Object, i32 int32) (Object, error) {
	i := int(i32)
	if i < 0 {
		i += len(elems)
	}
	if i < 0 || i >= len(elems) {
		return Object{}, reporting.IndexOutOfBounds(int(i32), len(elems))
	}
	return elems[i], nil
}

func unpack(recv Object, idx int) (Object, error) {
	if recv.Kind != Tuple {
		return Object{}, reporting.DataType("unpack", recv.Kind.String())
	}
	if idx < 0 || idx >= len(recv.Tuple) {
		return Object{}, reporting.NotEnoughToUnpack(idx+1, len(recv.Tuple))
	}
	return recv.Tuple[idx], nil
}

// fieldAccess resolves a group's named field to its positional value using
// the group's on-disk Indices table (§6).
func fieldAccess(p *bytecode.Elysia, recv Object, nameID uint32) (Object, error) {
	if recv.Kind != GroupVal {
		return Object{}, reporting.DataType("field", recv.Kind.String())
	}
	if int(recv.GroupDef) >= len(p.Groups) {
		return Object{}, reporting.DataType("field", "group")
	}
	for _, pair := range p.Groups[recv.GroupDef].Indices {
		if pair.ID == nameID {
			if int(pair.Idx) >= len(recv.Fields) {
				return Object{}, reporting.DataType("field", "group")
			}
			return recv.Fields[pair.Idx], nil
		}
	}
	return Object{}, reporting.DataType("field", "group")
}
