package optimize

import (
	"math"

	"github.com/felys-lang/felys/lang/ir"
	"github.com/felys-lang/felys/lang/reporting"
	"github.com/felys-lang/felys/lang/token"
)

func kindName(k ir.ConstKind) string {
	switch k {
	case ir.CInt:
		return "int"
	case ir.CFloat:
		return "float"
	case ir.CBool:
		return "bool"
	case ir.CStr:
		return "str"
	default:
		return "?"
	}
}

func f32(c ir.Const) float32 { return math.Float32frombits(c.Float) }

// foldBinary evaluates op on two constants at compile time. It is kept in
// exact agreement with lang/vm/ops.go's binaryOp so folding never disagrees
// with execution (§4.3, §4.5).
func foldBinary(op ir.Op, a, b ir.Const) (ir.Const, error) {
	sp := token.Span{}
	switch op {
	case ir.Add:
		switch {
		case a.Kind == ir.CInt && b.Kind == ir.CInt:
			sum := int64(a.Int) + int64(b.Int)
			if sum > math.MaxInt32 || sum < math.MinInt32 {
				return ir.Const{}, reporting.BinaryOperation(sp, "+", "int", "int")
			}
			return ir.IntConst(int32(sum)), nil
		case a.Kind == ir.CFloat && b.Kind == ir.CFloat:
			return ir.FloatConst(math.Float32bits(f32(a) + f32(b))), nil
		case a.Kind == ir.CStr && b.Kind == ir.CStr:
			return ir.StrConst(a.Str + b.Str), nil
		default:
			return ir.Const{}, reporting.BinaryOperation(sp, "+", kindName(a.Kind), kindName(b.Kind))
		}
	case ir.Sub, ir.Mul, ir.Div, ir.Mod:
		return foldArith(op, a, b)
	case ir.Eql, ir.Neq:
		return foldEquality(op, a, b)
	case ir.Lt, ir.Gt, ir.Le, ir.Ge:
		return foldCompare(op, a, b)
	case ir.And, ir.Or:
		if !foldTruthable(a) || !foldTruthable(b) {
			return ir.Const{}, reporting.BinaryOperation(sp, op.String(), kindName(a.Kind), kindName(b.Kind))
		}
		at, bt := foldTruthy(a), foldTruthy(b)
		if op == ir.And {
			return ir.BoolConst(at && bt), nil
		}
		return ir.BoolConst(at || bt), nil
	default:
		return ir.Const{}, reporting.BinaryOperation(sp, op.String(), kindName(a.Kind), kindName(b.Kind))
	}
}

func foldTruthable(c ir.Const) bool {
	switch c.Kind {
	case ir.CBool, ir.CInt, ir.CFloat, ir.CStr:
		return true
	default:
		return false
	}
}

func foldTruthy(c ir.Const) bool {
	switch c.Kind {
	case ir.CBool:
		return c.Bool
	case ir.CInt:
		return c.Int != 0
	case ir.CFloat:
		return f32(c) != 0
	case ir.CStr:
		return c.Str != ""
	default:
		return false
	}
}

func foldArith(op ir.Op, a, b ir.Const) (ir.Const, error) {
	sp := token.Span{}
	sym := op.String()
	switch {
	case a.Kind == ir.CInt && b.Kind == ir.CInt:
		if (op == ir.Div || op == ir.Mod) && b.Int == 0 {
			return ir.Const{}, reporting.BinaryOperation(sp, sym, "int", "int")
		}
		switch op {
		case ir.Sub:
			return foldCheckedInt(int64(a.Int)-int64(b.Int), sym)
		case ir.Mul:
			return foldCheckedInt(int64(a.Int)*int64(b.Int), sym)
		case ir.Div:
			return ir.IntConst(a.Int / b.Int), nil
		default:
			return ir.IntConst(a.Int % b.Int), nil
		}
	case a.Kind == ir.CFloat && b.Kind == ir.CFloat:
		af, bf := f32(a), f32(b)
		switch op {
		case ir.Sub:
			return ir.FloatConst(math.Float32bits(af - bf)), nil
		case ir.Mul:
			return ir.FloatConst(math.Float32bits(af * bf)), nil
		case ir.Div:
			return ir.FloatConst(math.Float32bits(af / bf)), nil
		default:
			return ir.FloatConst(math.Float32bits(float32(math.Mod(float64(af), float64(bf))))), nil
		}
	default:
		return ir.Const{}, reporting.BinaryOperation(sp, sym, kindName(a.Kind), kindName(b.Kind))
	}
}

func foldCheckedInt(v int64, sym string) (ir.Const, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return ir.Const{}, reporting.BinaryOperation(token.Span{}, sym, "int", "int")
	}
	return ir.IntConst(int32(v)), nil
}

func foldEquality(op ir.Op, a, b ir.Const) (ir.Const, error) {
	switch a.Kind {
	case ir.CBool, ir.CInt, ir.CFloat, ir.CStr:
		if a.Kind != b.Kind {
			return ir.Const{}, reporting.BinaryOperation(token.Span{}, "==", kindName(a.Kind), kindName(b.Kind))
		}
	default:
		return ir.Const{}, reporting.BinaryOperation(token.Span{}, "==", kindName(a.Kind), kindName(b.Kind))
	}
	eq := constEqual(a, b)
	if op == ir.Neq {
		eq = !eq
	}
	return ir.BoolConst(eq), nil
}

func foldCompare(op ir.Op, a, b ir.Const) (ir.Const, error) {
	sp := token.Span{}
	sym := op.String()
	var lt, eq bool
	switch {
	case a.Kind == ir.CInt && b.Kind == ir.CInt:
		lt, eq = a.Int < b.Int, a.Int == b.Int
	case a.Kind == ir.CFloat && b.Kind == ir.CFloat:
		af, bf := f32(a), f32(b)
		lt, eq = af < bf, af == bf
	case a.Kind == ir.CStr && b.Kind == ir.CStr:
		lt, eq = a.Str < b.Str, a.Str == b.Str
	default:
		return ir.Const{}, reporting.BinaryOperation(sp, sym, kindName(a.Kind), kindName(b.Kind))
	}
	switch op {
	case ir.Lt:
		return ir.BoolConst(lt), nil
	case ir.Gt:
		return ir.BoolConst(!lt && !eq), nil
	case ir.Le:
		return ir.BoolConst(lt || eq), nil
	default:
		return ir.BoolConst(!lt), nil
	}
}

// foldUnary evaluates op on one constant, mirroring lang/vm/ops.go's
// unaryOp.
func foldUnary(op ir.Op, a ir.Const) (ir.Const, error) {
	sp := token.Span{}
	switch op {
	case ir.Neg:
		switch a.Kind {
		case ir.CInt:
			if a.Int == math.MinInt32 {
				return ir.Const{}, reporting.UnaryOperation(sp, "-", "int")
			}
			return ir.IntConst(-a.Int), nil
		case ir.CFloat:
			return ir.FloatConst(math.Float32bits(-f32(a))), nil
		default:
			return ir.Const{}, reporting.UnaryOperation(sp, "-", kindName(a.Kind))
		}
	case ir.Not:
		if a.Kind != ir.CBool {
			return ir.Const{}, reporting.UnaryOperation(sp, "not", kindName(a.Kind))
		}
		return ir.BoolConst(!a.Bool), nil
	default:
		return ir.Const{}, reporting.UnaryOperation(sp, op.String(), kindName(a.Kind))
	}
}
