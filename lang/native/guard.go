package native

import (
	"fmt"
	"strings"

	"github.com/mikeyobrien/tonic/lang/ir"
	"github.com/mikeyobrien/tonic/lang/mir"
)

// emitGuardCondition lowers a `when` guard's flat stack of ir.Op values to
// an i1 condition, walking the same stack-machine shape lang/interp's
// ir_eval.go executes directly. Grounded on
// original_source/src/llvm_backend/codegen.rs's emit_guard_condition: guards
// are restricted to the subset of ir.Op a boolean expression can actually
// produce (loads, int/bool/nil constants, comparisons, calls, not/bang), so
// anything else is a genuine unsupported-guard-op error rather than a
// missing case to silently skip.
func (c *compiler) emitGuardCondition(functionName string, guardOps []ir.Op, params []mir.TypedName, label string) (string, error) {
	var stack []string

	for index, op := range guardOps {
		switch o := op.(type) {
		case ir.LoadVariable:
			if paramIndex, ok := paramIndexOfTyped(params, o.Name); ok {
				stack = append(stack, fmt.Sprintf("%%arg%d", paramIndex))
				continue
			}
			register := fmt.Sprintf("%%%s_load_binding_%d", label, index)
			c.lines = append(c.lines, fmt.Sprintf("  %s = call i64 @tn_runtime_load_binding(i64 %d)", register, hashText(o.Name)))
			stack = append(stack, register)

		case ir.ConstInt:
			register := fmt.Sprintf("%%%s_const_int_%d", label, index)
			c.lines = append(c.lines, fmt.Sprintf("  %s = add i64 0, %d", register, o.Value))
			stack = append(stack, register)

		case ir.ConstBool:
			register := fmt.Sprintf("%%%s_const_bool_%d", label, index)
			c.lines = append(c.lines, fmt.Sprintf("  %s = add i64 0, %d", register, boolToInt(o.Value)))
			stack = append(stack, register)

		case ir.ConstNil:
			register := fmt.Sprintf("%%%s_const_nil_%d", label, index)
			c.lines = append(c.lines, fmt.Sprintf("  %s = add i64 0, 0", register))
			stack = append(stack, register)

		case ir.Call:
			args, rest, err := popN(stack, o.Argc, functionName)
			if err != nil {
				return "", err
			}
			stack = rest

			renderedArgs := make([]string, len(args))
			for i, arg := range args {
				renderedArgs[i] = fmt.Sprintf("i64 %s", arg)
			}

			result := fmt.Sprintf("%%%s_call_%d", label, index)
			if o.Callee.Builtin != "" {
				if err := c.emitBuiltinCall(result, o.Callee.Builtin, renderedArgs, functionName); err != nil {
					return "", err
				}
			} else {
				key := functionKey{o.Callee.Function, o.Argc}
				if symbol, ok := c.callableSymbols[key]; ok {
					c.lines = append(c.lines, fmt.Sprintf("  %s = call i64 @%s(%s)", result, symbol, strings.Join(renderedArgs, ", ")))
				} else if c.anyClauseNamed(o.Callee.Function) {
					c.lines = append(c.lines, fmt.Sprintf("  %s = call i64 @tn_runtime_error_arity_mismatch()", result))
				} else {
					return "", fail("llvm backend unknown guard call target %s in function %s", o.Callee.Function, functionName)
				}
			}
			stack = append(stack, result)

		case ir.BinaryOp:
			right, stack1, err := popOne(stack, functionName)
			if err != nil {
				return "", err
			}
			left, stack2, err := popOne(stack1, functionName)
			if err != nil {
				return "", err
			}
			stack = stack2

			predicate, isCompare := guardComparisonPredicate(o.Name)
			if isCompare {
				cmpRegister := fmt.Sprintf("%%%s_cmp_%d", label, index)
				valueRegister := fmt.Sprintf("%%%s_cmp_value_%d", label, index)
				c.lines = append(c.lines,
					fmt.Sprintf("  %s = icmp %s i64 %s, %s", cmpRegister, predicate, left, right),
					fmt.Sprintf("  %s = zext i1 %s to i64", valueRegister, cmpRegister),
				)
				stack = append(stack, valueRegister)
				continue
			}

			return "", fail("llvm backend unsupported guard binary op %s in function %s", o.Name, functionName)

		case ir.UnaryOp:
			value, rest, err := popOne(stack, functionName)
			if err != nil {
				return "", err
			}
			stack = rest

			switch o.Name {
			case "bang":
				truthy := fmt.Sprintf("%%%s_bang_truthy_%d", label, index)
				bangValue := fmt.Sprintf("%%%s_bang_value_%d", label, index)
				c.lines = append(c.lines,
					fmt.Sprintf("  %s = icmp ne i64 %s, 0", truthy, value),
					fmt.Sprintf("  %s = zext i1 %s to i64", bangValue, truthy),
				)
				stack = append(stack, bangValue)
			case "not":
				strict := fmt.Sprintf("%%%s_not_strict_%d", label, index)
				notValue := fmt.Sprintf("%%%s_not_value_%d", label, index)
				c.lines = append(c.lines,
					fmt.Sprintf("  %s = icmp eq i64 %s, 0", strict, value),
					fmt.Sprintf("  %s = zext i1 %s to i64", notValue, strict),
				)
				stack = append(stack, notValue)
			default:
				return "", fail("llvm backend unsupported guard unary op %s in function %s", o.Name, functionName)
			}

		default:
			return "", fail("llvm backend unsupported guard op in function %s", functionName)
		}
	}

	if len(stack) == 0 {
		return "", fail("llvm backend guard stack underflow in function %s", functionName)
	}
	finalValue := stack[len(stack)-1]
	stack = stack[:len(stack)-1]
	if len(stack) != 0 {
		return "", fail("llvm backend guard stack leftover values in function %s", functionName)
	}

	condition := fmt.Sprintf("%%%s_truthy", label)
	c.lines = append(c.lines, fmt.Sprintf("  %s = icmp ne i64 %s, 0", condition, finalValue))
	return condition, nil
}

// guardComparisonPredicate maps an ir.BinaryOp's raw mnemonic (the
// lang/ir/lang/interp namespace: "cmp_eq"/"cmp_lt"/...) to an LLVM icmp
// predicate, matching evalBinaryByName's CmpInt dispatch in
// lang/interp/ir_eval.go.
func guardComparisonPredicate(name string) (string, bool) {
	switch name {
	case "cmp_eq":
		return "eq", true
	case "cmp_neq":
		return "ne", true
	case "cmp_lt":
		return "slt", true
	case "cmp_lte":
		return "sle", true
	case "cmp_gt":
		return "sgt", true
	case "cmp_gte":
		return "sge", true
	default:
		return "", false
	}
}

func paramIndexOfTyped(params []mir.TypedName, name string) (int, bool) {
	for i, p := range params {
		if p.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (c *compiler) anyClauseNamed(name string) bool {
	for key := range c.callableSymbols {
		if key.Name == name {
			return true
		}
	}
	return false
}

func popOne(stack []string, functionName string) (string, []string, error) {
	if len(stack) == 0 {
		return "", nil, fail("llvm backend guard stack underflow in function %s", functionName)
	}
	return stack[len(stack)-1], stack[:len(stack)-1], nil
}

func popN(stack []string, n int, functionName string) ([]string, []string, error) {
	if len(stack) < n {
		return nil, nil, fail("llvm backend guard stack underflow in function %s", functionName)
	}
	split := len(stack) - n
	return stack[split:], stack[:split], nil
}
