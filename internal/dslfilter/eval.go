package dslfilter

// Eval evaluates ast against event, a flat field-name -> value map. Field
// lookup treats the whole name as a literal key with no path traversal —
// by the time an event reaches the filter or the stream correlator, its
// keys are already the dotted UEM field names the normalizer produced.
// A missing key evaluates as an empty string, never an error.
func Eval(ast Node, event map[string]string) (bool, error) {
	switch n := ast.(type) {
	case Cmp:
		val := event[n.Field]
		switch n.Op {
		case OpEq:
			return val == n.Literal, nil
		case OpNe:
			return val != n.Literal, nil
		}
		return false, nil
	case And:
		left, err := Eval(n.Left, event)
		if err != nil {
			return false, err
		}
		right, err := Eval(n.Right, event)
		if err != nil {
			return false, err
		}
		return left && right, nil
	case Or:
		left, err := Eval(n.Left, event)
		if err != nil {
			return false, err
		}
		right, err := Eval(n.Right, event)
		if err != nil {
			return false, err
		}
		return left || right, nil
	default:
		return false, &parseError{msg: "unknown AST node"}
	}
}
