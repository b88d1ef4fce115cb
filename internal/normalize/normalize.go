package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/klyr/dotpath/internal/logging"
)

type Op string

const (
	OpResolve    Op = "resolve"
	OpEvaluate   Op = "evaluate"
	OpAbsolute   Op = "absolute"
	OpParent     Op = "parent"
	OpCompatible Op = "compatible"
	OpStack      Op = "stack"
	OpDotPattern Op = "dot_pattern"
)

var ops = []Op{OpResolve, OpEvaluate, OpAbsolute, OpParent, OpCompatible, OpStack, OpDotPattern}

// Ops lists every operation in a stable order.
func Ops() []Op {
	return append([]Op(nil), ops...)
}

func ParseOp(name string) (Op, error) {
	op := Op(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range ops {
		if op == known {
			return op, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOp, name)
}

// UsesBase reports whether the operation reads Request.Base.
func (o Op) UsesBase() bool {
	return o == OpResolve || o == OpAbsolute
}

// Request carries the operands of one operation as they arrive from JSON or
// YAML, where an operand can be missing rather than empty. Segment is the
// dot_pattern operand; Path is used when it is nil.
type Request struct {
	Op           Op
	Base         *string
	Path         *string
	EvaluateDots *bool
	Segment      *string
}

type Result struct {
	Op Op
	// Input is the unevaluated subject of the operation: the resolved
	// concatenation for base-relative operations, the path otherwise.
	Input      string
	Output     string
	Absent     bool
	Segments   []string
	Ascent     int
	DotPattern bool
}

// Apply runs the operation named by req.
func Apply(req Request) (Result, error) {
	res := Result{Op: req.Op}

	if req.Op.UsesBase() && req.Base == nil {
		return res, invalidArgument(req.Op, "basePath")
	}
	operand := req.Path
	if req.Op == OpDotPattern && req.Segment != nil {
		operand = req.Segment
	}
	if operand == nil {
		if _, err := ParseOp(string(req.Op)); err != nil {
			return res, err
		}
		return res, invalidArgument(req.Op, "path")
	}
	path := *operand

	var stack Stack
	evaluated := true
	switch req.Op {
	case OpResolve:
		res.Input = ResolvePath(*req.Base, path)
		res.Output = res.Input
		return res, nil
	case OpDotPattern:
		res.Input = path
		res.DotPattern = IsDotPattern(path)
		res.Output = strconv.FormatBool(res.DotPattern)
		return res, nil
	case OpEvaluate:
		res.Input = path
		stack = PathStack(path, true)
		res.Output = stack.String()
	case OpAbsolute:
		res.Input = ResolvePath(*req.Base, path)
		stack = PathStack(res.Input, true)
		out, ok := absolute(stack, *req.Base, path)
		res.Output = out
		res.Absent = !ok
	case OpParent:
		res.Input = ResolvePath(path, "..")
		stack = PathStack(res.Input, true)
		res.Output = stack.String()
	case OpCompatible:
		res.Input = path
		stack = PathStack(path, true)
		res.Output = stack.Compatible().String()
	case OpStack:
		evaluated = req.EvaluateDots == nil || *req.EvaluateDots
		res.Input = path
		stack = PathStack(path, evaluated)
		res.Output = stack.String()
		res.Segments = stack.Segments()
	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownOp, req.Op)
	}

	// A verbatim stack keeps ".." tokens as written; nothing ascended.
	if evaluated {
		res.Ascent = stack.Ascent()
	}
	if res.Ascent > 0 {
		logging.Diagnostics().Debug("path ascends past its start",
			"component", "normalize", "op", req.Op, "input", res.Input, "ascent", res.Ascent)
	}
	return res, nil
}
