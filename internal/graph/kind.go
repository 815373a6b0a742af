package graph

import "strings"

// Op selects the behavior of a node from the fixed catalog.
type Op int

const (
	OpUnknown Op = iota
	OpBegin
	OpPrint
	OpBranch
	OpForLoop
	OpGetVariable
	OpSetVariable
	OpLiteralString
	OpLiteralInteger
	OpLiteralBoolean
	OpLiteralFloat
	OpAddInt
	OpSubtractInt
	OpMultiplyInt
	OpAddFloat
	OpLessInt
	OpComment
)

const (
	getVariablePrefix = "GET_VAR_"
	setVariablePrefix = "SET_VAR_"
)

var opTags = map[Op]string{
	OpBegin:          "EVENT_BEGIN_PLAY",
	OpPrint:          "ACTION_PRINT_STRING",
	OpBranch:         "BRANCH",
	OpForLoop:        "FOR_LOOP",
	OpLiteralString:  "LITERAL_STRING",
	OpLiteralInteger: "LITERAL_INTEGER",
	OpLiteralBoolean: "LITERAL_BOOLEAN",
	OpLiteralFloat:   "LITERAL_FLOAT",
	OpAddInt:         "MATH_ADD_INT",
	OpSubtractInt:    "MATH_SUBTRACT_INT",
	OpMultiplyInt:    "MATH_MULTIPLY_INT",
	OpAddFloat:       "MATH_ADD_FLOAT",
	OpLessInt:        "MATH_LESS_INT",
	OpComment:        "COMMENT",
}

var tagOps = func() map[string]Op {
	m := make(map[string]Op, len(opTags))
	for op, tag := range opTags {
		m[tag] = op
	}
	return m
}()

func (o Op) String() string {
	switch o {
	case OpGetVariable:
		return "GET_VAR"
	case OpSetVariable:
		return "SET_VAR"
	}
	if tag, ok := opTags[o]; ok {
		return tag
	}
	return "UNKNOWN"
}

// Kind is the resolved behavior of a node. Variable is set only for
// OpGetVariable and OpSetVariable.
type Kind struct {
	Op       Op
	Variable VariableID
	// tag keeps the original spelling of kinds the catalog does not know.
	tag string
}

func Begin() Kind          { return Kind{Op: OpBegin} }
func Print() Kind          { return Kind{Op: OpPrint} }
func Branch() Kind         { return Kind{Op: OpBranch} }
func ForLoop() Kind        { return Kind{Op: OpForLoop} }
func LiteralString() Kind  { return Kind{Op: OpLiteralString} }
func LiteralInteger() Kind { return Kind{Op: OpLiteralInteger} }
func LiteralBoolean() Kind { return Kind{Op: OpLiteralBoolean} }
func LiteralFloat() Kind   { return Kind{Op: OpLiteralFloat} }
func AddInt() Kind         { return Kind{Op: OpAddInt} }
func SubtractInt() Kind    { return Kind{Op: OpSubtractInt} }
func MultiplyInt() Kind    { return Kind{Op: OpMultiplyInt} }
func AddFloat() Kind       { return Kind{Op: OpAddFloat} }
func LessInt() Kind        { return Kind{Op: OpLessInt} }
func Comment() Kind        { return Kind{Op: OpComment} }

func GetVariable(id VariableID) Kind { return Kind{Op: OpGetVariable, Variable: id} }
func SetVariable(id VariableID) Kind { return Kind{Op: OpSetVariable, Variable: id} }

// ParseKind resolves an editor kind tag such as "BRANCH" or "GET_VAR_<id>".
// Tags outside the catalog yield OpUnknown and keep their spelling.
func ParseKind(tag string) Kind {
	if id, ok := strings.CutPrefix(tag, getVariablePrefix); ok && id != "" {
		return GetVariable(VariableID(id))
	}
	if id, ok := strings.CutPrefix(tag, setVariablePrefix); ok && id != "" {
		return SetVariable(VariableID(id))
	}
	if op, ok := tagOps[tag]; ok {
		return Kind{Op: op}
	}
	return Kind{Op: OpUnknown, tag: tag}
}

// String renders the editor tag for k.
func (k Kind) String() string {
	switch k.Op {
	case OpGetVariable:
		return getVariablePrefix + string(k.Variable)
	case OpSetVariable:
		return setVariablePrefix + string(k.Variable)
	case OpUnknown:
		if k.tag != "" {
			return k.tag
		}
	}
	return k.Op.String()
}

// IsLiteral reports whether k passes its own input through to its output.
func (k Kind) IsLiteral() bool {
	switch k.Op {
	case OpLiteralString, OpLiteralInteger, OpLiteralBoolean, OpLiteralFloat:
		return true
	}
	return false
}
