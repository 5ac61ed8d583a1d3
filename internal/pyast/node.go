// Package pyast parses a practical subset of Python source into a closed
// set of tagged tree nodes. It is a single-file, syntax-only parser: no name
// resolution, no type information, no cross-file state. The node model is a
// tagged union (one struct, one Kind enum) so that visitors can match
// exhaustively instead of probing for optional attributes.
package pyast

import "fmt"

// Position is a 1-based line/column location in the source file.
type Position struct {
	Line int
	Col  int
}

// SyntaxError reports the first parse failure in a file.
type SyntaxError struct {
	Msg  string
	Line int
	Col  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Col, e.Msg)
}

// Kind tags a Node variant.
type Kind int

const (
	KindModule Kind = iota

	// Statements.
	KindFunctionDef
	KindClassDef
	KindIf
	KindWhile
	KindFor
	KindTry
	KindExcept
	KindWith
	KindReturn
	KindRaise
	KindPass
	KindBreak
	KindContinue
	KindImport
	KindGlobal
	KindDelete
	KindAssert
	KindAssign
	KindAugAssign
	KindExprStmt

	// Expressions.
	KindName
	KindNumber
	KindString
	KindBool
	KindNone
	KindBinOp
	KindUnaryOp
	KindBoolOp
	KindCompare
	KindCall
	KindKeyword
	KindAttribute
	KindSubscript
	KindSlice
	KindList
	KindTuple
	KindDict
	KindSet
	KindPair
	KindLambda
	KindStar
	KindYield
	KindAwait
	KindIfExp
	KindComprehension
)

var kindNames = map[Kind]string{
	KindModule: "Module", KindFunctionDef: "FunctionDef", KindClassDef: "ClassDef",
	KindIf: "If", KindWhile: "While", KindFor: "For", KindTry: "Try",
	KindExcept: "Except", KindWith: "With", KindReturn: "Return", KindRaise: "Raise",
	KindPass: "Pass", KindBreak: "Break", KindContinue: "Continue",
	KindImport: "Import", KindGlobal: "Global", KindDelete: "Delete",
	KindAssert: "Assert", KindAssign: "Assign", KindAugAssign: "AugAssign",
	KindExprStmt: "ExprStmt", KindName: "Name", KindNumber: "Number",
	KindString: "String", KindBool: "Bool", KindNone: "None", KindBinOp: "BinOp",
	KindUnaryOp: "UnaryOp", KindBoolOp: "BoolOp", KindCompare: "Compare",
	KindCall: "Call", KindKeyword: "Keyword", KindAttribute: "Attribute",
	KindSubscript: "Subscript", KindSlice: "Slice", KindList: "List",
	KindTuple: "Tuple", KindDict: "Dict", KindSet: "Set", KindPair: "Pair",
	KindLambda: "Lambda", KindStar: "Star", KindYield: "Yield", KindAwait: "Await",
	KindIfExp: "IfExp", KindComprehension: "Comprehension",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Param is one declared parameter of a function or lambda.
type Param struct {
	Name       string
	Star       bool // *args
	DoubleStar bool // **kwargs
	Default    *Node
	Pos        Position
}

// Node is the single tagged-union tree node. Which payload fields are
// populated depends on Kind:
//
//	Module        Body
//	FunctionDef   Name, Params, Body, Items (decorators)
//	ClassDef      Name, Body, Args (base classes), Items (decorators)
//	If/While      Test, Body, Orelse
//	For           Target, Iter, Body, Orelse
//	Try           Body, Handlers, Orelse, Final
//	Except        ExcType (raw type text, "" = bare), Name (alias), Body
//	With          Items (context expressions), Body
//	Return/Raise  Value (may be nil)
//	Assign        Items (targets, left to right), Value
//	AugAssign     Target, Op, Value
//	ExprStmt      Value
//	Import        Text (raw statement text)
//	Global/Delete/Assert  Items / Items / Test+Value(msg)
//	Name          Name
//	Number        Text (raw), Num (parsed value when representable)
//	String/Bool   Text (raw)
//	BinOp/Compare Left, Op, Right
//	BoolOp        Left, Op ("and"/"or"), Right
//	UnaryOp       Op, Value
//	Call          Func, Args (positional, Keyword, Star entries in order)
//	Keyword       Name, Value
//	Attribute     Value, Name (attribute text)
//	Subscript     Value, Index
//	Slice         Items (lower, upper, step; nil slots omitted)
//	List/Tuple/Set  Items
//	Dict          Items (Pair nodes)
//	Pair          Left (key), Right (value)
//	Lambda        Params, Value (body expression)
//	Star          Value
//	Yield/Await   Value (may be nil for bare yield)
//	IfExp         Value (then), Test, Right (else)
//	Comprehension Value (element), Items (opaque clause expressions)
type Node struct {
	Kind Kind
	Pos  Position
	End  Position

	Name string
	Text string
	Op   string
	Num  float64

	Params []Param

	Target *Node
	Value  *Node
	Test   *Node
	Iter   *Node
	Left   *Node
	Right  *Node
	Func   *Node
	Index  *Node

	Args     []*Node
	Body     []*Node
	Orelse   []*Node
	Handlers []*Node
	Final    []*Node
	Items    []*Node

	ExcType string
}

// Span returns the number of source lines the node covers, inclusive.
func (n *Node) Span() int {
	if n.End.Line < n.Pos.Line {
		return 1
	}
	return n.End.Line - n.Pos.Line + 1
}
