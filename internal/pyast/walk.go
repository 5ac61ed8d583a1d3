package pyast

// Walk visits n and its children in source order. The visitor returns false
// to prune descent below the current node. Every Kind's children are listed
// here; adding a Kind without updating Walk is a bug.
func Walk(n *Node, visit func(*Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	switch n.Kind {
	case KindModule:
		walkAll(n.Body, visit)
	case KindFunctionDef:
		walkAll(n.Items, visit)
		for _, p := range n.Params {
			Walk(p.Default, visit)
		}
		walkAll(n.Body, visit)
	case KindClassDef:
		walkAll(n.Items, visit)
		walkAll(n.Args, visit)
		walkAll(n.Body, visit)
	case KindIf, KindWhile:
		Walk(n.Test, visit)
		walkAll(n.Body, visit)
		walkAll(n.Orelse, visit)
	case KindFor:
		Walk(n.Target, visit)
		Walk(n.Iter, visit)
		walkAll(n.Body, visit)
		walkAll(n.Orelse, visit)
	case KindTry:
		walkAll(n.Body, visit)
		walkAll(n.Handlers, visit)
		walkAll(n.Orelse, visit)
		walkAll(n.Final, visit)
	case KindExcept:
		walkAll(n.Body, visit)
	case KindWith:
		walkAll(n.Items, visit)
		walkAll(n.Body, visit)
	case KindReturn, KindRaise, KindExprStmt, KindStar, KindYield, KindAwait:
		Walk(n.Value, visit)
	case KindAssign:
		walkAll(n.Items, visit)
		Walk(n.Value, visit)
	case KindAugAssign:
		Walk(n.Target, visit)
		Walk(n.Value, visit)
	case KindAssert:
		Walk(n.Test, visit)
		Walk(n.Value, visit)
	case KindGlobal, KindDelete:
		walkAll(n.Items, visit)
	case KindPass, KindBreak, KindContinue, KindImport,
		KindName, KindNumber, KindString, KindBool, KindNone:
		// leaves
	case KindBinOp, KindCompare, KindBoolOp:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case KindUnaryOp, KindKeyword:
		Walk(n.Value, visit)
	case KindCall:
		Walk(n.Func, visit)
		walkAll(n.Args, visit)
	case KindAttribute:
		Walk(n.Value, visit)
	case KindSubscript:
		Walk(n.Value, visit)
		Walk(n.Index, visit)
	case KindSlice, KindList, KindTuple, KindDict, KindSet:
		walkAll(n.Items, visit)
	case KindPair:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case KindLambda:
		for _, p := range n.Params {
			Walk(p.Default, visit)
		}
		Walk(n.Value, visit)
	case KindIfExp:
		Walk(n.Value, visit)
		Walk(n.Test, visit)
		Walk(n.Right, visit)
	case KindComprehension:
		Walk(n.Value, visit)
		walkAll(n.Items, visit)
	}
}

func walkAll(ns []*Node, visit func(*Node) bool) {
	for _, c := range ns {
		Walk(c, visit)
	}
}

// Functions returns every function definition in the tree, outermost first,
// including methods and nested defs.
func Functions(root *Node) []*Node {
	var out []*Node
	Walk(root, func(n *Node) bool {
		if n.Kind == KindFunctionDef {
			out = append(out, n)
		}
		return true
	})
	return out
}
