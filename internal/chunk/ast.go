package chunk

// Point is a zero-indexed row/column position in a source file, mirroring
// tree-sitter's own point representation.
type Point struct {
	Row    uint32
	Column uint32
}

// Node is a language-agnostic AST node produced by Parser.Parse. It wraps
// a tree-sitter node with the fields the symbol extractor and chunker
// actually need, so the rest of the package never imports the
// tree-sitter bindings directly.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	HasError   bool
	Children   []*Node
}

// GetContent returns the source slice a node spans.
func (n *Node) GetContent(source []byte) string {
	if n.StartByte >= n.EndByte || int(n.EndByte) > len(source) {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

// FindChildByType returns the first direct child of the given type.
func (n *Node) FindChildByType(nodeType string) *Node {
	for _, child := range n.Children {
		if child.Type == nodeType {
			return child
		}
	}
	return nil
}

// FindChildrenByType returns every direct child of the given type.
func (n *Node) FindChildrenByType(nodeType string) []*Node {
	var result []*Node
	for _, child := range n.Children {
		if child.Type == nodeType {
			result = append(result, child)
		}
	}
	return result
}

// FindAllByType returns every node of the given type anywhere in the
// subtree rooted at n, including n itself.
func (n *Node) FindAllByType(nodeType string) []*Node {
	var result []*Node
	if n.Type == nodeType {
		result = append(result, n)
	}
	for _, child := range n.Children {
		result = append(result, child.FindAllByType(nodeType)...)
	}
	return result
}

// Walk visits n and its descendants depth-first, calling fn on each node.
// fn returning false prunes that node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Tree is a parsed source file: the converted root node plus the source
// bytes and language needed to resolve node content and pick a
// LanguageConfig for symbol extraction.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// SymbolType classifies a Symbol by the kind of declaration it came from.
type SymbolType string

const (
	SymbolTypeFunction SymbolType = "function"
	SymbolTypeMethod   SymbolType = "method"
	SymbolTypeClass    SymbolType = "class"
	SymbolTypeInterface SymbolType = "interface"
	SymbolTypeType     SymbolType = "type"
	SymbolTypeConstant SymbolType = "constant"
	SymbolTypeVariable SymbolType = "variable"
)

// Symbol is a named declaration extracted from a parsed AST: a function,
// method, class, interface, type, constant, or variable, along with its
// location and a one-line signature usable without reading the full body.
type Symbol struct {
	Name       string
	Type       SymbolType
	StartLine  int
	EndLine    int
	Signature  string
	DocComment string
}

// LanguageConfig maps a language's tree-sitter node types onto the
// symbol categories SymbolExtractor recognizes. NameField is currently
// informational only; extractName dispatches on language name instead.
type LanguageConfig struct {
	Name           string
	Extensions     []string
	FunctionTypes  []string
	MethodTypes    []string
	ClassTypes     []string
	InterfaceTypes []string
	TypeDefTypes   []string
	ConstantTypes  []string
	VariableTypes  []string
	NameField      string
}
