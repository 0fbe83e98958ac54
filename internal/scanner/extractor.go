// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"tddflow/pkg/types"
)

const (
	// MaxSourceSize is the largest file the extractor parses (1MB).
	MaxSourceSize = 1 << 20

	maxSignatureLength   = 160
	maxDescriptionLength = 240
)

var (
	// ErrUnsupportedLanguage is returned for extensions without a grammar.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrFileTooLarge is returned for sources above MaxSourceSize.
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")
)

type grammar struct {
	language func() *sitter.Language
	walk     func(w *walker, root *sitter.Node)
}

var grammars = map[string]grammar{
	".go":   {golang.GetLanguage, walkGo},
	".js":   {javascript.GetLanguage, walkJS},
	".jsx":  {javascript.GetLanguage, walkJS},
	".ts":   {typescript.GetLanguage, walkJS},
	".tsx":  {tsx.GetLanguage, walkJS},
	".py":   {python.GetLanguage, walkPython},
	".java": {java.GetLanguage, walkJava},
	".rs":   {rust.GetLanguage, walkRust},
}

// Supported reports whether the extension of path has a grammar.
func Supported(path string) bool {
	_, ok := grammars[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ExtractFile reads root/rel and returns its public assets.
func ExtractFile(ctx context.Context, root, rel string) ([]types.AssetReference, error) {
	if !Supported(rel) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, rel)
	}

	full := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", rel, err)
	}
	if info.Size() > MaxSourceSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, rel, info.Size())
	}

	src, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return ParseAssets(ctx, rel, src)
}

// ParseAssets parses src with the grammar selected by the extension of path
// and returns its exported or public declarations. Every asset carries the
// file's imports as dependencies.
func ParseAssets(ctx context.Context, path string, src []byte) ([]types.AssetReference, error) {
	g, ok := grammars[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, path)
	}
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%s: content is not valid UTF-8", path)
	}

	// A parser per call keeps concurrent extraction safe.
	parser := sitter.NewParser()
	parser.SetLanguage(g.language())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parse %s: empty syntax tree", path)
	}

	w := &walker{src: src, path: path}
	g.walk(w, root)

	if len(w.imports) > 0 {
		for i := range w.assets {
			w.assets[i].Dependencies = append([]string(nil), w.imports...)
		}
	}
	return w.assets, nil
}

// walker accumulates assets for one file.
type walker struct {
	src     []byte
	path    string
	assets  []types.AssetReference
	imports []string
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.src)
}

func (w *walker) field(n *sitter.Node, name string) string {
	return w.text(n.ChildByFieldName(name))
}

// add records an asset declared by node; doc is the node whose preceding
// comment describes it (an export or decorator wrapper, or node itself).
func (w *walker) add(t types.AssetType, name string, node, doc *sitter.Node) {
	if name == "" {
		return
	}
	w.assets = append(w.assets, types.AssetReference{
		Type:        t,
		Name:        name,
		FilePath:    w.path,
		LineNumber:  int(node.StartPoint().Row) + 1,
		Signature:   w.signature(node),
		Description: w.leadingComment(doc),
	})
}

func (w *walker) addImport(path string) {
	path = strings.Trim(strings.TrimSpace(path), "\"'`")
	if path != "" {
		w.imports = append(w.imports, path)
	}
}

// signature is the first source line of a declaration without its body opener.
func (w *walker) signature(n *sitter.Node) string {
	sig, _, _ := strings.Cut(w.text(n), "\n")
	sig = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sig), "{"))
	return truncate(sig, maxSignatureLength)
}

// leadingComment joins the comment nodes directly above n.
func (w *walker) leadingComment(n *sitter.Node) string {
	var lines []string
	expectRow := n.StartPoint().Row
	for prev := n.PrevNamedSibling(); prev != nil && isComment(prev); prev = prev.PrevNamedSibling() {
		if prev.EndPoint().Row+1 < expectRow {
			break
		}
		lines = append([]string{cleanComment(w.text(prev))}, lines...)
		expectRow = prev.StartPoint().Row
	}
	return truncate(strings.Join(strings.Fields(strings.Join(lines, " ")), " "), maxDescriptionLength)
}

func isComment(n *sitter.Node) bool {
	switch n.Type() {
	case "comment", "line_comment", "block_comment":
		return true
	}
	return false
}

func cleanComment(c string) string {
	c = strings.TrimSpace(c)
	c = strings.TrimPrefix(c, "///")
	c = strings.TrimPrefix(c, "//")
	c = strings.TrimPrefix(c, "#")
	c = strings.TrimPrefix(c, "/**")
	c = strings.TrimPrefix(c, "/*")
	c = strings.TrimSuffix(c, "*/")
	var out []string
	for _, line := range strings.Split(c, "\n") {
		out = append(out, strings.TrimLeft(strings.TrimSpace(line), "* "))
	}
	return strings.Join(out, " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// findAll calls fn for every descendant of n with the given type.
func findAll(n *sitter.Node, typ string, fn func(*sitter.Node)) {
	for _, c := range namedChildren(n) {
		if c.Type() == typ {
			fn(c)
			continue
		}
		findAll(c, typ, fn)
	}
}

func hasDescendant(n *sitter.Node, kinds ...string) bool {
	for _, c := range namedChildren(n) {
		for _, k := range kinds {
			if c.Type() == k {
				return true
			}
		}
		if hasDescendant(c, kinds...) {
			return true
		}
	}
	return false
}

func startsUpper(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

func walkGo(w *walker, root *sitter.Node) {
	for _, n := range namedChildren(root) {
		switch n.Type() {
		case "import_declaration":
			findAll(n, "import_spec", func(spec *sitter.Node) {
				w.addImport(w.field(spec, "path"))
			})
		case "function_declaration", "method_declaration":
			if name := w.field(n, "name"); startsUpper(name) {
				w.add(types.AssetFunction, name, n, n)
			}
		case "type_declaration":
			for _, spec := range namedChildren(n) {
				if spec.Type() != "type_spec" && spec.Type() != "type_alias" {
					continue
				}
				name := w.field(spec, "name")
				if !startsUpper(name) {
					continue
				}
				kind := types.AssetTypeDef
				if t := spec.ChildByFieldName("type"); t != nil {
					switch t.Type() {
					case "struct_type":
						kind = types.AssetClass
					case "interface_type":
						kind = types.AssetInterface
					}
				}
				w.add(kind, name, spec, n)
			}
		case "const_declaration":
			findAll(n, "const_spec", func(spec *sitter.Node) {
				if name := w.field(spec, "name"); startsUpper(name) {
					w.add(types.AssetConstant, name, spec, n)
				}
			})
		}
	}
}

func walkJS(w *walker, root *sitter.Node) {
	for _, n := range namedChildren(root) {
		switch n.Type() {
		case "import_statement":
			w.addImport(w.field(n, "source"))
		case "export_statement":
			for _, decl := range namedChildren(n) {
				w.jsDeclaration(decl, n)
			}
		}
	}
}

func (w *walker) jsDeclaration(decl, doc *sitter.Node) {
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration":
		name := w.field(decl, "name")
		kind := types.AssetFunction
		if startsUpper(name) && hasDescendant(decl, "jsx_element", "jsx_self_closing_element") {
			kind = types.AssetComponent
		}
		w.add(kind, name, decl, doc)
	case "class_declaration", "abstract_class_declaration":
		kind := types.AssetClass
		for _, c := range namedChildren(decl) {
			if c.Type() == "class_heritage" && strings.Contains(w.text(c), "Component") {
				kind = types.AssetComponent
			}
		}
		w.add(kind, w.field(decl, "name"), decl, doc)
	case "interface_declaration":
		w.add(types.AssetInterface, w.field(decl, "name"), decl, doc)
	case "type_alias_declaration", "enum_declaration":
		w.add(types.AssetTypeDef, w.field(decl, "name"), decl, doc)
	case "lexical_declaration", "variable_declaration":
		for _, d := range namedChildren(decl) {
			if d.Type() != "variable_declarator" {
				continue
			}
			name := d.ChildByFieldName("name")
			if name == nil || name.Type() != "identifier" {
				continue
			}
			kind := types.AssetConstant
			if v := d.ChildByFieldName("value"); v != nil {
				switch v.Type() {
				case "arrow_function", "function", "function_expression":
					kind = types.AssetFunction
					if startsUpper(w.text(name)) && hasDescendant(v, "jsx_element", "jsx_self_closing_element") {
						kind = types.AssetComponent
					}
				}
			}
			w.add(kind, w.text(name), decl, doc)
		}
	}
}

func walkPython(w *walker, root *sitter.Node) {
	for _, n := range namedChildren(root) {
		switch n.Type() {
		case "import_statement":
			for _, c := range namedChildren(n) {
				switch c.Type() {
				case "dotted_name":
					w.addImport(w.text(c))
				case "aliased_import":
					w.addImport(w.field(c, "name"))
				}
			}
		case "import_from_statement":
			w.addImport(w.field(n, "module_name"))
		case "decorated_definition":
			if def := n.ChildByFieldName("definition"); def != nil {
				w.pythonDefinition(def, n)
			}
		case "function_definition", "class_definition":
			w.pythonDefinition(n, n)
		case "expression_statement":
			for _, a := range namedChildren(n) {
				if a.Type() != "assignment" {
					continue
				}
				left := a.ChildByFieldName("left")
				if left != nil && left.Type() == "identifier" && isConstantName(w.text(left)) {
					w.add(types.AssetConstant, w.text(left), n, n)
				}
			}
		}
	}
}

func (w *walker) pythonDefinition(def, doc *sitter.Node) {
	name := w.field(def, "name")
	if strings.HasPrefix(name, "_") {
		return
	}
	kind := types.AssetFunction
	if def.Type() == "class_definition" {
		kind = types.AssetClass
	}
	w.add(kind, name, def, doc)

	if docstring := w.docstring(def); docstring != "" {
		w.assets[len(w.assets)-1].Description = docstring
	}
}

// docstring returns the leading string literal of a Python body.
func (w *walker) docstring(def *sitter.Node) string {
	body := def.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 || first.NamedChild(0).Type() != "string" {
		return ""
	}
	s := strings.Trim(w.text(first.NamedChild(0)), `"'`)
	return truncate(strings.Join(strings.Fields(s), " "), maxDescriptionLength)
}

func isConstantName(name string) bool {
	hasLetter := false
	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

func walkJava(w *walker, root *sitter.Node) {
	for _, n := range namedChildren(root) {
		switch n.Type() {
		case "import_declaration":
			imp := strings.TrimSuffix(strings.TrimPrefix(w.text(n), "import"), ";")
			w.addImport(strings.TrimPrefix(strings.TrimSpace(imp), "static "))
		case "class_declaration", "record_declaration":
			if !w.javaPublic(n) {
				continue
			}
			w.add(types.AssetClass, w.field(n, "name"), n, n)
			if body := n.ChildByFieldName("body"); body != nil {
				for _, m := range namedChildren(body) {
					if m.Type() == "method_declaration" && w.javaPublic(m) {
						w.add(types.AssetFunction, w.field(m, "name"), m, m)
					}
				}
			}
		case "interface_declaration":
			if w.javaPublic(n) {
				w.add(types.AssetInterface, w.field(n, "name"), n, n)
			}
		case "enum_declaration":
			if w.javaPublic(n) {
				w.add(types.AssetTypeDef, w.field(n, "name"), n, n)
			}
		}
	}
}

func (w *walker) javaPublic(n *sitter.Node) bool {
	for _, c := range namedChildren(n) {
		if c.Type() == "modifiers" && strings.Contains(w.text(c), "public") {
			return true
		}
	}
	return false
}

func walkRust(w *walker, root *sitter.Node) {
	for _, n := range namedChildren(root) {
		switch n.Type() {
		case "use_declaration":
			w.addImport(w.field(n, "argument"))
		case "impl_item":
			body := n.ChildByFieldName("body")
			if body == nil {
				continue
			}
			for _, item := range namedChildren(body) {
				if item.Type() == "function_item" && rustPublic(item) {
					w.add(types.AssetFunction, w.field(item, "name"), item, item)
				}
			}
		default:
			if !rustPublic(n) {
				continue
			}
			if kind, ok := rustKinds[n.Type()]; ok {
				w.add(kind, w.field(n, "name"), n, n)
			}
		}
	}
}

var rustKinds = map[string]types.AssetType{
	"function_item": types.AssetFunction,
	"struct_item":   types.AssetClass,
	"union_item":    types.AssetClass,
	"enum_item":     types.AssetTypeDef,
	"type_item":     types.AssetTypeDef,
	"trait_item":    types.AssetInterface,
	"const_item":    types.AssetConstant,
	"static_item":   types.AssetConstant,
}

func rustPublic(n *sitter.Node) bool {
	for _, c := range namedChildren(n) {
		if c.Type() == "visibility_modifier" {
			return true
		}
	}
	return false
}
