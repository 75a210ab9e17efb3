// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package stubgen generates a typed *msgpackrpc.Client-backed struct from a
// plain Go interface definition, the static replacement for the reference
// implementation's IDLMockClient attribute proxy described in spec.md §9.
package stubgen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"golang.org/x/tools/imports"
)

// callKind is how a stub method talks to the underlying Client, chosen by a
// //mprpc: doc-comment marker on the interface method — the static analogue
// of idlmockclient.py's _async/_notify name-suffix convention.
type callKind int

const (
	callSync callKind = iota
	callAsync
	callNotify
)

type method struct {
	Name       string
	MethodName string // the wire method name, defaults to Name
	Params     []param
	Results    []string
	Kind       callKind
	Body       string
}

type param struct {
	Name string
	Type string
}

// Options configures Generate.
type Options struct {
	// PackageName is the generated file's package clause.
	PackageName string
	// InterfaceName is the interface to generate a stub for.
	InterfaceName string
	// StructName names the generated struct; defaults to InterfaceName+"Stub".
	StructName string
}

// Generate parses src for an interface named opts.InterfaceName and emits a
// Go source file defining a struct that implements it by delegating every
// method to its Client field, a *msgpackrpc.Client.
func Generate(src []byte, opts Options) ([]byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "stubgen_input.go", src, parser.ParseComments)
	if err != nil {
		return nil, errors.Wrap(err, "stubgen: parsing interface source")
	}

	iface, err := findInterface(f, opts.InterfaceName)
	if err != nil {
		return nil, err
	}

	methods, err := collectMethods(iface)
	if err != nil {
		return nil, err
	}

	structName := opts.StructName
	if structName == "" {
		structName = opts.InterfaceName + "Stub"
	}

	var buf bytes.Buffer
	if err := stubTemplate.Execute(&buf, struct {
		PackageName   string
		InterfaceName string
		StructName    string
		Methods       []method
	}{
		PackageName:   opts.PackageName,
		InterfaceName: opts.InterfaceName,
		StructName:    structName,
		Methods:       methods,
	}); err != nil {
		return nil, errors.Wrap(err, "stubgen: rendering template")
	}

	formatted, err := imports.Process("stub.go", buf.Bytes(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "stubgen: formatting generated source")
	}
	return formatted, nil
}

func findInterface(f *ast.File, name string) (*ast.InterfaceType, error) {
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok || ts.Name.Name != name {
				continue
			}
			iface, ok := ts.Type.(*ast.InterfaceType)
			if !ok {
				return nil, errors.Errorf("stubgen: %q is not an interface type", name)
			}
			return iface, nil
		}
	}
	return nil, errors.Errorf("stubgen: interface %q not found", name)
}

func collectMethods(iface *ast.InterfaceType) ([]method, error) {
	var methods []method
	for _, f := range iface.Methods.List {
		ft, ok := f.Type.(*ast.FuncType)
		if !ok {
			// Embedded interface; unsupported by this generator.
			continue
		}
		if len(f.Names) != 1 {
			return nil, errors.New("stubgen: method with no name or multiple names")
		}

		m := method{
			Name:       f.Names[0].Name,
			MethodName: f.Names[0].Name,
			Kind:       kindFromDoc(f.Doc),
		}

		if ft.Params != nil {
			i := 0
			for _, pf := range ft.Params.List {
				typ := renderType(pf.Type)
				names := pf.Names
				if len(names) == 0 {
					m.Params = append(m.Params, param{Name: fmt.Sprintf("arg%d", i), Type: typ})
					i++
					continue
				}
				for _, n := range names {
					m.Params = append(m.Params, param{Name: n.Name, Type: typ})
					i++
				}
			}
		}
		if ft.Results != nil {
			for _, rf := range ft.Results.List {
				typ := renderType(rf.Type)
				n := 1
				if len(rf.Names) > 0 {
					n = len(rf.Names)
				}
				for i := 0; i < n; i++ {
					m.Results = append(m.Results, typ)
				}
			}
		}

		m.Body = renderBody(m)
		methods = append(methods, m)
	}
	return methods, nil
}

// renderBody generates the method body as a string rather than folding this
// logic into the template: the shape of the call differs enough between
// sync/async/notify and by declared result arity that a Go function reads
// far more clearly than nested template conditionals.
func renderBody(m method) string {
	args := ""
	for _, p := range m.Params {
		args += ", " + p.Name
	}

	switch m.Kind {
	case callNotify:
		if len(m.Results) == 1 {
			return fmt.Sprintf("\treturn s.Client.Notify(%q%s)", m.MethodName, args)
		}
		return fmt.Sprintf("\t_ = s.Client.Notify(%q%s)", m.MethodName, args)

	case callAsync:
		// Async stub methods are expected to return (*msgpackrpc.Future, error).
		return fmt.Sprintf("\treturn s.Client.CallAsync(%q%s)", m.MethodName, args)

	default:
		if len(m.Results) != 2 || m.Results[0] == "interface{}" {
			return fmt.Sprintf("\treturn s.Client.Call(%q%s)", m.MethodName, args)
		}
		return fmt.Sprintf(
			"\traw, err := s.Client.Call(%q%s)\n\tresult, _ := raw.(%s)\n\treturn result, err",
			m.MethodName, args, m.Results[0],
		)
	}
}

func kindFromDoc(doc *ast.CommentGroup) callKind {
	if doc == nil {
		return callSync
	}
	for _, c := range doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		switch strings.TrimSpace(text) {
		case "mprpc:async":
			return callAsync
		case "mprpc:notify":
			return callNotify
		}
	}
	return callSync
}

// renderType prints the common type expressions stubgen targets
// (identifiers, selectors, slices, pointers) without pulling in go/printer.
func renderType(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return renderType(t.X) + "." + t.Sel.Name
	case *ast.StarExpr:
		return "*" + renderType(t.X)
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + renderType(t.Elt)
		}
		return "[...]" + renderType(t.Elt)
	case *ast.MapType:
		return "map[" + renderType(t.Key) + "]" + renderType(t.Value)
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return "interface{}"
		}
		return "interface{ /* unsupported */ }"
	case *ast.Ellipsis:
		return "..." + renderType(t.Elt)
	default:
		return "interface{}"
	}
}

var stubTemplate = template.Must(template.New("stub").Parse(`// Code generated by mprpc-gen. DO NOT EDIT.

package {{.PackageName}}

import "code.hybscloud.com/msgpackrpc"

// {{.StructName}} implements {{.InterfaceName}} by delegating every method
// to its Client field.
type {{.StructName}} struct {
	Client *msgpackrpc.Client
}

var _ {{.InterfaceName}} = (*{{.StructName}})(nil)

{{range .Methods}}
func (s *{{$.StructName}}) {{.Name}}({{range $i, $p := .Params}}{{if $i}}, {{end}}{{$p.Name}} {{$p.Type}}{{end}}) ({{range $i, $r := .Results}}{{if $i}}, {{end}}{{$r}}{{end}}) {
{{.Body}}
}
{{end}}
`))
