// nasc-proxygen generates interceptor forwarding types.
//
// Given an interface declaration, it emits a type that implements the
// interface by routing every method call through an intercept.Pipeline,
// a typed constructor and a factory usable with Nasc.RegisterProxy.
//
// Usage:
//
//	//go:generate go run github.com/toutaio/toutago-nasc-resolver/cmd/nasc-proxygen -src greeter.go -type Greeter
//
// Flags:
//
//	-src   Go file declaring the interface (required)
//	-type  interface name (required)
//	-out   output file (default: <type>_proxy.gen.go next to -src)
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

const interceptImport = "github.com/toutaio/toutago-nasc-resolver/intercept"

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("nasc-proxygen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	srcPath := fs.String("src", "", "Go file declaring the interface")
	typeName := fs.String("type", "", "interface name")
	outPath := fs.String("out", "", "output .gen.go file path")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*srcPath) == "" {
		return fmt.Errorf("missing -src")
	}
	if strings.TrimSpace(*typeName) == "" {
		return fmt.Errorf("missing -type")
	}
	out := *outPath
	if out == "" {
		out = filepath.Join(filepath.Dir(*srcPath), strings.ToLower(*typeName)+"_proxy.gen.go")
	}

	src, err := os.ReadFile(*srcPath)
	if err != nil {
		return err
	}

	spec, err := parseInterface(filepath.Base(*srcPath), src, *typeName)
	if err != nil {
		return err
	}

	code, err := render(spec)
	if err != nil {
		return err
	}
	return os.WriteFile(out, code, 0o644)
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "nasc-proxygen:", err)
		os.Exit(1)
	}
}

// proxySpec is the template input.
type proxySpec struct {
	Source    string
	SourceSum string
	Package   string
	Interface string
	ProxyType string
	Imports   []goImport
	Methods   []methodSpec
}

type goImport struct {
	Name string // explicit alias, "" when implied by the path
	Path string
}

type methodSpec struct {
	Name       string
	Params     string // "a0 context.Context, a1 ...string"
	Results    string // "(string, error)" / "error" / ""
	ArgList    string // "a0, a1"
	CallArgs   string // "intercept.Arg[context.Context](args, 0), intercept.Arg[[]string](args, 1)..."
	ValueTypes []string
	HasError   bool
}

// parseInterface finds the named interface in src and collects its methods
// and the imports their signatures reference.
func parseInterface(filename string, src []byte, name string) (*proxySpec, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	var iface *ast.InterfaceType
	ast.Inspect(file, func(n ast.Node) bool {
		ts, ok := n.(*ast.TypeSpec)
		if !ok || ts.Name.Name != name {
			return iface == nil
		}
		if it, ok := ts.Type.(*ast.InterfaceType); ok && ts.TypeParams == nil {
			iface = it
		}
		return false
	})
	if iface == nil {
		return nil, fmt.Errorf("%s: no non-generic interface named %s", filename, name)
	}

	sum := sha256.Sum256(src)
	spec := &proxySpec{
		Source:    filename,
		SourceSum: hex.EncodeToString(sum[:]),
		Package:   file.Name.Name,
		Interface: name,
		ProxyType: strings.ToLower(name[:1]) + name[1:] + "Proxy",
	}

	qualifiers := make(map[string]bool)
	for _, field := range iface.Methods.List {
		if len(field.Names) == 0 {
			return nil, fmt.Errorf("%s: embedded interfaces are not supported, list the methods of %s explicitly", filename, types.ExprString(field.Type))
		}
		fn, ok := field.Type.(*ast.FuncType)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected method type %s", filename, types.ExprString(field.Type))
		}
		collectQualifiers(fn, qualifiers)
		for _, n := range field.Names {
			spec.Methods = append(spec.Methods, buildMethod(n.Name, fn))
		}
	}

	imports, err := referencedImports(file, qualifiers)
	if err != nil {
		return nil, err
	}
	spec.Imports = imports
	return spec, nil
}

func buildMethod(name string, fn *ast.FuncType) methodSpec {
	m := methodSpec{Name: name}

	var params, argList, callArgs []string
	i := 0
	for _, field := range fn.Params.List {
		typ := types.ExprString(field.Type)
		count := len(field.Names)
		if count == 0 {
			count = 1
		}
		for k := 0; k < count; k++ {
			arg := "a" + strconv.Itoa(i)
			argList = append(argList, arg)
			if ellipsis, ok := field.Type.(*ast.Ellipsis); ok {
				elem := types.ExprString(ellipsis.Elt)
				params = append(params, arg+" ..."+elem)
				callArgs = append(callArgs, fmt.Sprintf("intercept.Arg[[]%s](args, %d)...", elem, i))
			} else {
				params = append(params, arg+" "+typ)
				callArgs = append(callArgs, fmt.Sprintf("intercept.Arg[%s](args, %d)", typ, i))
			}
			i++
		}
	}

	var results []string
	if fn.Results != nil {
		for _, field := range fn.Results.List {
			typ := types.ExprString(field.Type)
			count := len(field.Names)
			if count == 0 {
				count = 1
			}
			for k := 0; k < count; k++ {
				results = append(results, typ)
			}
		}
	}
	if n := len(results); n > 0 && results[n-1] == "error" {
		m.HasError = true
		m.ValueTypes = results[:n-1]
	} else {
		m.ValueTypes = results
	}

	m.Params = strings.Join(params, ", ")
	m.ArgList = strings.Join(argList, ", ")
	m.CallArgs = strings.Join(callArgs, ", ")
	switch len(results) {
	case 0:
	case 1:
		m.Results = results[0]
	default:
		m.Results = "(" + strings.Join(results, ", ") + ")"
	}
	return m
}

// collectQualifiers records the package names used in selector expressions
// of a method signature.
func collectQualifiers(fn *ast.FuncType, into map[string]bool) {
	ast.Inspect(fn, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok {
				into[id.Name] = true
			}
		}
		return true
	})
}

func referencedImports(file *ast.File, qualifiers map[string]bool) ([]goImport, error) {
	var imports []goImport
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return nil, err
		}
		name := ""
		qualifier := path[strings.LastIndex(path, "/")+1:]
		if spec.Name != nil {
			name = spec.Name.Name
			qualifier = name
		}
		if qualifiers[qualifier] && path != interceptImport {
			imports = append(imports, goImport{Name: name, Path: path})
		}
	}
	sort.Slice(imports, func(i, j int) bool { return imports[i].Path < imports[j].Path })
	return imports, nil
}

func render(spec *proxySpec) ([]byte, error) {
	var sb strings.Builder
	if err := proxyTpl.Execute(&sb, spec); err != nil {
		return nil, err
	}
	code, err := format.Source([]byte(sb.String()))
	if err != nil {
		return nil, fmt.Errorf("gofmt/format failed: %w", err)
	}
	return code, nil
}

var proxyTpl = template.Must(template.New("proxy").Funcs(template.FuncMap{
	"valueVars": func(m methodSpec) string {
		vars := make([]string, len(m.ValueTypes))
		for i := range vars {
			vars[i] = "r" + strconv.Itoa(i)
		}
		return strings.Join(vars, ", ")
	},
}).Parse(`// Code generated by nasc-proxygen. DO NOT EDIT.
// source: {{.Source}} sha256:{{.SourceSum}}

package {{.Package}}

import (
{{- range .Imports}}
	{{if .Name}}{{.Name}} {{end}}"{{.Path}}"
{{- end}}

	"github.com/toutaio/toutago-nasc-resolver/intercept"
)

// {{.ProxyType}} forwards {{.Interface}} calls through an interceptor pipeline.
type {{.ProxyType}} struct {
	target   {{.Interface}}
	pipeline *intercept.Pipeline
}

// New{{.Interface}}Proxy wraps target so that every call runs through pipeline.
func New{{.Interface}}Proxy(target {{.Interface}}, pipeline *intercept.Pipeline) {{.Interface}} {
	return &{{.ProxyType}}{target: target, pipeline: pipeline}
}

// {{.Interface}}ProxyFactory adapts New{{.Interface}}Proxy to nasc.ProxyFactory.
func {{.Interface}}ProxyFactory(target interface{}, pipeline *intercept.Pipeline) (interface{}, error) {
	typed, err := intercept.As[{{.Interface}}](target)
	if err != nil {
		return nil, err
	}
	return New{{.Interface}}Proxy(typed, pipeline), nil
}
{{range $m := .Methods}}
func (p *{{$.ProxyType}}) {{$m.Name}}({{$m.Params}}) {{$m.Results}} {
	{{if $m.ValueTypes}}results{{else}}_{{end}}, err := p.pipeline.Invoke("{{$m.Name}}", []interface{}{ {{- $m.ArgList -}} }, func(args []interface{}) ([]interface{}, error) {
		{{- if $m.HasError}}
		{{if $m.ValueTypes}}{{valueVars $m}}, {{end}}err := p.target.{{$m.Name}}({{$m.CallArgs}})
		return []interface{}{ {{- valueVars $m -}} }, err
		{{- else if $m.ValueTypes}}
		{{valueVars $m}} := p.target.{{$m.Name}}({{$m.CallArgs}})
		return []interface{}{ {{- valueVars $m -}} }, nil
		{{- else}}
		p.target.{{$m.Name}}({{$m.CallArgs}})
		return nil, nil
		{{- end}}
	})
	{{- if $m.HasError}}
	return {{range $i, $t := $m.ValueTypes}}intercept.Result[{{$t}}](results, {{$i}}), {{end}}err
	{{- else}}
	intercept.Check(err)
	{{- if $m.ValueTypes}}
	return {{range $i, $t := $m.ValueTypes}}{{if $i}}, {{end}}intercept.Result[{{$t}}](results, {{$i}}){{end}}
	{{- end}}
	{{- end}}
}
{{end}}`))
