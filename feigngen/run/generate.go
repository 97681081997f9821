package run

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strings"
	"text/template"

	"github.com/dave/dst"
)

// MockSource generates the source of a mock for cfg.Interface from the
// package's DST files. The emitted struct embeds feign.Mock and forwards
// every method to Intercept; the generator and the runtime agree only on the
// shape of Invocation and that entry point.
func MockSource(files []*dst.File, cfg Config) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("no Go files found for interface %s", cfg.Interface)
	}

	spec, err := findInterface(files, cfg.Interface)
	if err != nil {
		return "", err
	}

	iface, ok := spec.Type.(*dst.InterfaceType)
	if !ok {
		return "", fmt.Errorf("type %s is not an interface", cfg.Interface)
	}

	if spec.TypeParams != nil && len(spec.TypeParams.List) > 0 {
		return "", fmt.Errorf("interface %s is generic; feigngen does not support type parameters", cfg.Interface)
	}

	data := templateData{
		Pkg:       files[0].Name.Name,
		Interface: cfg.Interface,
		MockName:  cfg.MockName,
	}

	qualifiers := map[string]bool{}

	for _, field := range iface.Methods.List {
		funcType, ok := field.Type.(*dst.FuncType)
		if !ok {
			return "", fmt.Errorf("interface %s embeds another interface; feigngen does not support embedding", cfg.Interface)
		}

		if len(field.Names) == 0 {
			continue
		}

		method, err := buildMethod(field.Names[0].Name, funcType, qualifiers)
		if err != nil {
			return "", fmt.Errorf("method %s.%s: %w", cfg.Interface, field.Names[0].Name, err)
		}

		data.Methods = append(data.Methods, method)
	}

	data.Imports = resolveImports(files, qualifiers)

	var buf bytes.Buffer
	if err := mockTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("generated code does not format: %w", err)
	}

	return string(formatted), nil
}

type templateData struct {
	Pkg       string
	Interface string
	MockName  string
	Imports   []string
	Methods   []methodData
}

type methodData struct {
	Name    string
	Params  string // "arg0 string, rest ...int"
	Results string // "(int, error)", "error", or ""
	Args    string // "arg0, rest"
	Returns string // "feign.Out[int](out, 0), feign.Out[error](out, 1)"
	Void    bool
}

func buildMethod(name string, funcType *dst.FuncType, qualifiers map[string]bool) (methodData, error) {
	method := methodData{Name: name}

	var params, args []string

	index := 0

	if funcType.Params != nil {
		for _, field := range funcType.Params.List {
			typeStr, err := exprString(field.Type, qualifiers)
			if err != nil {
				return methodData{}, err
			}

			names := paramNames(field, &index)
			params = append(params, strings.Join(names, ", ")+" "+typeStr)
			args = append(args, names...)
		}
	}

	method.Params = strings.Join(params, ", ")
	method.Args = strings.Join(args, ", ")

	var returns []string

	var results []string

	if funcType.Results != nil {
		for _, field := range funcType.Results.List {
			typeStr, err := exprString(field.Type, qualifiers)
			if err != nil {
				return methodData{}, err
			}

			// Result names collapse; only positions matter to Out.
			count := len(field.Names)
			if count == 0 {
				count = 1
			}

			for j := 0; j < count; j++ {
				results = append(results, typeStr)
				returns = append(returns, fmt.Sprintf("feign.Out[%s](out, %d)", typeStr, len(returns)))
			}
		}
	}

	switch len(results) {
	case 0:
		method.Void = true
	case 1:
		method.Results = " " + results[0]
	default:
		method.Results = " (" + strings.Join(results, ", ") + ")"
	}

	method.Returns = strings.Join(returns, ", ")

	return method, nil
}

func paramNames(field *dst.Field, index *int) []string {
	count := len(field.Names)
	if count == 0 {
		count = 1
	}

	names := make([]string, 0, count)

	for i := 0; i < count; i++ {
		if i < len(field.Names) && field.Names[i].Name != "" && field.Names[i].Name != "_" {
			names = append(names, field.Names[i].Name)
		} else {
			names = append(names, fmt.Sprintf("arg%d", *index))
		}

		*index++
	}

	return names
}

// exprString renders a type expression back to source, recording package
// qualifiers it references so their imports can be carried over.
func exprString(expr dst.Expr, qualifiers map[string]bool) (string, error) {
	switch t := expr.(type) {
	case *dst.Ident:
		if t.Path != "" {
			qualifiers[t.Path] = true
		}

		return t.Name, nil
	case *dst.SelectorExpr:
		pkg, ok := t.X.(*dst.Ident)
		if !ok {
			return "", fmt.Errorf("unsupported selector base %T", t.X)
		}

		qualifiers[pkg.Name] = true

		return pkg.Name + "." + t.Sel.Name, nil
	case *dst.StarExpr:
		inner, err := exprString(t.X, qualifiers)

		return "*" + inner, err
	case *dst.ArrayType:
		if t.Len != nil {
			return "", fmt.Errorf("fixed-size arrays are not supported")
		}

		inner, err := exprString(t.Elt, qualifiers)

		return "[]" + inner, err
	case *dst.Ellipsis:
		inner, err := exprString(t.Elt, qualifiers)

		return "..." + inner, err
	case *dst.MapType:
		key, err := exprString(t.Key, qualifiers)
		if err != nil {
			return "", err
		}

		value, err := exprString(t.Value, qualifiers)

		return "map[" + key + "]" + value, err
	case *dst.ChanType:
		inner, err := exprString(t.Value, qualifiers)

		switch t.Dir {
		case dst.RECV:
			return "<-chan " + inner, err
		case dst.SEND:
			return "chan<- " + inner, err
		default:
			return "chan " + inner, err
		}
	case *dst.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return "any", nil
		}

		return "", fmt.Errorf("inline non-empty interface types are not supported")
	case *dst.FuncType:
		return funcTypeString(t, qualifiers)
	default:
		return "", fmt.Errorf("unsupported type expression %T", expr)
	}
}

func funcTypeString(t *dst.FuncType, qualifiers map[string]bool) (string, error) {
	var params, results []string

	if t.Params != nil {
		for _, field := range t.Params.List {
			s, err := exprString(field.Type, qualifiers)
			if err != nil {
				return "", err
			}

			count := len(field.Names)
			if count == 0 {
				count = 1
			}

			for j := 0; j < count; j++ {
				params = append(params, s)
			}
		}
	}

	if t.Results != nil {
		for _, field := range t.Results.List {
			s, err := exprString(field.Type, qualifiers)
			if err != nil {
				return "", err
			}

			count := len(field.Names)
			if count == 0 {
				count = 1
			}

			for j := 0; j < count; j++ {
				results = append(results, s)
			}
		}
	}

	out := "func(" + strings.Join(params, ", ") + ")"

	switch len(results) {
	case 0:
	case 1:
		out += " " + results[0]
	default:
		out += " (" + strings.Join(results, ", ") + ")"
	}

	return out, nil
}

// resolveImports maps the package qualifiers used in signatures back to the
// import specs of the source files.
func resolveImports(files []*dst.File, qualifiers map[string]bool) []string {
	var imports []string

	seen := map[string]bool{}

	for _, file := range files {
		for _, imp := range file.Imports {
			path := strings.Trim(imp.Path.Value, `"`)

			name := path[strings.LastIndex(path, "/")+1:]
			decl := `"` + path + `"`

			if imp.Name != nil {
				name = imp.Name.Name
				decl = name + " " + decl
			}

			if qualifiers[name] && !seen[decl] {
				seen[decl] = true

				imports = append(imports, decl)
			}
		}
	}

	sort.Strings(imports)

	return imports
}

var mockTemplate = template.Must(template.New("mock").Parse(`// Code generated by feigngen. DO NOT EDIT.

package {{.Pkg}}

import (
{{- range .Imports}}
	{{.}}
{{- end}}

	"github.com/feigntest/feign"
)

// {{.MockName}} is a feign test double for {{.Interface}}.
type {{.MockName}} struct {
	feign.Mock
}

// New{{.MockName}} constructs the mock, bound to the active feign session.
func New{{.MockName}}(opts ...feign.MockOption) *{{.MockName}} {
	m := &{{.MockName}}{}
	m.Init("{{.MockName}}", opts...)

	return m
}

var _ {{.Interface}} = (*{{.MockName}})(nil)
{{range .Methods}}
func (m *{{$.MockName}}) {{.Name}}({{.Params}}){{.Results}} {
{{- if .Void}}
	m.Intercept(feign.Invocation{Member: "{{.Name}}", Kind: feign.KindMethod, Args: []any{ {{.Args}} }})
{{- else}}
	out := m.Intercept(feign.Invocation{Member: "{{.Name}}", Kind: feign.KindMethod, Args: []any{ {{.Args}} }})

	return {{.Returns}}
{{- end}}
}
{{end}}`))

func findInterface(files []*dst.File, name string) (*dst.TypeSpec, error) {
	for _, file := range files {
		for _, decl := range file.Decls {
			genDecl, ok := decl.(*dst.GenDecl)
			if !ok {
				continue
			}

			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*dst.TypeSpec)
				if ok && typeSpec.Name.Name == name {
					return typeSpec, nil
				}
			}
		}
	}

	return nil, fmt.Errorf("interface %s not found in package", name)
}
