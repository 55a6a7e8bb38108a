package content

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"

	"github.com/roach88/modshim/internal/fetch"
)

var jsIdentifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// WasmInterface lists what a compiled wasm module imports and exports.
type WasmInterface struct {
	// Imports are the distinct import module names in first-use order.
	Imports []string

	// Exports are the exported names in sorted order.
	Exports []string
}

// InspectWasm compiles body and reports its imports and exports. Wazero
// exposes function and memory definitions; tables and globals are not
// listed.
func (d *Dispatcher) InspectWasm(ctx context.Context, body []byte) (*WasmInterface, error) {
	d.once.Do(func() {
		d.runtime = wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	})
	compiled, err := d.runtime.CompileModule(ctx, body)
	if err != nil {
		return nil, err
	}
	defer compiled.Close(ctx)

	iface := &WasmInterface{}
	seen := map[string]bool{}
	addImport := func(module string) {
		if !seen[module] {
			seen[module] = true
			iface.Imports = append(iface.Imports, module)
		}
	}
	for _, fn := range compiled.ImportedFunctions() {
		module, _, _ := fn.Import()
		addImport(module)
	}
	for _, mem := range compiled.ImportedMemories() {
		module, _, _ := mem.Import()
		addImport(module)
	}

	for name := range compiled.ExportedFunctions() {
		iface.Exports = append(iface.Exports, name)
	}
	for name := range compiled.ExportedMemories() {
		iface.Exports = append(iface.Exports, name)
	}
	sort.Strings(iface.Exports)
	return iface, nil
}

func (d *Dispatcher) wasm(ctx context.Context, res *fetch.Response) (string, error) {
	iface, err := d.InspectWasm(ctx, res.Body)
	if err != nil {
		return "", fmt.Errorf("compile wasm %s: %w", res.URL, err)
	}
	return WasmModule(res.URL, iface), nil
}

// WasmModule renders the synthetic module for a wasm binary served at url.
// The module instantiates the artifact cached under importShim._s[url].
func WasmModule(url string, iface *WasmInterface) string {
	var b strings.Builder
	var importObj []string
	for i, module := range iface.Imports {
		spec := jsString(module)
		fmt.Fprintf(&b, "import * as impt%d from %s;\n", i, spec)
		importObj = append(importObj, fmt.Sprintf("%s:impt%d", spec, i))
	}
	fmt.Fprintf(&b, "const instance = await WebAssembly.instantiate(importShim._s[%s], {%s});\n",
		jsString(url), strings.Join(importObj, ","))
	for i, name := range iface.Exports {
		if jsIdentifier.MatchString(name) {
			fmt.Fprintf(&b, "export const %s = instance.exports[%s];\n", name, jsString(name))
			continue
		}
		fmt.Fprintf(&b, "const expt%d = instance.exports[%s];\nexport { expt%d as %s };\n", i, jsString(name), i, jsString(name))
	}
	return b.String()
}
