package content

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modshim/internal/features"
	"github.com/roach88/modshim/internal/fetch"
)

// addWasm imports env.log and exports an add function and a memory.
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type: (i32)->() and (i32,i32)->i32
	0x01, 0x0b, 0x02, 0x60, 0x01, 0x7f, 0x00, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	// import env.log func type 0
	0x02, 0x0b, 0x01, 0x03, 'e', 'n', 'v', 0x03, 'l', 'o', 'g', 0x00, 0x00,
	// function: one of type 1
	0x03, 0x02, 0x01, 0x01,
	// memory: min 1
	0x05, 0x03, 0x01, 0x00, 0x01,
	// export add (func 1), mem (memory 0)
	0x07, 0x0d, 0x02, 0x03, 'a', 'd', 'd', 0x00, 0x01, 0x03, 'm', 'e', 'm', 0x02, 0x00,
	// code: local.get 0, local.get 1, i32.add
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

func convert(t *testing.T, d *Dispatcher, contentType, body string) (*Module, error) {
	t.Helper()
	res := &fetch.Response{URL: "https://example.com/lib/mod", ContentType: contentType, Body: []byte(body)}
	return d.Convert(context.Background(), res, "https://example.com/lib/mod", "https://example.com/app.js")
}

func TestConvert_JavaScript(t *testing.T) {
	for _, ct := range []string{"text/javascript", "application/javascript; charset=utf-8", "application/x-javascript"} {
		mod, err := convert(t, NewDispatcher(), ct, "export default 1")
		require.NoError(t, err, ct)
		assert.Equal(t, features.TypeJS, mod.Type)
		assert.Equal(t, "export default 1", mod.Source)
	}
}

func TestConvert_JSON(t *testing.T) {
	mod, err := convert(t, NewDispatcher(), "application/json", `{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, features.TypeJSON, mod.Type)
	assert.Equal(t, `export default {"a":1}`, mod.Source)
	assert.Equal(t, []byte(`{"a":1}`), mod.Artifact)
}

func TestConvert_CSS(t *testing.T) {
	mod, err := convert(t, NewDispatcher(), "text/css", `body { background: url("../img/bg.png") } .x { mask: url(a.svg) }`)
	require.NoError(t, err)
	assert.Equal(t, features.TypeCSS, mod.Type)
	assert.Equal(t,
		`var s=new CSSStyleSheet();s.replaceSync("body { background: url(\"https://example.com/img/bg.png\") } .x { mask: url(https://example.com/lib/a.svg) }");export default s;`,
		mod.Source)
}

func TestConvert_Unsupported(t *testing.T) {
	_, err := convert(t, NewDispatcher(), "text/html", "<html>")
	var ue *UnsupportedContentTypeError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "text/html", ue.ContentType)
	assert.Contains(t, ue.Error(), "imported from https://example.com/app.js")
	assert.True(t, IsUnsupportedContentType(err))

	_, err = convert(t, NewDispatcher(), "application/typescript", "let a: number = 1")
	assert.True(t, IsUnsupportedContentType(err), "typescript needs to be enabled")
}

func TestConvert_TypeScript(t *testing.T) {
	strip := TransformerFunc(func(ctx context.Context, source, url string) (string, error) {
		return "let a = 1", nil
	})
	mod, err := convert(t, NewDispatcher(WithTypeScript(strip)), "application/typescript", "let a: number = 1")
	require.NoError(t, err)
	assert.Equal(t, features.TypeTS, mod.Type)
	assert.Equal(t, "let a = 1", mod.Source)

	failing := TransformerFunc(func(ctx context.Context, source, url string) (string, error) {
		return "", errors.New("syntax")
	})
	_, err = convert(t, NewDispatcher(WithTypeScript(failing)), "video/mp2t", "x")
	assert.ErrorContains(t, err, "syntax")

	_, err = convert(t, NewDispatcher(WithTypeScript(nil)), "application/typescript", "x")
	assert.ErrorContains(t, err, "no TypeScript transformer")
}

func TestInspectWasm(t *testing.T) {
	d := NewDispatcher()
	defer d.Close(context.Background())

	iface, err := d.InspectWasm(context.Background(), addWasm)
	require.NoError(t, err)
	assert.Equal(t, []string{"env"}, iface.Imports)
	assert.Equal(t, []string{"add", "mem"}, iface.Exports)

	_, err = d.InspectWasm(context.Background(), []byte("not wasm"))
	assert.Error(t, err)
}

func TestConvert_Wasm(t *testing.T) {
	d := NewDispatcher()
	defer d.Close(context.Background())

	mod, err := convert(t, d, "application/wasm", string(addWasm))
	require.NoError(t, err)
	assert.Equal(t, features.TypeWasm, mod.Type)
	assert.Equal(t, ""+
		"import * as impt0 from \"env\";\n"+
		"const instance = await WebAssembly.instantiate(importShim._s[\"https://example.com/lib/mod\"], {\"env\":impt0});\n"+
		"export const add = instance.exports[\"add\"];\n"+
		"export const mem = instance.exports[\"mem\"];\n",
		mod.Source)
	assert.Equal(t, addWasm, mod.Artifact)
}

func TestWasmModule_NonIdentifierExport(t *testing.T) {
	src := WasmModule("https://example.com/m.wasm", &WasmInterface{Exports: []string{"my-fn"}})
	assert.Contains(t, src, "const expt0 = instance.exports[\"my-fn\"];\nexport { expt0 as \"my-fn\" };\n")
}
