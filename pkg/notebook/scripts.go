package notebook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// scripts evaluated in the notebook page. each is a function literal, called with JSON
// encoded arguments. the classic notebook frontend exposes its model as window.Jupyter.
const (
	kernelStateJS = `(name) => {
		const nb = window.Jupyter && window.Jupyter.notebook;
		const k = nb && nb.kernel;
		return {name: k ? k.name : "", connected: !!(k && k.is_connected && k.is_connected())};
	}`

	executeCellJS = `(index, source) => {
		const nb = window.Jupyter.notebook;
		while (nb.ncells() <= index) {
			nb.insert_cell_at_index("code", nb.ncells());
		}
		const cell = nb.get_cell(index);
		cell.set_text(source);
		cell.execute();
		return true;
	}`

	cellOutputJS = `(index) => {
		const cell = window.Jupyter.notebook.get_cell(index);
		if (!cell) return null;
		return Array.from(cell.element[0].querySelectorAll(".output_subarea"))
			.map((el) => el.innerText.trim());
	}`

	clearOutputJS = `(index) => {
		const cell = window.Jupyter.notebook.get_cell(index);
		if (!cell) return false;
		cell.clear_output();
		return true;
	}`

	requireJS = `(name) => {
		try {
			require(name);
			return {ok: true};
		} catch (e) {
			return {ok: false, error: String((e && e.message) || e)};
		}
	}`
)

// callExpr makes an expression calling fn with args and producing the JSON text of the result.
func callExpr(fn string, args ...any) (string, error) {
	encoded := make([]string, 0, len(args))
	for _, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("marshal script argument: %w", err)
		}
		encoded = append(encoded, string(b))
	}
	return fmt.Sprintf("(() => { const r = (%s)(%s); return r === undefined ? \"null\" : JSON.stringify(r); })()",
		fn, strings.Join(encoded, ", ")), nil
}

// call evaluates fn(args...) in the page and decodes its JSON result into out, out may be nil.
func call(ctx context.Context, page Page, out any, fn string, args ...any) error {
	expr, err := callExpr(fn, args...)
	if err != nil {
		return err
	}
	res, err := page.Eval(ctx, expr)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(res), out); err != nil {
		return fmt.Errorf("decode script result %q: %w", res, err)
	}
	return nil
}
