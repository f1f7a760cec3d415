// Package field resolves field annotations embedded in runs: page-number
// tokens substituted during header/footer layout, and scripted "=" field
// codes evaluated in a restricted JavaScript runtime.
package field

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"folio/pkg/doc"
)

// Well-known field tokens.
const (
	TokenPage     = "PAGE"
	TokenNumPages = "NUMPAGES"
)

// PageContext is the pagination state a token resolves against.
type PageContext struct {
	PageNumber   int    // 1-based
	PageCount    int
	NumberFormat string // "", "decimal", "lowerRoman", "upperRoman"
	NumberStart  int    // 0 means 1
}

// Resolver evaluates field tokens. Scripted fields share one goja runtime;
// construction is cheap enough to do once per session.
type Resolver struct {
	vm *goja.Runtime
}

// NewResolver creates a resolver with a fresh script runtime.
func NewResolver() *Resolver {
	return &Resolver{vm: goja.New()}
}

// Resolve returns the rendered text for a field token under the given page
// context. Unknown tokens resolve to their marker form so stale output is
// visible rather than silently empty.
func (r *Resolver) Resolve(token string, ctx PageContext) string {
	switch token {
	case TokenPage:
		n := ctx.PageNumber
		if ctx.NumberStart > 0 {
			n = ctx.NumberStart + ctx.PageNumber - 1
		}
		return formatNumber(n, ctx.NumberFormat)
	case TokenNumPages:
		return strconv.Itoa(ctx.PageCount)
	}
	if strings.HasPrefix(token, "=") {
		out, err := r.eval(token[1:], ctx)
		if err != nil {
			return "{" + token + "}"
		}
		return out
	}
	return "{" + token + "}"
}

// eval runs a "=" field expression in the script runtime with PAGE and
// NUMPAGES bound. The runtime carries no host bindings beyond those two
// values.
func (r *Resolver) eval(expr string, ctx PageContext) (string, error) {
	if err := r.vm.Set("PAGE", ctx.PageNumber); err != nil {
		return "", err
	}
	if err := r.vm.Set("NUMPAGES", ctx.PageCount); err != nil {
		return "", err
	}
	v, err := r.vm.RunString(expr)
	if err != nil {
		return "", fmt.Errorf("field expression: %w", err)
	}
	return v.String(), nil
}

// ResolveBlock renders a block's text with every field run substituted.
func (r *Resolver) ResolveBlock(b *doc.Block, ctx PageContext) string {
	var sb strings.Builder
	for _, run := range b.Runs {
		if run.Field != "" {
			sb.WriteString(r.Resolve(run.Field, ctx))
			continue
		}
		sb.WriteString(run.Text)
	}
	return sb.String()
}

func formatNumber(n int, format string) string {
	switch format {
	case "lowerRoman":
		return strings.ToLower(roman(n))
	case "upperRoman":
		return roman(n)
	default:
		return strconv.Itoa(n)
	}
}

var romanValues = []struct {
	v int
	s string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

func roman(n int) string {
	if n <= 0 {
		return strconv.Itoa(n)
	}
	var sb strings.Builder
	for _, rv := range romanValues {
		for n >= rv.v {
			sb.WriteString(rv.s)
			n -= rv.v
		}
	}
	return sb.String()
}
