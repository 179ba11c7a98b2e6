// Package sqlref extracts table and column identifiers from SQL expression
// fragments, such as the expressions attached to column dependency tree
// nodes. It is deliberately not a SQL parser: it recognizes identifier
// chains and the FROM clause of a simple SELECT, and reports everything
// else as unresolvable so callers can skip it.
package sqlref

import "strings"

// TableRef is a resolved table identifier.
type TableRef struct {
	Catalog string
	Schema  string
	Table   string
}

// Name returns the bare table name.
func (r TableRef) Name() string {
	return r.Table
}

// String returns the dot-joined identifier, dropping empty components.
func (r TableRef) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Catalog, r.Schema, r.Table} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// FindTable returns the first table reference in the expression fragment.
//
// Two shapes are recognized: a fragment that is itself a table reference,
// optionally aliased ("analytics.orders", "analytics.orders AS o"), and a
// SELECT fragment whose FROM clause names a table ("SELECT amount FROM
// analytics.orders"). Fragments with subqueries, functions, or operators in
// reference position resolve to nothing.
func FindTable(expr string) (TableRef, bool) {
	tokens := scan(expr)
	if len(tokens) == 0 {
		return TableRef{}, false
	}

	// FROM clause wins when present.
	for i, tok := range tokens {
		if isKeyword(tok, "from") {
			chain, _ := identChain(tokens[i+1:])
			return refFromChain(chain)
		}
	}

	// Otherwise the whole fragment must be a single reference, optionally
	// with an alias.
	chain, rest := identChain(tokens)
	if len(chain) == 0 {
		return TableRef{}, false
	}
	if !isAlias(rest) {
		return TableRef{}, false
	}
	return refFromChain(chain)
}

// ColumnName returns the bare column name of a column reference such as
// "orders.amount" or "amount". The empty string means the reference could
// not be read as an identifier chain.
func ColumnName(ref string) string {
	chain, rest := identChain(scan(ref))
	if len(chain) == 0 || len(rest) != 0 {
		return ""
	}
	return chain[len(chain)-1]
}

// identChain consumes a leading ident (DOT ident)* sequence and returns the
// segments plus the remaining tokens.
func identChain(tokens []token) ([]string, []token) {
	if len(tokens) == 0 || tokens[0].Type != tokenIdent {
		return nil, tokens
	}

	chain := []string{tokens[0].Literal}
	i := 1
	for i < len(tokens) && tokens[i].Type == tokenDot {
		if i+1 >= len(tokens) || tokens[i+1].Type != tokenIdent {
			// Dangling dot: malformed reference.
			return nil, tokens
		}
		chain = append(chain, tokens[i+1].Literal)
		i += 2
	}
	return chain, tokens[i:]
}

// isAlias reports whether the trailing tokens form a valid alias suffix:
// nothing, a bare identifier, or AS identifier.
func isAlias(rest []token) bool {
	switch len(rest) {
	case 0:
		return true
	case 1:
		return rest[0].Type == tokenIdent && !isKeyword(rest[0], "as")
	case 2:
		return isKeyword(rest[0], "as") && rest[1].Type == tokenIdent
	default:
		return false
	}
}

// refFromChain maps a 1-3 segment identifier chain onto a TableRef.
func refFromChain(chain []string) (TableRef, bool) {
	switch len(chain) {
	case 1:
		return TableRef{Table: chain[0]}, true
	case 2:
		return TableRef{Schema: chain[0], Table: chain[1]}, true
	case 3:
		return TableRef{Catalog: chain[0], Schema: chain[1], Table: chain[2]}, true
	default:
		return TableRef{}, false
	}
}
