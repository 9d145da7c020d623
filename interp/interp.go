// Package interp implements the recursive-descent SQL statement
// dispatcher: it drives the lexer, builds expression trees, and calls
// through to catalog/table/storage to execute a script.
package interp

import (
	"log/slog"
	"math"

	"github.com/k0kubun/pp/v3"
	"github.com/minisqldb/minisqldb/catalog"
	"github.com/minisqldb/minisqldb/cell"
	"github.com/minisqldb/minisqldb/expr"
	"github.com/minisqldb/minisqldb/lexer"
	"github.com/minisqldb/minisqldb/minierr"
	"github.com/minisqldb/minisqldb/schema"
	"github.com/minisqldb/minisqldb/storage"
	"github.com/minisqldb/minisqldb/table"
)

// Interpreter holds the state of one script execution: the token
// stream and cursor, the currently-selected database, the disk store
// backing it, and the accumulated SELECT output buffer.
type Interpreter struct {
	store         *storage.DiskStore
	currentDB     *catalog.Database
	currentDBName string

	tokens []lexer.Token
	pos    int

	// Output accumulates one Table per SELECT, in statement order.
	Output []*table.Table

	// Debug, when set, dumps the token stream for each script via pp.
	Debug bool
}

// New builds an Interpreter backed by store. No database is selected
// until a USE DATABASE statement runs.
func New(store *storage.DiskStore) *Interpreter {
	return &Interpreter{store: store}
}

// CurrentDatabase returns the name of the selected database, or "" if
// none is selected.
func (ip *Interpreter) CurrentDatabase() string {
	return ip.currentDBName
}

// TableRowCounts reports the row count of every table in the currently
// selected database, keyed by table name. It is a debug aid only; nil
// when no database is selected.
func (ip *Interpreter) TableRowCounts() map[string]int {
	if ip.currentDB == nil {
		return nil
	}
	counts := make(map[string]int)
	for _, name := range ip.currentDB.TableNames() {
		t, err := ip.currentDB.GetTable(name)
		if err != nil {
			continue
		}
		counts[name] = len(t.Rows)
	}
	return counts
}

// Execute tokenizes and runs a script, clearing Output first. On
// return (success or failure) the currently-selected database, if any,
// is flushed to disk, so side effects up to the point of failure
// persist.
func (ip *Interpreter) Execute(script string) (err error) {
	ip.Output = nil

	defer func() {
		if ip.currentDB == nil {
			return
		}
		if saveErr := ip.store.SaveDatabase(ip.currentDB); saveErr != nil && err == nil {
			err = saveErr
		}
	}()

	tokens, lexErr := lexer.Tokenize(script)
	if lexErr != nil {
		return lexErr
	}
	ip.tokens = tokens
	ip.pos = 0

	if ip.Debug {
		pp.Println(tokens)
	}

	for !ip.atEnd() {
		if err = ip.statement(); err != nil {
			return err
		}
	}
	return nil
}

func (ip *Interpreter) atEnd() bool {
	return ip.pos >= len(ip.tokens)
}

func (ip *Interpreter) peek() (lexer.Token, bool) {
	if ip.atEnd() {
		return lexer.Token{}, false
	}
	return ip.tokens[ip.pos], true
}

func (ip *Interpreter) advance() (lexer.Token, error) {
	tok, ok := ip.peek()
	if !ok {
		return lexer.Token{}, minierr.New(minierr.Parse, "unexpected end of statement")
	}
	ip.pos++
	return tok, nil
}

func (ip *Interpreter) expectKeyword(kw string) error {
	tok, err := ip.advance()
	if err != nil {
		return err
	}
	if tok.Kind != lexer.KeywordKind || tok.Text != kw {
		return minierr.New(minierr.Parse, "expected keyword %q, got %q", kw, tok.Text)
	}
	return nil
}

func (ip *Interpreter) expectPunct(p string) error {
	tok, err := ip.advance()
	if err != nil {
		return err
	}
	if tok.Kind != lexer.PunctuationKind || tok.Text != p {
		return minierr.New(minierr.Parse, "expected %q, got %q", p, tok.Text)
	}
	return nil
}

func (ip *Interpreter) expectOperator(op string) error {
	tok, err := ip.advance()
	if err != nil {
		return err
	}
	if tok.Kind != lexer.OperatorKind || tok.Text != op {
		return minierr.New(minierr.Parse, "expected %q, got %q", op, tok.Text)
	}
	return nil
}

func (ip *Interpreter) expectIdentifier() (string, error) {
	tok, err := ip.advance()
	if err != nil {
		return "", err
	}
	if tok.Kind != lexer.IdentifierKind {
		return "", minierr.New(minierr.Parse, "expected identifier, got %q", tok.Text)
	}
	return tok.Text, nil
}

func (ip *Interpreter) requireDB() error {
	if ip.currentDB == nil {
		return minierr.New(minierr.Catalog, "no database selected")
	}
	return nil
}

func (ip *Interpreter) persist() error {
	if ip.currentDB == nil {
		return nil
	}
	return ip.store.SaveDatabase(ip.currentDB)
}

// statement dispatches on the leading keyword of the next statement.
func (ip *Interpreter) statement() error {
	tok, ok := ip.peek()
	if !ok || tok.Kind != lexer.KeywordKind {
		return minierr.New(minierr.Parse, "expected statement keyword, got %q", tok.Text)
	}
	slog.Debug("executing statement", "keyword", tok.Text)

	switch tok.Text {
	case "CREATE":
		return ip.create()
	case "USE":
		return ip.use()
	case "DROP":
		return ip.drop()
	case "INSERT":
		return ip.insert()
	case "SELECT":
		return ip.selectStatement()
	case "UPDATE":
		return ip.update()
	case "DELETE":
		return ip.delete()
	default:
		return minierr.New(minierr.Parse, "unexpected statement keyword %q", tok.Text)
	}
}

// create handles "CREATE DATABASE <id>;" and
// "CREATE TABLE <id> (<col> <type>, ...);".
func (ip *Interpreter) create() error {
	ip.advance() // CREATE
	tok, err := ip.advance()
	if err != nil {
		return err
	}
	if tok.Kind != lexer.KeywordKind {
		return minierr.New(minierr.Parse, "expected DATABASE or TABLE, got %q", tok.Text)
	}

	switch tok.Text {
	case "DATABASE":
		name, err := ip.expectIdentifier()
		if err != nil {
			return err
		}
		if err := ip.expectPunct(";"); err != nil {
			return err
		}
		_, err = ip.store.CreateDatabase(name)
		return err

	case "TABLE":
		if err := ip.requireDB(); err != nil {
			return err
		}
		name, err := ip.expectIdentifier()
		if err != nil {
			return err
		}
		if err := ip.expectPunct("("); err != nil {
			return err
		}
		var cols []schema.Column
		for {
			colName, err := ip.expectIdentifier()
			if err != nil {
				return err
			}
			typeTok, err := ip.advance()
			if err != nil {
				return err
			}
			if typeTok.Kind != lexer.KeywordKind {
				return minierr.New(minierr.Parse, "expected column type, got %q", typeTok.Text)
			}
			colType, err := cell.ParseType(typeTok.Text)
			if err != nil {
				return err
			}
			cols = append(cols, schema.Column{Name: colName, Type: colType})

			next, ok := ip.peek()
			if ok && next.Kind == lexer.PunctuationKind && next.Text == "," {
				ip.advance()
				continue
			}
			break
		}
		if err := ip.expectPunct(")"); err != nil {
			return err
		}
		if err := ip.expectPunct(";"); err != nil {
			return err
		}
		s, err := schema.New(cols...)
		if err != nil {
			return err
		}
		if err := ip.currentDB.CreateTable(table.New(name, s)); err != nil {
			return err
		}
		return ip.persist()

	default:
		return minierr.New(minierr.Parse, "expected DATABASE or TABLE, got %q", tok.Text)
	}
}

// drop handles "DROP DATABASE <id>;" and "DROP TABLE <id>;".
func (ip *Interpreter) drop() error {
	ip.advance() // DROP
	tok, err := ip.advance()
	if err != nil {
		return err
	}
	if tok.Kind != lexer.KeywordKind {
		return minierr.New(minierr.Parse, "expected DATABASE or TABLE, got %q", tok.Text)
	}

	switch tok.Text {
	case "DATABASE":
		name, err := ip.expectIdentifier()
		if err != nil {
			return err
		}
		if err := ip.expectPunct(";"); err != nil {
			return err
		}
		return ip.store.DeleteDatabase(name)

	case "TABLE":
		if err := ip.requireDB(); err != nil {
			return err
		}
		name, err := ip.expectIdentifier()
		if err != nil {
			return err
		}
		if err := ip.expectPunct(";"); err != nil {
			return err
		}
		if err := ip.currentDB.DropTable(name); err != nil {
			return err
		}
		return ip.persist()

	default:
		return minierr.New(minierr.Parse, "expected DATABASE or TABLE, got %q", tok.Text)
	}
}

// use handles "USE DATABASE <id>;": it saves and releases the current
// database, then loads the named one.
func (ip *Interpreter) use() error {
	ip.advance() // USE
	if err := ip.expectKeyword("DATABASE"); err != nil {
		return err
	}
	name, err := ip.expectIdentifier()
	if err != nil {
		return err
	}
	if err := ip.expectPunct(";"); err != nil {
		return err
	}

	if ip.currentDB != nil {
		if err := ip.store.SaveDatabase(ip.currentDB); err != nil {
			return err
		}
	}

	db, err := ip.store.LoadDatabase(name)
	if err != nil {
		return err
	}
	ip.currentDB = db
	ip.currentDBName = name
	return nil
}

// insert handles "INSERT INTO <id> VALUES (<lit>, ...);". Values are
// assigned by position to the table's schema columns; they are
// inferred/typed cells, not reparsed against the declared column type.
func (ip *Interpreter) insert() error {
	ip.advance() // INSERT
	if err := ip.expectKeyword("INTO"); err != nil {
		return err
	}
	if err := ip.requireDB(); err != nil {
		return err
	}
	name, err := ip.expectIdentifier()
	if err != nil {
		return err
	}
	if err := ip.expectKeyword("VALUES"); err != nil {
		return err
	}
	if err := ip.expectPunct("("); err != nil {
		return err
	}

	var values []cell.Cell
	for {
		tok, err := ip.advance()
		if err != nil {
			return err
		}
		if tok.Kind != lexer.LiteralKind {
			return minierr.New(minierr.Parse, "expected literal value, got %q", tok.Text)
		}
		if tok.Quoted {
			values = append(values, cell.FromText(tok.Text))
		} else {
			values = append(values, cell.InferCell(tok.Text))
		}

		next, ok := ip.peek()
		if ok && next.Kind == lexer.PunctuationKind && next.Text == "," {
			ip.advance()
			continue
		}
		break
	}
	if err := ip.expectPunct(")"); err != nil {
		return err
	}
	if err := ip.expectPunct(";"); err != nil {
		return err
	}

	tbl, err := ip.currentDB.GetTable(name)
	if err != nil {
		return err
	}
	if len(values) != tbl.Schema.Len() {
		return minierr.New(minierr.Schema, "table %q expects %d values, got %d", name, tbl.Schema.Len(), len(values))
	}
	row := schema.NewRow(tbl.Schema)
	for i, col := range tbl.Schema.Columns() {
		row.Set(col.Name, values[i])
	}
	return tbl.Append(row)
}

// selectStatement handles SELECT, including the optional INNER JOIN
// and WHERE clauses, and appends the result to Output.
func (ip *Interpreter) selectStatement() error {
	ip.advance() // SELECT

	star := false
	var columns []string
	tok, ok := ip.peek()
	if ok && tok.Kind == lexer.OperatorKind && tok.Text == "*" {
		ip.advance()
		star = true
	} else {
		for {
			id, err := ip.expectIdentifier()
			if err != nil {
				return err
			}
			columns = append(columns, id)
			next, ok := ip.peek()
			if ok && next.Kind == lexer.PunctuationKind && next.Text == "," {
				ip.advance()
				continue
			}
			break
		}
	}

	if err := ip.expectKeyword("FROM"); err != nil {
		return err
	}
	if err := ip.requireDB(); err != nil {
		return err
	}
	baseName, err := ip.expectIdentifier()
	if err != nil {
		return err
	}
	result, err := ip.currentDB.GetTable(baseName)
	if err != nil {
		return err
	}

	next, ok := ip.peek()
	if ok && next.Kind == lexer.KeywordKind && (next.Text == "INNER" || next.Text == "JOIN") {
		if next.Text == "INNER" {
			ip.advance()
		}
		if err := ip.expectKeyword("JOIN"); err != nil {
			return err
		}
		otherName, err := ip.expectIdentifier()
		if err != nil {
			return err
		}
		other, err := ip.currentDB.GetTable(otherName)
		if err != nil {
			return err
		}
		if err := ip.expectKeyword("ON"); err != nil {
			return err
		}
		cond, err := ip.readCondition()
		if err != nil {
			return err
		}
		joined, err := result.InnerJoin(other)
		if err != nil {
			return err
		}
		result, err = joined.Filter(cond)
		if err != nil {
			return err
		}
	}

	next, ok = ip.peek()
	if ok && next.Kind == lexer.KeywordKind && next.Text == "WHERE" {
		ip.advance()
		cond, err := ip.readCondition()
		if err != nil {
			return err
		}
		result, err = result.Filter(cond)
		if err != nil {
			return err
		}
	}

	if err := ip.expectPunct(";"); err != nil {
		return err
	}

	if star {
		// result may still be the live table (no JOIN/WHERE narrowed it)
		// or a Filter result that shares row cell storage with it
		// (table.go's Filter appends rows by reference). Either way the
		// output buffer must hold a materialized copy, not a view, so a
		// later INSERT/UPDATE/DELETE on the same table can't retroactively
		// change an already-buffered SELECT.
		ip.Output = append(ip.Output, result.Clone())
		return nil
	}
	projected, err := result.Project(columns)
	if err != nil {
		return err
	}
	ip.Output = append(ip.Output, projected)
	return nil
}

// update handles "UPDATE <id> SET <col> = <expr>, ... [WHERE <cond>];".
func (ip *Interpreter) update() error {
	ip.advance() // UPDATE
	if err := ip.requireDB(); err != nil {
		return err
	}
	name, err := ip.expectIdentifier()
	if err != nil {
		return err
	}
	if err := ip.expectKeyword("SET"); err != nil {
		return err
	}

	var assignments []table.Assignment
	for {
		col, err := ip.expectIdentifier()
		if err != nil {
			return err
		}
		if err := ip.expectOperator("="); err != nil {
			return err
		}
		val, err := ip.readExpression()
		if err != nil {
			return err
		}
		assignments = append(assignments, table.Assignment{Column: col, Value: val})

		next, ok := ip.peek()
		if ok && next.Kind == lexer.PunctuationKind && next.Text == "," {
			ip.advance()
			continue
		}
		break
	}

	predicate, err := ip.optionalWhere()
	if err != nil {
		return err
	}
	if err := ip.expectPunct(";"); err != nil {
		return err
	}

	tbl, err := ip.currentDB.GetTable(name)
	if err != nil {
		return err
	}
	return tbl.UpdateWhere(predicate, assignments)
}

// delete handles "DELETE FROM <id> [WHERE <cond>];".
func (ip *Interpreter) delete() error {
	ip.advance() // DELETE
	if err := ip.expectKeyword("FROM"); err != nil {
		return err
	}
	if err := ip.requireDB(); err != nil {
		return err
	}
	name, err := ip.expectIdentifier()
	if err != nil {
		return err
	}

	predicate, err := ip.optionalWhere()
	if err != nil {
		return err
	}
	if err := ip.expectPunct(";"); err != nil {
		return err
	}

	tbl, err := ip.currentDB.GetTable(name)
	if err != nil {
		return err
	}
	return tbl.DeleteWhere(predicate)
}

// optionalWhere reads "WHERE <cond>" if present, else returns a
// constant-truthy predicate.
func (ip *Interpreter) optionalWhere() (*expr.Expr, error) {
	tok, ok := ip.peek()
	if ok && tok.Kind == lexer.KeywordKind && tok.Text == "WHERE" {
		ip.advance()
		return ip.readCondition()
	}
	return expr.Literal(cell.FromInt(1)), nil
}

// readCondition parses a condition: one expression, optionally followed
// by a single top-level AND/OR and a second expression. Nested boolean
// conditions are not supported; this mirrors the documented limitation
// of the recursive-descent grammar it is built from.
func (ip *Interpreter) readCondition() (*expr.Expr, error) {
	left, err := ip.readExpression()
	if err != nil {
		return nil, err
	}

	tok, ok := ip.peek()
	if ok && tok.Kind == lexer.KeywordKind && (tok.Text == "AND" || tok.Text == "OR") {
		ip.advance()
		right, err := ip.readExpression()
		if err != nil {
			return nil, err
		}
		op := expr.And
		if tok.Text == "OR" {
			op = expr.Or
		}
		return expr.Binary(op, left, right), nil
	}
	return left, nil
}

// readExpression advances the cursor over a maximal punctuation-
// balanced token run and builds its expression tree. It stops at ')'
// once depth would go negative, at ';' or ',' at depth 0, and at any
// token that is not Operator/Identifier/Literal/parenthesis at depth 0.
func (ip *Interpreter) readExpression() (*expr.Expr, error) {
	start := ip.pos
	depth := 0

loop:
	for ip.pos < len(ip.tokens) {
		tok := ip.tokens[ip.pos]
		switch tok.Kind {
		case lexer.PunctuationKind:
			switch tok.Text {
			case "(":
				depth++
				ip.pos++
			case ")":
				if depth == 0 {
					break loop
				}
				depth--
				ip.pos++
			case ";", ",":
				if depth == 0 {
					break loop
				}
				ip.pos++
			default:
				break loop
			}
		case lexer.OperatorKind, lexer.IdentifierKind, lexer.LiteralKind:
			ip.pos++
		default:
			if depth == 0 {
				break loop
			}
			ip.pos++
		}
	}

	end := ip.pos
	if start == end {
		return nil, minierr.New(minierr.Parse, "empty expression")
	}
	return ip.parseRange(start, end)
}

// parseRange builds the expression tree for tokens[start:end]: it
// strips a single matching pair of outer parens, then splits at the
// lowest-priority operator at depth 0 (rightmost wins on ties, which
// makes the recursive split left-associative), recursing into both
// sides. With no operator found, the range must be a single identifier
// or literal.
func (ip *Interpreter) parseRange(start, end int) (*expr.Expr, error) {
	if start >= end {
		return nil, minierr.New(minierr.Parse, "empty expression")
	}

	if ip.tokens[start].Kind == lexer.PunctuationKind && ip.tokens[start].Text == "(" &&
		ip.tokens[end-1].Kind == lexer.PunctuationKind && ip.tokens[end-1].Text == ")" &&
		matchingParen(ip.tokens, start, end-1) {
		return ip.parseRange(start+1, end-1)
	}

	depth := 0
	splitIdx := -1
	splitPriority := math.MaxInt
	for i := start; i < end; i++ {
		tok := ip.tokens[i]
		if tok.Kind == lexer.PunctuationKind {
			if tok.Text == "(" {
				depth++
			} else if tok.Text == ")" {
				depth--
			}
			continue
		}
		if depth != 0 || tok.Kind != lexer.OperatorKind {
			continue
		}
		pri, ok := operatorPriority(tok.Text)
		if !ok {
			continue
		}
		if pri <= splitPriority {
			splitPriority = pri
			splitIdx = i
		}
	}

	if splitIdx == -1 {
		if end-start != 1 {
			return nil, minierr.New(minierr.Parse, "malformed expression")
		}
		tok := ip.tokens[start]
		switch tok.Kind {
		case lexer.IdentifierKind:
			return expr.Column(tok.Text), nil
		case lexer.LiteralKind:
			if tok.Quoted {
				return expr.Literal(cell.FromText(tok.Text)), nil
			}
			return expr.Literal(cell.InferCell(tok.Text)), nil
		default:
			return nil, minierr.New(minierr.Parse, "expected identifier or literal, got %q", tok.Text)
		}
	}

	left, err := ip.parseRange(start, splitIdx)
	if err != nil {
		return nil, err
	}
	right, err := ip.parseRange(splitIdx+1, end)
	if err != nil {
		return nil, err
	}
	op, _ := operatorFromText(ip.tokens[splitIdx].Text)
	return expr.Binary(op, left, right), nil
}

func matchingParen(tokens []lexer.Token, open, close int) bool {
	depth := 0
	for i := open; i <= close; i++ {
		if tokens[i].Kind != lexer.PunctuationKind {
			continue
		}
		switch tokens[i].Text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return i == close
			}
		}
	}
	return false
}

// operatorPriority ranks an operator for parseRange's split: lower
// values split first (outermost), matching compare < add/sub < mul/div.
func operatorPriority(text string) (int, bool) {
	switch text {
	case "<", ">", "=":
		return 0, true
	case "+", "-":
		return 1, true
	case "*", "/":
		return 2, true
	default:
		return 0, false
	}
}

func operatorFromText(text string) (expr.Op, bool) {
	switch text {
	case "+":
		return expr.Add, true
	case "-":
		return expr.Sub, true
	case "*":
		return expr.Mul, true
	case "/":
		return expr.Div, true
	case "<":
		return expr.Lt, true
	case ">":
		return expr.Gt, true
	case "=":
		return expr.Eq, true
	default:
		return "", false
	}
}
