// Package csvcodec serializes and parses Tables in the engine's CSV
// dialect. It is used both as the on-disk persistence format and as the
// format SELECT results render to, with two different dialect knobs
// (see Options) distinguishing the two uses.
//
// The dialect is deliberately not RFC-4180: there is no embedded-comma
// escaping, no embedded-newline support, and no quoting rule beyond a
// simple strip-surrounding-quotes. It is self-compatible, not
// general-purpose.
package csvcodec

import (
	"bufio"
	"io"
	"strings"

	"github.com/minisqldb/minisqldb/cell"
	"github.com/minisqldb/minisqldb/minierr"
	"github.com/minisqldb/minisqldb/schema"
	"github.com/minisqldb/minisqldb/table"
	"github.com/minisqldb/minisqldb/util"
)

// Options controls the two CSV dialect knobs the engine uses.
type Options struct {
	// WithTypes emits (or expects) a second header line naming each
	// column's type.
	WithTypes bool
	// QuotedStrings wraps (or strips) single quotes around TEXT cells.
	QuotedStrings bool
}

// Dump renders a table to its CSV text.
func Dump(t *table.Table, opts Options) string {
	var sb strings.Builder

	cols := t.Schema.Columns()
	names := util.TransformSlice(cols, func(c schema.Column) string { return c.Name })
	sb.WriteString(strings.Join(names, ","))
	sb.WriteByte('\n')

	if opts.WithTypes {
		types := util.TransformSlice(cols, func(c schema.Column) string { return string(c.Type) })
		sb.WriteString(strings.Join(types, ","))
		sb.WriteByte('\n')
	}

	for _, row := range t.Rows {
		fields := make([]string, len(cols))
		for i, c := range cols {
			v, _ := row.Get(c.Name)
			text := v.Text()
			if opts.QuotedStrings && c.Type == cell.Text {
				text = "'" + text + "'"
			}
			fields[i] = text
		}
		sb.WriteString(strings.Join(fields, ","))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Load parses CSV text into a table named tableName. It reads the first
// line as headers; if the second line's tokens are all valid type
// names, it is adopted as the types row, otherwise every column
// defaults to TEXT and the second line is treated as the first data
// row.
func Load(r io.Reader, tableName string, opts Options) (*table.Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		return nil, minierr.New(minierr.IO, "empty CSV input for table %q", tableName)
	}
	headers := splitCSV(scanner.Text())

	var types []string
	hasTypes := false
	var firstDataLine string
	haveFirstDataLine := false
	if scanner.Scan() {
		candidate := splitCSV(scanner.Text())
		hasTypes = len(candidate) == len(headers) && allValidTypes(candidate)
		if hasTypes {
			types = candidate
		} else {
			firstDataLine = scanner.Text()
			haveFirstDataLine = true
		}
	}

	cols := make([]schema.Column, len(headers))
	for i, h := range headers {
		t := cell.Text
		if hasTypes {
			parsed, err := cell.ParseType(types[i])
			if err != nil {
				return nil, err
			}
			t = parsed
		}
		cols[i] = schema.Column{Name: h, Type: t}
	}
	s, err := schema.New(cols...)
	if err != nil {
		return nil, err
	}

	tbl := table.New(tableName, s)

	appendLine := func(line string) error {
		if line == "" {
			return nil
		}
		fields := splitCSV(line)
		if len(fields) != len(headers) {
			return minierr.New(minierr.IO, "table %q: row has %d fields, want %d", tableName, len(fields), len(headers))
		}
		row := schema.NewRow(s)
		for i, h := range headers {
			text := fields[i]
			col, _ := s.Lookup(h)
			if opts.QuotedStrings && col.Type == cell.Text {
				text = stripQuotes(text, '\'')
			}
			v, err := cell.Parse(col.Type, text)
			if err != nil {
				return err
			}
			row.Set(h, v)
		}
		return tbl.Append(row)
	}

	if haveFirstDataLine {
		if err := appendLine(firstDataLine); err != nil {
			return nil, err
		}
	}
	for scanner.Scan() {
		if err := appendLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, minierr.Wrap(minierr.IO, err, "reading CSV for table %q", tableName)
	}
	return tbl, nil
}

func splitCSV(line string) []string {
	return strings.Split(line, ",")
}

func allValidTypes(tokens []string) bool {
	for _, t := range tokens {
		if t != string(cell.Integer) && t != string(cell.Float) && t != string(cell.Text) {
			return false
		}
	}
	return len(tokens) > 0
}

func stripQuotes(s string, quote byte) string {
	if len(s) >= 2 && s[0] == quote && s[len(s)-1] == quote {
		return s[1 : len(s)-1]
	}
	return s
}
