package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// QuoteFields is the k-line column set requested from the provider, in output order.
var QuoteFields = []string{
	"date", "code", "open", "high", "low", "close", "preclose", "volume", "amount",
	"adjustflag", "turn", "tradestatus", "pctChg", "peTTM", "pbMRQ", "psTTM", "pcfNcfTTM", "isST",
}

// NumericFields are coerced to numbers; every other column stays a string.
var NumericFields = []string{"open", "high", "low", "close", "volume", "amount"}

// QuoteRecord is one trading day of k-line data.
//
// Values are keyed by the table's field list. Numeric columns hold *float64,
// where nil marks a cell that could not be parsed; the rest hold strings.
// It marshals to a JSON object whose keys follow the field order.
//
// swagger:model QuoteRecord
type QuoteRecord struct {
	fields []string
	values []any
}

// Get returns the value of field and whether the record has it.
func (r QuoteRecord) Get(field string) (any, bool) {
	for i, f := range r.fields {
		if f == field {
			return r.values[i], true
		}
	}
	return nil, false
}

// Text returns the value of field as a string. Missing numbers yield "".
func (r QuoteRecord) Text(field string) string {
	v, _ := r.Get(field)
	return formatCell(v)
}

// Float returns the numeric value of field; ok is false for missing markers
// and non-numeric columns.
func (r QuoteRecord) Float(field string) (float64, bool) {
	v, _ := r.Get(field)
	if p, ok := v.(*float64); ok && p != nil {
		return *p, true
	}
	return 0, false
}

// Strings renders the record in field order, as written to CSV.
func (r QuoteRecord) Strings() []string {
	out := make([]string, len(r.values))
	for i, v := range r.values {
		out[i] = formatCell(v)
	}
	return out
}

func (r QuoteRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// QuoteTable is the drained result of one history query.
//
// Fields:
//   - Fields: the provider-declared column list.
//   - Records: rows in the order the provider returned them.
//   - CoercedCells: numeric cells that were not parseable and became missing.
type QuoteTable struct {
	Fields       []string
	Records      []QuoteRecord
	CoercedCells int
}

// NewQuoteTable shapes raw provider rows by fields and coerces the numeric
// columns. Short rows are padded with empty cells; extra cells are dropped.
func NewQuoteTable(fields []string, rows [][]string, numeric []string) *QuoteTable {
	isNumeric := make(map[string]bool, len(numeric))
	for _, f := range numeric {
		isNumeric[f] = true
	}

	t := &QuoteTable{Fields: fields, Records: make([]QuoteRecord, 0, len(rows))}
	for _, row := range rows {
		values := make([]any, len(fields))
		for i, f := range fields {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			if !isNumeric[f] {
				values[i] = cell
				continue
			}
			n, ok := ParseNumber(cell)
			if !ok {
				t.CoercedCells++
				values[i] = (*float64)(nil)
				continue
			}
			values[i] = &n
		}
		t.Records = append(t.Records, QuoteRecord{fields: fields, values: values})
	}
	return t
}

// Len returns the number of records.
func (t *QuoteTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// DateRange returns the earliest and latest "date" values, compared as
// YYYY-MM-DD strings. Both are empty when the table has no dated rows.
func (t *QuoteTable) DateRange() (first, last string) {
	if t == nil {
		return "", ""
	}
	for _, r := range t.Records {
		d := r.Text("date")
		if d == "" {
			continue
		}
		if first == "" || d < first {
			first = d
		}
		if last == "" || d > last {
			last = d
		}
	}
	return first, last
}

// ParseNumber parses a provider cell as a decimal number. Empty, malformed,
// hexadecimal, NaN and infinite values are reported as not ok.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || isHexLiteral(s) {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case *float64:
		if x == nil {
			return ""
		}
		return strconv.FormatFloat(*x, 'f', -1, 64)
	default:
		return ""
	}
}
