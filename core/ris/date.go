package ris

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Date is a date-kind value in RIS form: YYYY/MM/DD/other, where every part
// may be empty. Zero means the part was absent.
type Date struct {
	Year  int
	Month int
	Day   int
	Other string
}

// String returns the date in YYYY/MM/DD/other form.
func (d Date) String() string {
	var b strings.Builder
	if d.Year != 0 {
		fmt.Fprintf(&b, "%04d", d.Year)
	}
	b.WriteByte('/')
	if d.Month != 0 {
		fmt.Fprintf(&b, "%02d", d.Month)
	}
	b.WriteByte('/')
	if d.Day != 0 {
		fmt.Fprintf(&b, "%02d", d.Day)
	}
	b.WriteByte('/')
	b.WriteString(d.Other)
	return b.String()
}

// IsZero reports whether no part is set.
func (d Date) IsZero() bool { return d == Date{} }

// dateGrammar matches "2020", "2020/", "2020/05/12", "2020///Spring" and
// "/05//". The optional groups nest across fields.
//
//nolint:govet // participle grammar tags are not standard struct tags
type dateGrammar struct {
	Year  *string  `@Int?`
	Month *string  `( "/" @Int?`
	Day   *string  `( "/" @Int?`
	Other []string `( "/" @(Int | Text | "/")* )? )? )?`
}

var dateLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Slash", Pattern: `/`},
	{Name: "Text", Pattern: `[^/0-9]+`},
})

var dateParser = participle.MustBuild[dateGrammar](
	participle.Lexer(dateLexer),
)

// ParseDate parses a date-kind value.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	parsed, err := dateParser.ParseString("", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}

	var d Date
	if d.Year, err = datePart(parsed.Year, 0, 9999); err != nil {
		return Date{}, fmt.Errorf("invalid date %q: year: %w", s, err)
	}
	if d.Month, err = datePart(parsed.Month, 1, 12); err != nil {
		return Date{}, fmt.Errorf("invalid date %q: month: %w", s, err)
	}
	if d.Day, err = datePart(parsed.Day, 1, 31); err != nil {
		return Date{}, fmt.Errorf("invalid date %q: day: %w", s, err)
	}
	d.Other = strings.Join(parsed.Other, "")
	return d, nil
}

// datePart converts a captured digit run. Digits are parsed as decimal so
// that zero-padded parts such as "08" are accepted.
func datePart(p *string, lo, hi int) (int, error) {
	if p == nil {
		return 0, nil
	}
	n, err := strconv.Atoi(*p)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%d out of range %d-%d", n, lo, hi)
	}
	return n, nil
}
