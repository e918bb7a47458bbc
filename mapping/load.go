// Package mapping loads the CSV mapping tables and serves them to the
// rewriter as a frozen lookup store.
package mapping

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/srgtools/remap/csvparser"
)

var (
	fieldColumns  = []string{"searge", "name", "side", "desc"}
	methodColumns = []string{"searge", "name", "side", "desc"}
	paramColumns  = []string{"param", "name", "side"}
)

// LoadFields reads fields.csv content: searge name -> renamed field plus
// optional documentation, filtered by project type.
func LoadFields(src csvparser.ChunkSource, projectType ProjectType, logger logrus.FieldLogger) (map[string]Member, error) {
	out := make(map[string]Member)
	err := loadTable(csvparser.NewReader(src), fieldColumns, func(values []string) error {
		return memberRow(values, projectType, "field", out, logger)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadMethods reads methods.csv content; same shape as fields.
func LoadMethods(src csvparser.ChunkSource, projectType ProjectType, logger logrus.FieldLogger) (map[string]Member, error) {
	out := make(map[string]Member)
	err := loadTable(csvparser.NewReader(src), methodColumns, func(values []string) error {
		return memberRow(values, projectType, "method", out, logger)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadParams reads params.csv content: param name -> renamed parameter, no
// documentation column.
func LoadParams(src csvparser.ChunkSource, projectType ProjectType, logger logrus.FieldLogger) (map[string]string, error) {
	out := make(map[string]string)
	err := loadTable(csvparser.NewReader(src), paramColumns, func(values []string) error {
		original, name, side := values[0], values[1], values[2]
		n, err := strconv.Atoi(side)
		if err != nil {
			return fmt.Errorf("invalid side value %q for %s", side, original)
		}
		if !projectType.Accepts(n) {
			return nil
		}
		if !IsValidIdentifier(name, true) {
			logger.Warnf("dropping param mapping %s: %q is not a valid identifier", original, name)
			return nil
		}
		if _, dup := out[original]; dup {
			logger.Warnf("duplicate param mapping for %s, keeping the later row", original)
		}
		out[original] = name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// memberRow interprets one fields.csv/methods.csv row into out. Rows for
// the other side are skipped; rows with an invalid renamed name are warned
// about and dropped; duplicate keys keep the later row.
func memberRow(values []string, projectType ProjectType, kind string, out map[string]Member, logger logrus.FieldLogger) error {
	original, name, side, doc := values[0], values[1], values[2], values[3]
	n, err := strconv.Atoi(side)
	if err != nil {
		return fmt.Errorf("invalid side value %q for %s", side, original)
	}
	if !projectType.Accepts(n) {
		return nil
	}
	if !IsValidIdentifier(name, true) {
		logger.Warnf("dropping %s mapping %s: %q is not a valid identifier", kind, original, name)
		return nil
	}
	if doc != "" {
		// The desc column encodes newlines as the literal two characters
		// \n; they become real line breaks first, and the defang then runs
		// on the text as it will be emitted.
		doc = EscapeCommentEnd(strings.ReplaceAll(doc, `\n`, "\n"))
	}
	if _, dup := out[original]; dup {
		logger.Warnf("duplicate %s mapping for %s, keeping the later row", kind, original)
	}
	out[original] = Member{Renamed: name, Doc: doc}
	return nil
}

// loadTable verifies the header row, then feeds every data row through
// handle. Rows must have exactly the header's column count.
func loadTable(r *csvparser.Reader, header []string, handle func(values []string) error) error {
	first, err := readRowValues(r, len(header))
	if err != nil {
		return fmt.Errorf("reading header row: %w", err)
	}
	for i, want := range header {
		if first[i] != want {
			return fmt.Errorf("unexpected header %q, want %q", strings.Join(first, ","), strings.Join(header, ","))
		}
	}
	for {
		t, err := r.PeekOrConsumeNext(true)
		if err != nil {
			return err
		}
		if t == csvparser.TokenEnd {
			return nil
		}
		if t != csvparser.TokenRow {
			_, row, column := r.Position()
			return fmt.Errorf("row %d, column %d: expected end of row", row, column)
		}
		values, err := readRowValues(r, len(header))
		if err != nil {
			return err
		}
		if err := handle(values); err != nil {
			return err
		}
	}
}

func readRowValues(r *csvparser.Reader, count int) ([]string, error) {
	values := make([]string, 0, count)
	for i := 0; i < count; i++ {
		ok, err := r.IsNextValue()
		if err != nil {
			return nil, err
		}
		if !ok {
			_, row, _ := r.Position()
			return nil, fmt.Errorf("row %d has %d columns, want %d", row, i, count)
		}
		v, err := r.ReadValueString()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	ok, err := r.IsNextValue()
	if err != nil {
		return nil, err
	}
	if ok {
		_, row, _ := r.Position()
		return nil, fmt.Errorf("row %d has more than %d columns", row, count)
	}
	return values, nil
}
