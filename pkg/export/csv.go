// Package export writes spreadsheet downloads.
package export

import (
	"bufio"
	"io"
	"strings"
	"time"
)

// Field is one CSV cell. Quoted cells are wrapped in double quotes with inner quotes doubled.
type Field struct {
	Value  string
	Quoted bool
}

// Q returns a quoted field.
func Q(v string) Field { return Field{Value: v, Quoted: true} }

// Raw returns an unquoted field.
func Raw(v string) Field { return Field{Value: v} }

// WriteCSV writes a bare header line followed by rows, separated by "\n".
func WriteCSV(w io.Writer, header []string, rows [][]Field) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(header, ",")); err != nil {
		return err
	}
	for _, row := range rows {
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		for i, f := range row {
			if i > 0 {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(encode(f)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func encode(f Field) string {
	if !f.Quoted {
		return f.Value
	}
	return `"` + strings.ReplaceAll(f.Value, `"`, `""`) + `"`
}

// Filename returns "<prefix>_YYYY-MM-DD.csv" for day.
func Filename(prefix string, day time.Time) string {
	return prefix + "_" + day.Format("2006-01-02") + ".csv"
}
