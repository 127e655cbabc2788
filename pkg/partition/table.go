package partition

import (
	"bufio"
	"io"
	"strings"

	"github.com/arthur-debert/fwprov/pkg/errors"
)

// Row arities accepted in a partition table
const (
	columnsWithFlags    = 6
	columnsWithoutFlags = 5
)

// Row is one data line of a partition table before placement
type Row struct {
	Line    int
	Name    string
	Type    string
	SubType string
	Offset  uint32
	Size    uint32
	Flags   string

	// HasOffset is false when the offset cell was empty and the entry
	// must be placed after its predecessor.
	HasOffset bool
}

// ParseTable reads partition table rows. Comment lines (leading '#') and
// blank lines are skipped. A row is read as name,type,subtype,offset,size,flags
// when it has six cells and as name,type,subtype,offset,size when it has five;
// any other arity is an error naming the line.
func ParseTable(r io.Reader, source string) ([]Row, error) {
	var rows []Row
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		row, err := parseRow(strings.Split(line, ","), lineNo)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrPartitionInvalid, "%s:%d", source, lineNo).
				WithDetail("line", lineNo).
				WithDetail("source", source)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read %s", source)
	}
	return rows, nil
}

func parseRow(cells []string, lineNo int) (Row, error) {
	var flags string
	switch len(cells) {
	case columnsWithFlags:
		flags = stripSpace(cells[5])
	case columnsWithoutFlags:
	default:
		return Row{}, errors.Newf(errors.ErrPartitionInvalid,
			"expected %d or %d columns, got %d", columnsWithoutFlags, columnsWithFlags, len(cells))
	}

	row := Row{
		Line:    lineNo,
		Name:    cells[0],
		Type:    stripSpace(cells[1]),
		SubType: stripSpace(cells[2]),
		Flags:   flags,
	}
	if strings.TrimSpace(row.Name) == "" {
		return Row{}, errors.New(errors.ErrPartitionInvalid, "empty partition name")
	}

	if off := stripSpace(cells[3]); off != "" {
		v, err := ParseNumber(off)
		if err != nil {
			return Row{}, errors.Wrapf(err, errors.ErrPartitionInvalid, "partition %s: offset", row.Name)
		}
		row.Offset = v
		row.HasOffset = true
	}

	size := stripSpace(cells[4])
	if size == "" {
		return Row{}, errors.Newf(errors.ErrPartitionInvalid, "partition %s: size is required", row.Name)
	}
	v, err := ParseNumber(size)
	if err != nil {
		return Row{}, errors.Wrapf(err, errors.ErrPartitionInvalid, "partition %s: size", row.Name)
	}
	row.Size = v

	return row, nil
}

// stripSpace removes every whitespace rune, not just the ends
func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
