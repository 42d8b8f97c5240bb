package overlay

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const positionFieldCount = 6

// ParsePositions reads a position file into a FieldTable.
//
// Each non-empty, non-comment line has the form type,key,page,x,y,size.
// Lines that cannot be parsed are reported and skipped; parsing always
// continues with the next line. A read error from r is reported as an
// error severity diagnostic.
func ParsePositions(r io.Reader) (*FieldTable, *Report) {
	table := NewFieldTable()
	report := &Report{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if skipLine(line) {
			continue
		}

		name, kind, pos, err := parsePositionLine(line)
		if err != nil {
			report.warn(lineNum, name, err)
			continue
		}

		if existing, ok := table.Lookup(name); ok && existing.Kind != kind {
			report.warn(lineNum, name, fmt.Errorf("%w: %q is %s, line declares %s",
				ErrNameCollision, name, existing.Kind, kind))
			continue
		}

		table.add(name, kind, pos)
	}

	if err := scanner.Err(); err != nil {
		report.fail(lineNum+1, "", fmt.Errorf("failed to read positions: %w", err))
	}

	return table, report
}

// skipLine reports whether a trimmed line is blank or a comment
func skipLine(line string) bool {
	return line == "" || strings.HasPrefix(line, "#")
}

func parsePositionLine(line string) (string, Kind, Position, error) {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) != positionFieldCount {
		name := ""
		if len(parts) > 1 {
			name = parts[1]
		}
		return name, 0, Position{}, fmt.Errorf("%w: expected %d comma separated fields, got %d",
			ErrMalformedLine, positionFieldCount, len(parts))
	}

	name := parts[1]
	kind, err := ParseKind(parts[0])
	if err != nil {
		return name, 0, Position{}, err
	}
	if name == "" {
		return name, 0, Position{}, fmt.Errorf("%w: empty field name", ErrMalformedLine)
	}

	page, err := strconv.Atoi(parts[2])
	if err != nil {
		return name, 0, Position{}, fmt.Errorf("%w: page %q is not an integer", ErrMalformedLine, parts[2])
	}
	if page < 1 {
		return name, 0, Position{}, fmt.Errorf("%w: page must be at least 1, got %d", ErrMalformedLine, page)
	}

	x, err := parseCoordinate(parts[3])
	if err != nil {
		return name, 0, Position{}, fmt.Errorf("%w: x: %v", ErrMalformedLine, err)
	}
	y, err := parseCoordinate(parts[4])
	if err != nil {
		return name, 0, Position{}, fmt.Errorf("%w: y: %v", ErrMalformedLine, err)
	}

	size := kind.DefaultSize()
	if parts[5] != "" {
		n, err := strconv.Atoi(parts[5])
		if err != nil {
			return name, 0, Position{}, fmt.Errorf("%w: size %q is not an integer", ErrMalformedLine, parts[5])
		}
		if n < 0 {
			return name, 0, Position{}, fmt.Errorf("%w: size must not be negative, got %d", ErrMalformedLine, n)
		}
		if n > 0 {
			size = float64(n)
		}
	}

	return name, kind, Position{Page: page, X: x, Y: y, Size: size}, nil
}

// parseCoordinate parses a finite floating point number
func parseCoordinate(token string) (float64, error) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", token)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", token)
	}
	return v, nil
}
