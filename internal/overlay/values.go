package overlay

import (
	"bufio"
	"io"
	"strings"
)

// ValueTable maps field names to raw runtime values
type ValueTable map[string]string

// ParseValues reads a value file of name,value lines. Blank and # lines are
// ignored, the value is everything after the first comma with surrounding
// whitespace removed, a line without a comma yields an empty value and later
// duplicates overwrite earlier ones.
func ParseValues(r io.Reader) (ValueTable, error) {
	values := make(ValueTable)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if skipLine(line) {
			continue
		}

		name, value, _ := strings.Cut(line, ",")
		values[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// Lookup returns the value for name and whether it was present
func (v ValueTable) Lookup(name string) (string, bool) {
	value, ok := v[name]
	return value, ok
}
