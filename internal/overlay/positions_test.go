package overlay

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositions_Kinds(t *testing.T) {
	input := strings.Join([]string{
		"t,name1,1,50,100,12",
		"r,opt,1,10,10,10",
		"c,agree,2,30.5,40.25,0",
		"m,langs,1,5,5,",
	}, "\n")

	table, report := ParsePositions(strings.NewReader(input))
	require.Equal(t, 0, report.Len(), "unexpected diagnostics: %v", report.Err())
	require.Equal(t, 4, table.Len())

	assert.Equal(t, []Position{{Page: 1, X: 50, Y: 100, Size: 12}}, table.Text["name1"].Positions)
	assert.Equal(t, KindRadio, table.Radio["opt"].Kind)
	assert.Equal(t, []Position{{Page: 2, X: 30.5, Y: 40.25, Size: DefaultShapeSize}}, table.Checkbox["agree"].Positions)
	assert.Equal(t, []Position{{Page: 1, X: 5, Y: 5, Size: DefaultShapeSize}}, table.MultiSelect["langs"].Positions)
}

func TestParsePositions_DefaultTextSize(t *testing.T) {
	table, report := ParsePositions(strings.NewReader("t,title,1,1,1,0\n"))
	require.Equal(t, 0, report.Len())
	assert.Equal(t, float64(DefaultTextSize), table.Text["title"].Positions[0].Size)
}

func TestParsePositions_SinglePositionLastWriteWins(t *testing.T) {
	input := "t,name,1,1,1,9\nt,name,2,3,4,11\nc,box,1,1,1,10\nc,box,1,7,7,10\n"

	table, report := ParsePositions(strings.NewReader(input))
	require.Equal(t, 0, report.Len())

	assert.Equal(t, []Position{{Page: 2, X: 3, Y: 4, Size: 11}}, table.Text["name"].Positions)
	assert.Equal(t, []Position{{Page: 1, X: 7, Y: 7, Size: 10}}, table.Checkbox["box"].Positions)
}

func TestParsePositions_MultiPositionAppends(t *testing.T) {
	input := "r,opt,1,10,10,10\nm,many,1,1,1,10\nr,opt,1,20,10,10\nm,many,1,2,2,10\nr,opt,1,10,10,10\n"

	table, report := ParsePositions(strings.NewReader(input))
	require.Equal(t, 0, report.Len())

	// duplicates are kept, order is file order
	assert.Equal(t, []Position{
		{Page: 1, X: 10, Y: 10, Size: 10},
		{Page: 1, X: 20, Y: 10, Size: 10},
		{Page: 1, X: 10, Y: 10, Size: 10},
	}, table.Radio["opt"].Positions)
	assert.Len(t, table.MultiSelect["many"].Positions, 2)
}

func TestParsePositions_UnknownTypeContinues(t *testing.T) {
	input := "x,bad,1,1,1,1\nt,good,1,1,1,1\n"

	table, report := ParsePositions(strings.NewReader(input))

	require.Equal(t, 1, report.Len())
	d := report.Diagnostics[0]
	assert.Equal(t, 1, d.Line)
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.True(t, errors.Is(d, ErrUnknownKind))
	assert.Contains(t, d.Error(), "line 1")

	assert.Equal(t, 1, table.Len())
	_, ok := table.Lookup("bad")
	assert.False(t, ok)
	assert.NotNil(t, table.Text["good"])
}

func TestParsePositions_MalformedLines(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "too few fields", line: "t,a,1,1,1"},
		{name: "too many fields", line: "t,a,1,1,1,1,1"},
		{name: "page not integer", line: "t,a,one,1,1,1"},
		{name: "page zero", line: "t,a,0,1,1,1"},
		{name: "x not number", line: "t,a,1,abc,1,1"},
		{name: "y NaN", line: "t,a,1,1,NaN,1"},
		{name: "y infinite", line: "t,a,1,1,Inf,1"},
		{name: "size not integer", line: "t,a,1,1,1,1.5"},
		{name: "negative size", line: "t,a,1,1,1,-3"},
		{name: "empty name", line: "t,,1,1,1,1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, report := ParsePositions(strings.NewReader("# header\n" + tt.line + "\nt,ok,1,1,1,1\n"))

			require.Equal(t, 1, report.Len(), "want one diagnostic for %q", tt.line)
			assert.Equal(t, 2, report.Diagnostics[0].Line)
			assert.False(t, report.HasErrors(), "malformed lines are warnings")
			assert.Equal(t, 1, table.Len())
			assert.NotNil(t, table.Text["ok"])
		})
	}
}

func TestParsePositions_CrossKindCollision(t *testing.T) {
	input := "t,shared,1,1,1,9\nr,shared,1,2,2,10\n"

	table, report := ParsePositions(strings.NewReader(input))

	require.Equal(t, 1, report.Len())
	assert.True(t, errors.Is(report.Diagnostics[0], ErrNameCollision))
	assert.Equal(t, 2, report.Diagnostics[0].Line)
	assert.Equal(t, "shared", report.Diagnostics[0].Field)
	assert.Empty(t, table.Radio)
	assert.NotNil(t, table.Text["shared"])
}

func TestParsePositions_CommentsAndBlanksAreTransparent(t *testing.T) {
	clean := "t,name1,1,50,100,12\nr,opt,1,10,10,10\nr,opt,1,20,10,10\nc,box,2,1,1,10\nm,ms,1,1,1,10\nm,ms,1,2,1,10\n"
	noisy := "# positions for the form\n\n  t,name1,1,50,100,12\n# radio\nr,opt,1,10,10,10\n\n\r\n" +
		"   # indented comment\nr,opt,1,20,10,10\r\nc,box,2,1,1,10\n\nm,ms,1,1,1,10\n#m,ms,9,9,9,9\nm,ms,1,2,1,10\n\n"

	want, wantReport := ParsePositions(strings.NewReader(clean))
	got, gotReport := ParsePositions(strings.NewReader(noisy))

	require.Equal(t, 0, wantReport.Len())
	require.Equal(t, 0, gotReport.Len())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("field table mismatch (-clean +noisy):\n%s", diff)
	}
}

func TestFieldTable_FieldsOrder(t *testing.T) {
	input := "m,z,1,1,1,1\nt,b,1,1,1,1\nc,c,1,1,1,1\nt,a,1,1,1,1\nr,r,1,1,1,1\n"
	table, _ := ParsePositions(strings.NewReader(input))

	var names []string
	for _, f := range table.Fields() {
		names = append(names, f.Kind.Token()+":"+f.Name)
	}
	assert.Equal(t, []string{"t:a", "t:b", "r:r", "c:c", "m:z"}, names)
}

func TestParseKind(t *testing.T) {
	for token, want := range map[string]Kind{"t": KindText, "r": KindRadio, "c": KindCheckbox, "m": KindMultiSelect} {
		got, err := ParseKind(token)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, token, got.Token())
	}

	_, err := ParseKind("T")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
