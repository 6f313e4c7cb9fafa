package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseBody_DateAndText tests the basic VBODY layout
func TestParseBody_DateAndText(t *testing.T) {
	body := ParseBodyIn("Date:2020-01-01T00:00:00\nHello\n", time.UTC)

	assert.True(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Equal(body.Date))
	assert.Equal(t, "Hello\n", body.Body)
}

// TestParseBody_FromParsedTree tests the body of a parsed VMSG
func TestParseBody_FromParsedTree(t *testing.T) {
	objs := Parse(nestedVMSG, ContainerVMsg)
	require.Len(t, objs, 1)

	raw, ok := objs[0].Lookup("VENV", "VENV").Raw(RawKey)
	require.True(t, ok)

	body := ParseBodyIn(raw, time.UTC)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), body.Date.UTC())
	assert.Equal(t, "Hello\n", body.Body)
}

// TestParseBody_Defaults tests an empty body
func TestParseBody_Defaults(t *testing.T) {
	body := ParseBody("")

	assert.True(t, time.Unix(0, 0).Equal(body.Date), "Date should default to the Unix epoch")
	assert.Equal(t, "", body.Body)
}

// TestParseBody_SkipsCharsetAndBlankLines tests the dropped line kinds
func TestParseBody_SkipsCharsetAndBlankLines(t *testing.T) {
	text := "CHARSET=SHIFT_JIS\r\nDate:2020-01-01T00:00:00\r\n\r\nline one\r\n\r\nline two\r\nCHARSETX anything"

	body := ParseBodyIn(text, time.UTC)
	assert.Equal(t, "line one\nline two\n", body.Body)
}

// TestParseBody_LastDateWins tests multiple Date: lines
func TestParseBody_LastDateWins(t *testing.T) {
	text := "Date:2020-01-01T00:00:00\nhi\nDate:2021-06-15T12:30:00\n"

	body := ParseBodyIn(text, time.UTC)
	assert.Equal(t, time.Date(2021, 6, 15, 12, 30, 0, 0, time.UTC), body.Date)
	assert.Equal(t, "hi\n", body.Body)
}

// TestParseBody_UnparseableDate tests that garbage dates leave Date unchanged
func TestParseBody_UnparseableDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "Empty", input: "Date:\ntext"},
		{name: "Whitespace only", input: "Date:   \ntext"},
		{name: "Words", input: "Date:not a date\ntext"},
		{name: "Time buried in text", input: "Date:hello at 5pm\ntext"},
		{name: "Trailing garbage", input: "Date:2020/01/02 garbage\ntext"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := ParseBodyIn(tt.input, time.UTC)

			assert.True(t, time.Unix(0, 0).Equal(body.Date), "expected epoch, got %v", body.Date)
			assert.Equal(t, "text\n", body.Body)
		})
	}
}

// TestParseBody_GarbageKeepsEarlierDate tests that a bad Date: line does not overwrite a good one
func TestParseBody_GarbageKeepsEarlierDate(t *testing.T) {
	body := ParseBodyIn("Date:2021-06-15T12:30:00\nDate:not a date\nhi", time.UTC)

	assert.Equal(t, time.Date(2021, 6, 15, 12, 30, 0, 0, time.UTC), body.Date)
}

// TestParseBody_DateFormats tests the date forms seen in exports
func TestParseBody_DateFormats(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)

	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{
			name:     "ISO local",
			input:    "2020-01-02T03:04:05",
			expected: time.Date(2020, 1, 2, 3, 4, 5, 0, jst),
		},
		{
			name:     "ISO with offset",
			input:    "2020-01-02T03:04:05+09:00",
			expected: time.Date(2020, 1, 2, 3, 4, 5, 0, jst),
		},
		{
			name:     "ISO UTC",
			input:    "2020-01-01T18:04:05Z",
			expected: time.Date(2020, 1, 2, 3, 4, 5, 0, jst),
		},
		{
			name:     "Slashes with seconds",
			input:    "2020/01/02 03:04:05",
			expected: time.Date(2020, 1, 2, 3, 4, 5, 0, jst),
		},
		{
			name:     "Slashes without padding",
			input:    "2020/1/2 3:04",
			expected: time.Date(2020, 1, 2, 3, 4, 0, 0, jst),
		},
		{
			name:     "RFC 1123 with offset",
			input:    "Thu, 02 Jan 2020 03:04:05 +0900",
			expected: time.Date(2020, 1, 2, 3, 4, 5, 0, jst),
		},
		{
			name:     "Date only",
			input:    "2020/01/02",
			expected: time.Date(2020, 1, 2, 0, 0, 0, 0, jst),
		},
		{
			name:     "ISO date only is UTC",
			input:    "2020-01-01",
			expected: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "US month first with minutes",
			input:    "12/25/2020 10:00",
			expected: time.Date(2020, 12, 25, 10, 0, 0, 0, jst),
		},
		{
			name:     "US month first unpadded",
			input:    "1/5/2020 9:30",
			expected: time.Date(2020, 1, 5, 9, 30, 0, 0, jst),
		},
		{
			name:     "Browser toString",
			input:    "Thu Jan 02 2020 03:04:05 GMT+0900",
			expected: time.Date(2020, 1, 2, 3, 4, 5, 0, jst),
		},
		{
			name:     "Browser toString with zone name",
			input:    "Wed Jan 01 2020 18:04:05 GMT+0000 (Coordinated Universal Time)",
			expected: time.Date(2020, 1, 2, 3, 4, 5, 0, jst),
		},
		{
			name:     "Surrounding whitespace",
			input:    "   2020-01-02 03:04:05  ",
			expected: time.Date(2020, 1, 2, 3, 4, 5, 0, jst),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := ParseBodyIn("Date:"+tt.input+"\nx", jst)
			assert.True(t, tt.expected.Equal(body.Date), "expected %v, got %v", tt.expected, body.Date)
			assert.Equal(t, "x\n", body.Body)
		})
	}
}
