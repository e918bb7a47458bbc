package csvparser

import (
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunked(s string, size int) ChunkSource {
	return ChunkSourceFunc(func() (string, error) {
		if s == "" {
			return "", io.EOF
		}
		n := size
		if n > len(s) {
			n = len(s)
		}
		// A ChunkSource delivers whole characters: never cut inside a
		// multi-byte UTF-8 sequence.
		for n < len(s) && !utf8.RuneStart(s[n]) {
			n++
		}
		chunk := s[:n]
		s = s[n:]
		return chunk, nil
	})
}

// readTable drains the reader through the public contract into rows of
// values.
func readTable(t *testing.T, r *Reader) [][]string {
	t.Helper()
	var rows [][]string
	tok, err := r.PeekNext()
	require.NoError(t, err)
	for tok != TokenEnd {
		var row []string
		for {
			ok, err := r.IsNextValue()
			require.NoError(t, err)
			if !ok {
				break
			}
			v, err := r.ReadValueString()
			require.NoError(t, err)
			row = append(row, v)
		}
		rows = append(rows, row)
		tok, err = r.PeekOrConsumeNext(true)
		require.NoError(t, err)
	}
	return rows
}

func TestReadTable(t *testing.T) {
	test := func(input string, expected [][]string) func(*testing.T) {
		return func(t *testing.T) {
			for _, size := range []int{1, 2, 3, 7, 1 << 20} {
				r := NewReader(chunked(input, size))
				assert.Equal(t, expected, readTable(t, r), "chunk size %d", size)
			}
		}
	}

	t.Run("simple", test("a,b,c\r\n1,2,3\r\n", [][]string{{"a", "b", "c"}, {"1", "2", "3"}}))
	t.Run("no trailing terminator", test("a,b\r\n1,2", [][]string{{"a", "b"}, {"1", "2"}}))
	t.Run("empty values", test(",\r\n", [][]string{{"", ""}}))
	t.Run("empty physical line is one empty value", test("a\r\n\r\nb", [][]string{{"a"}, {""}, {"b"}}))
	t.Run("ragged column counts", test("a\r\nb,c,d\r\n", [][]string{{"a"}, {"b", "c", "d"}}))
	t.Run("quoted separator", test("\"a,b\",c\r\n", [][]string{{"a,b", "c"}}))
	t.Run("quoted quote", test("\"a\"\"b\"\r\n", [][]string{{"a\"b"}}))
	t.Run("quoted row terminator", test("\"a\r\nb\",c\r\n", [][]string{{"a\r\nb", "c"}}))
	t.Run("quoted at end of input", test("a,\"b\"", [][]string{{"a", "b"}}))
	t.Run("empty quoted value", test("\"\",a\r\n", [][]string{{"", "a"}}))
	// A lone \n or \r is ordinary value content; only \r\n terminates a row.
	t.Run("bare newline is content", test("a\nb", [][]string{{"a\nb"}}))
	t.Run("bare carriage return is content", test("a\rb", [][]string{{"a\rb"}}))
	t.Run("empty input", test("", nil))
}

func TestParseErrors(t *testing.T) {
	test := func(input string, wantChar, wantRow, wantColumn int, wantMessage string) func(*testing.T) {
		return func(t *testing.T) {
			r := NewReader(chunked(input, 3))
			var err error
			for err == nil {
				var tok Token
				tok, err = r.PeekNext()
				if err != nil || tok == TokenEnd {
					break
				}
				for err == nil {
					var ok bool
					ok, err = r.IsNextValue()
					if err != nil || !ok {
						break
					}
					_, err = r.ReadValueString()
				}
				if err == nil {
					_, err = r.PeekOrConsumeNext(true)
				}
			}
			require.Error(t, err)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, wantChar, parseErr.CharIndex)
			assert.Equal(t, wantRow, parseErr.Row)
			assert.Equal(t, wantColumn, parseErr.Column)
			assert.Contains(t, parseErr.Message, wantMessage)
		}
	}

	t.Run("quote in unquoted value", test("a\"b\r\n", 1, 0, 0, "unexpected quote"))
	t.Run("unterminated quoted value", test("\"abc", 4, 0, 0, "unterminated"))
	t.Run("junk after closing quote", test("\"a\"x\r\n", 3, 0, 0, "must be followed by"))
	t.Run("position in later row and column", test("a,b\r\nc,\"d\"x\r\n", 10, 1, 1, "must be followed by"))
}

func TestSourceError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	r := NewReader(ChunkSourceFunc(func() (string, error) {
		calls++
		if calls == 1 {
			return "a,", nil
		}
		return "", boom
	}))
	v, err := r.ReadValueString()
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	_, err = r.ReadValueString()
	require.Error(t, err)
	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.ErrorIs(t, err, boom)
}

func TestTrailingEmptyRow(t *testing.T) {
	t.Run("promoted to end", func(t *testing.T) {
		r := NewReader(chunked("a\r\n", 1))
		v, err := r.ReadValueString()
		require.NoError(t, err)
		assert.Equal(t, "a", v)
		tok, err := r.PeekOrConsumeNext(true)
		require.NoError(t, err)
		assert.Equal(t, TokenEnd, tok)
	})
	t.Run("not promoted without flag", func(t *testing.T) {
		r := NewReader(chunked("a\r\n", 1))
		_, err := r.ReadValueString()
		require.NoError(t, err)
		tok, err := r.PeekOrConsumeNext(false)
		require.NoError(t, err)
		assert.Equal(t, TokenRow, tok)
		empty, err := r.IsTrailingEmptyRow()
		require.NoError(t, err)
		assert.True(t, empty)
	})
}

func TestIsNextNewRow(t *testing.T) {
	r := NewReader(chunked("a\r\nb", 2))
	isRow, err := r.IsNextNewRow()
	require.NoError(t, err)
	assert.False(t, isRow)
	_, err = r.ReadValueString()
	require.NoError(t, err)
	isRow, err = r.IsNextNewRow()
	require.NoError(t, err)
	assert.True(t, isRow)
	require.NoError(t, r.NextRow())
	char, row, column := r.Position()
	assert.Equal(t, 3, char)
	assert.Equal(t, 1, row)
	assert.Equal(t, 0, column)
}

func TestNextRowAtStartOfRow(t *testing.T) {
	r := NewReader(chunked("\r\na", 1))
	err := r.NextRow()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start of row")
}

func TestSkipValue(t *testing.T) {
	r := NewReader(chunked("a,b,c\r\n", 2))
	require.NoError(t, r.SkipValue())
	v, err := r.ReadValueString()
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	require.NoError(t, r.SkipValue())
	tok, err := r.PeekOrConsumeNext(true)
	require.NoError(t, err)
	assert.Equal(t, TokenEnd, tok)
}

// encode writes rows back out in the reader's dialect, quoting every value
// that needs it.
func encode(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				b.WriteString(",")
			}
			if strings.ContainsAny(v, ",\"\r\n") {
				b.WriteString("\"")
				b.WriteString(strings.ReplaceAll(v, "\"", "\"\""))
				b.WriteString("\"")
			} else {
				b.WriteString(v)
			}
		}
		b.WriteString("\r\n")
	}
	return b.String()
}

func TestRoundTrip(t *testing.T) {
	rows := [][]string{
		{"plain", "with,comma", "with\"quote"},
		{"", "multi\r\nline", "x"},
		{"unicode ÿ€", "", ""},
	}
	for _, size := range []int{1, 5, 64} {
		r := NewReader(chunked(encode(rows), size))
		assert.Equal(t, rows, readTable(t, r))
	}
}

func TestReaderChunkSource(t *testing.T) {
	// iotest-style one-byte reads must not split multi-byte characters.
	input := "héllo,wörld\r\n"
	src := NewReaderChunkSource(&oneByteReader{s: input})
	var got strings.Builder
	for {
		chunk, err := src.NextChunk()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(input[got.Len():], chunk) || chunk == "")
		got.WriteString(chunk)
	}
	assert.Equal(t, input, got.String())
}

type oneByteReader struct{ s string }

func (r *oneByteReader) Read(p []byte) (int, error) {
	if r.s == "" {
		return 0, io.EOF
	}
	p[0] = r.s[0]
	r.s = r.s[1:]
	return 1, nil
}
