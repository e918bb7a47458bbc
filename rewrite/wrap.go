package rewrite

import (
	"fmt"
	"strings"
)

// Wrapper reflows paragraph text so every emitted line starts with a fixed
// prefix and stays within a maximum width. The only break opportunity is a
// space; keeping the requested prefix intact matters more than strict
// width, so a line without any usable space is emitted overlong.
type Wrapper struct {
	max       int
	prefix    []rune
	lineBreak string
}

// NewWrapper fails when the prefix alone already fills the maximum width.
// Lengths are counted in characters, not bytes.
func NewWrapper(max int, prefix, lineBreak string) (Wrapper, error) {
	p := []rune(prefix)
	if len(p) >= max {
		return Wrapper{}, fmt.Errorf("line prefix of length %d leaves no room at maximum width %d", len(p), max)
	}
	return Wrapper{max: max, prefix: p, lineBreak: lineBreak}, nil
}

// WrapString splits s on \n into logical lines and wraps them.
func (w Wrapper) WrapString(s string) string {
	return w.Wrap(strings.Split(s, "\n"))
}

// Wrap reflows the logical lines. The remainder of a split line is pushed
// back to the front of the queue so it gets its own prefix.
func (w Wrapper) Wrap(lines []string) string {
	var b strings.Builder
	queue := make([][]rune, 0, len(lines))
	for _, l := range lines {
		queue = append(queue, []rune(l))
	}
	for len(queue) > 0 {
		line := queue[0]
		queue = queue[1:]
		candidate := append(append(make([]rune, 0, len(w.prefix)+len(line)), w.prefix...), line...)
		if len(candidate) <= w.max {
			b.WriteString(string(candidate))
			b.WriteString(w.lineBreak)
			continue
		}
		split := -1
		for i := w.max - 1; i >= len(w.prefix); i-- {
			if candidate[i] == ' ' {
				split = i
				break
			}
		}
		if split == -1 {
			// No break point within the width; as a fallback take the
			// first space that still leaves a non-empty remainder.
			for i := w.max; i < len(candidate)-1; i++ {
				if candidate[i] == ' ' {
					split = i
					break
				}
			}
		}
		if split == -1 {
			b.WriteString(string(candidate))
			b.WriteString(w.lineBreak)
			continue
		}
		b.WriteString(string(candidate[:split+1]))
		b.WriteString(w.lineBreak)
		queue = append([][]rune{candidate[split+1:]}, queue...)
	}
	return strings.TrimSuffix(b.String(), w.lineBreak)
}
