package rewrite

// The rewriter recognizes four shapes, first one wins at any position:
//
//  1. declaration: a line break not preceded by @Override, indentation,
//     zero or more type-like tokens each followed by one space, then
//     field_<digits>_<word> up to '=' or ';', or func_<digits>_<word>
//     up to '('
//  2. bare field reference field_<digits>_<word>
//  3. bare method reference func_<digits>_<word>
//  4. parameter reference p_<word>_<digits>_
//
// Matching is hand-rolled rune scanning instead of regexp: the declaration
// shape needs backtracking over the type-token count, a negative
// look-behind, and a "could more input change this?" answer at every
// buffer end, none of which RE2 offers. Every function below returns
// needMore == true when it ran out of buffered input before reaching a
// decision; with atEOF set it decides on what is there.

type matchKind int

const (
	matchFieldDecl matchKind = iota
	matchMethodDecl
	matchFieldRef
	matchMethodRef
	matchParamRef
)

type match struct {
	kind       matchKind
	start, end int // full extent within the buffer
	nameStart  int // identifier extent within the buffer
	nameEnd    int
	lineBreak  string // declarations only: captured break and indentation,
	indent     string // re-emitted verbatim by the injected doc block
}

func isWordRune(r rune) bool {
	return r == '_' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isDigitRune(r rune) bool {
	return '0' <= r && r <= '9'
}

func isTypeRune(r rune) bool {
	return isWordRune(r) || r == '$' || r == '.' || r == '[' || r == ']'
}

// matchAt attempts all pattern alternatives at position i. prev holds the
// characters emitted immediately before buf[0], for the look-behind.
func matchAt(buf, prev []rune, i int, atEOF bool) (*match, bool) {
	switch buf[i] {
	case '\n', '\r':
		return matchDeclarationAt(buf, prev, i, atEOF)
	case 'f':
		m, needMore := matchRefAt(buf, i, atEOF, "field_", matchFieldRef)
		if m != nil || needMore {
			return m, needMore
		}
		return matchRefAt(buf, i, atEOF, "func_", matchMethodRef)
	case 'p':
		return matchParamRefAt(buf, i, atEOF)
	default:
		return nil, false
	}
}

var overrideRunes = []rune("@Override")

// overrideTailLen is how much emitted history the look-behind can need:
// the annotation plus one rune for the \r of a split \r\n.
const overrideTailLen = len("@Override") + 1

// runeAt indexes the concatenation prev+buf, where buf[0] is index 0 and
// negative indices reach back into prev.
func runeAt(buf, prev []rune, idx int) (rune, bool) {
	if idx >= 0 {
		if idx >= len(buf) {
			return 0, false
		}
		return buf[idx], true
	}
	idx += len(prev)
	if idx < 0 {
		return 0, false
	}
	return prev[idx], true
}

// precededByOverride reports whether the line break starting at i sits
// directly after an @Override annotation. A bare \n that is the second
// half of \r\n looks past the \r, so the annotation is found no matter
// which character of the break the match is anchored on.
func precededByOverride(buf, prev []rune, i int) bool {
	end := i
	if buf[i] == '\n' {
		if r, ok := runeAt(buf, prev, i-1); ok && r == '\r' {
			end = i - 1
		}
	}
	for k := 0; k < len(overrideRunes); k++ {
		r, ok := runeAt(buf, prev, end-len(overrideRunes)+k)
		if !ok || r != overrideRunes[k] {
			return false
		}
	}
	return true
}

func matchDeclarationAt(buf, prev []rune, i int, atEOF bool) (*match, bool) {
	j := i
	var lineBreak string
	switch buf[j] {
	case '\n':
		lineBreak = "\n"
		j++
	case '\r':
		if j+1 >= len(buf) {
			return nil, !atEOF
		}
		if buf[j+1] != '\n' {
			return nil, false
		}
		lineBreak = "\r\n"
		j += 2
	default:
		return nil, false
	}
	if precededByOverride(buf, prev, i) {
		return nil, false
	}

	// Indentation: one or more units, each a tab or exactly four spaces.
	// A residual shorter space run means no following element can match.
	indentStart := j
	for {
		if j >= len(buf) {
			if !atEOF {
				return nil, true
			}
			break
		}
		if buf[j] == '\t' {
			j++
			continue
		}
		if buf[j] == ' ' {
			k, n := j, 0
			for n < 4 {
				if k >= len(buf) {
					if !atEOF {
						return nil, true
					}
					break
				}
				if buf[k] != ' ' {
					break
				}
				k++
				n++
			}
			if n < 4 {
				break
			}
			j = k
			continue
		}
		break
	}
	if j == indentStart {
		return nil, false
	}
	if j < len(buf) && buf[j] == ' ' {
		return nil, false
	}

	// Type-like tokens, greedily collected; the member is then tried from
	// the longest token run backwards, the way a backtracking engine
	// would. The member name itself often doubles as the last "type
	// token" when an initializer follows, which is why backtracking is
	// not optional here.
	candidates := []int{j}
	k := j
	for {
		t := k
		for t < len(buf) && isTypeRune(buf[t]) {
			t++
		}
		if t >= len(buf) {
			if !atEOF {
				return nil, true
			}
			break
		}
		if t == k || buf[t] != ' ' {
			break
		}
		k = t + 1
		candidates = append(candidates, k)
	}
	for c := len(candidates) - 1; c >= 0; c-- {
		m, needMore := matchMemberAt(buf, candidates[c], atEOF)
		if needMore {
			return nil, true
		}
		if m != nil {
			m.start = i
			m.lineBreak = lineBreak
			m.indent = string(buf[indentStart:j])
			return m, false
		}
	}
	return nil, false
}

func matchMemberAt(buf []rune, p int, atEOF bool) (*match, bool) {
	if m, needMore := matchFieldMemberAt(buf, p, atEOF); m != nil || needMore {
		return m, needMore
	}
	return matchMethodMemberAt(buf, p, atEOF)
}

// matchFieldMemberAt matches field_<digits>_<word> followed by optional
// spaces and '=' or ';'.
func matchFieldMemberAt(buf []rune, p int, atEOF bool) (*match, bool) {
	nameEnd, needMore, ok := matchSeargeName(buf, p, atEOF, "field_")
	if !ok {
		return nil, needMore
	}
	j := nameEnd
	for j < len(buf) && buf[j] == ' ' {
		j++
	}
	if j >= len(buf) {
		return nil, !atEOF
	}
	if buf[j] != '=' && buf[j] != ';' {
		return nil, false
	}
	return &match{kind: matchFieldDecl, nameStart: p, nameEnd: nameEnd, end: j + 1}, false
}

// matchMethodMemberAt matches func_<digits>_<word> followed by '('.
func matchMethodMemberAt(buf []rune, p int, atEOF bool) (*match, bool) {
	nameEnd, needMore, ok := matchSeargeName(buf, p, atEOF, "func_")
	if !ok {
		return nil, needMore
	}
	if nameEnd >= len(buf) {
		return nil, !atEOF
	}
	if buf[nameEnd] != '(' {
		return nil, false
	}
	return &match{kind: matchMethodDecl, nameStart: p, nameEnd: nameEnd, end: nameEnd + 1}, false
}

// matchSeargeName matches <prefix><digits>_<word> starting at i and
// returns the end of the identifier. The trailing word run is greedy, so
// ending exactly at the buffer boundary is undecided unless atEOF.
func matchSeargeName(buf []rune, i int, atEOF bool, prefix string) (nameEnd int, needMore, ok bool) {
	j := i
	for _, r := range prefix {
		if j >= len(buf) {
			return 0, !atEOF, false
		}
		if buf[j] != r {
			return 0, false, false
		}
		j++
	}
	d := j
	for j < len(buf) && isDigitRune(buf[j]) {
		j++
	}
	if j >= len(buf) && !atEOF {
		return 0, true, false
	}
	if j == d {
		return 0, false, false
	}
	if j >= len(buf) {
		return 0, false, false
	}
	if buf[j] != '_' {
		return 0, false, false
	}
	j++
	w := j
	for j < len(buf) && isWordRune(buf[j]) {
		j++
	}
	if j >= len(buf) && !atEOF {
		return 0, true, false
	}
	if j == w {
		return 0, false, false
	}
	return j, false, true
}

func matchRefAt(buf []rune, i int, atEOF bool, prefix string, kind matchKind) (*match, bool) {
	nameEnd, needMore, ok := matchSeargeName(buf, i, atEOF, prefix)
	if !ok {
		return nil, needMore
	}
	return &match{kind: kind, start: i, end: nameEnd, nameStart: i, nameEnd: nameEnd}, false
}

// matchParamRefAt matches p_<word>_<digits>_. The word part is greedy: of
// all the ways to split the word run, the longest prefix that still
// leaves a _<digits>_ suffix wins, and trailing word characters beyond
// the final underscore are not part of the match.
func matchParamRefAt(buf []rune, i int, atEOF bool) (*match, bool) {
	j := i
	if buf[j] != 'p' {
		return nil, false
	}
	j++
	if j >= len(buf) {
		return nil, !atEOF
	}
	if buf[j] != '_' {
		return nil, false
	}
	j++
	w := j
	for j < len(buf) && isWordRune(buf[j]) {
		j++
	}
	if j >= len(buf) && !atEOF {
		return nil, true
	}
	run := buf[w:j]
	for wordLen := len(run) - 1; wordLen >= 1; wordLen-- {
		if run[wordLen] != '_' {
			continue
		}
		e := wordLen + 1
		for e < len(run) && isDigitRune(run[e]) {
			e++
		}
		if e == wordLen+1 || e >= len(run) || run[e] != '_' {
			continue
		}
		end := w + e + 1
		return &match{kind: matchParamRef, start: i, end: end, nameStart: i, nameEnd: end}, false
	}
	return nil, false
}
