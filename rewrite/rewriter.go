// Package rewrite streams Java source text through a chunk-fed scanner,
// renaming obfuscated identifiers from the mapping store and injecting
// documentation comments above field and method declarations.
package rewrite

import (
	"errors"
	"io"
	"unicode/utf8"

	"github.com/srgtools/remap/mapping"
)

// maxDocLineLength bounds injected documentation lines, prefix included.
const maxDocLineLength = 80

var errFinished = errors.New("rewriter already finished")

// Rewriter consumes input in chunks of arbitrary size and pushes the
// transformed text to out in strict input order. Identifier occurrences
// may straddle chunk boundaries; the rewriter retains the undecidable
// tail of its buffer until more input (or Finish) settles the match.
type Rewriter struct {
	store *mapping.Store
	out   io.Writer

	buf      []rune
	tail     []rune // recently emitted characters, for the look-behind
	carry    []byte // incomplete UTF-8 sequence from Write
	finished bool
}

func NewRewriter(store *mapping.Store, out io.Writer) *Rewriter {
	return &Rewriter{store: store, out: out}
}

// Append feeds the next chunk of characters.
func (rw *Rewriter) Append(chunk string) error {
	if rw.finished {
		return errFinished
	}
	if chunk != "" {
		rw.buf = append(rw.buf, []rune(chunk)...)
	}
	return rw.process(false)
}

// Write feeds the next chunk of bytes, so io.Copy can drive the rewriter.
// A multi-byte character split across writes is carried to the next call.
func (rw *Rewriter) Write(p []byte) (int, error) {
	if rw.finished {
		return 0, errFinished
	}
	data := p
	if len(rw.carry) > 0 {
		data = append(append([]byte(nil), rw.carry...), p...)
		rw.carry = nil
	}
	if cut := incompleteTailStart(data); cut < len(data) {
		rw.carry = append(rw.carry, data[cut:]...)
		data = data[:cut]
	}
	if err := rw.Append(string(data)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Finish settles any pending match without further input and flushes the
// rest of the buffer. The rewriter accepts no input afterwards.
func (rw *Rewriter) Finish() error {
	if rw.finished {
		return errFinished
	}
	if len(rw.carry) > 0 {
		rw.buf = append(rw.buf, []rune(string(rw.carry))...)
		rw.carry = nil
	}
	if err := rw.process(true); err != nil {
		return err
	}
	rw.finished = true
	return nil
}

// process scans the buffer position by position. A definitive match is
// rewritten and flushed; a position where more input could still start or
// extend a match ends the pass, flushing everything before it and
// retaining the rest. With atEOF there is nothing to wait for, so the
// whole buffer drains.
func (rw *Rewriter) process(atEOF bool) error {
	i := 0
	for i < len(rw.buf) {
		m, needMore := matchAt(rw.buf, rw.tail, i, atEOF)
		if needMore && !atEOF {
			if err := rw.emit(rw.buf[:i]); err != nil {
				return err
			}
			rw.buf = append(rw.buf[:0:0], rw.buf[i:]...)
			return nil
		}
		if m == nil {
			i++
			continue
		}
		if err := rw.applyMatch(m); err != nil {
			return err
		}
		i = 0
	}
	if err := rw.emit(rw.buf); err != nil {
		return err
	}
	rw.buf = rw.buf[:0]
	return nil
}

// applyMatch emits everything up to the end of the match, with the name
// spliced and, for documented declarations, the doc block inserted before
// the captured line break. The replacement happens strictly within the
// matched extent, so the captured break survives untouched.
func (rw *Rewriter) applyMatch(m *match) error {
	name := string(rw.buf[m.nameStart:m.nameEnd])
	renamed, renameOK, doc, docOK := rw.lookup(m.kind, name)

	if err := rw.emit(rw.buf[:m.start]); err != nil {
		return err
	}
	if docOK {
		w, err := NewWrapper(maxDocLineLength, m.indent+" * ", m.lineBreak)
		if err != nil {
			return err
		}
		block := m.lineBreak + m.indent + "/**" +
			m.lineBreak + w.WrapString(doc) +
			m.lineBreak + m.indent + " */"
		if err := rw.emitString(block); err != nil {
			return err
		}
	}
	if err := rw.emit(rw.buf[m.start:m.nameStart]); err != nil {
		return err
	}
	if !renameOK {
		renamed = name
	}
	if err := rw.emitString(renamed); err != nil {
		return err
	}
	if err := rw.emit(rw.buf[m.nameEnd:m.end]); err != nil {
		return err
	}
	rw.buf = append(rw.buf[:0:0], rw.buf[m.end:]...)
	return nil
}

func (rw *Rewriter) lookup(kind matchKind, name string) (renamed string, renameOK bool, doc string, docOK bool) {
	switch kind {
	case matchFieldDecl:
		renamed, renameOK = rw.store.FieldRename(name)
		doc, docOK = rw.store.FieldDoc(name)
	case matchMethodDecl:
		renamed, renameOK = rw.store.MethodRename(name)
		doc, docOK = rw.store.MethodDoc(name)
	case matchFieldRef:
		renamed, renameOK = rw.store.FieldRename(name)
	case matchMethodRef:
		renamed, renameOK = rw.store.MethodRename(name)
	case matchParamRef:
		renamed, renameOK = rw.store.ParamRename(name)
	}
	return
}

func (rw *Rewriter) emit(runes []rune) error {
	if len(runes) == 0 {
		return nil
	}
	if _, err := io.WriteString(rw.out, string(runes)); err != nil {
		return err
	}
	rw.tail = append(rw.tail, runes...)
	if len(rw.tail) > overrideTailLen {
		rw.tail = append(rw.tail[:0:0], rw.tail[len(rw.tail)-overrideTailLen:]...)
	}
	return nil
}

func (rw *Rewriter) emitString(s string) error {
	return rw.emit([]rune(s))
}

// incompleteTailStart returns the index of the first byte of a trailing
// incomplete UTF-8 sequence, or len(b) if the buffer ends on a character
// boundary.
func incompleteTailStart(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			r, size := utf8.DecodeRune(b[i:])
			if r == utf8.RuneError && size == 1 && len(b)-i < utf8.UTFMax {
				return i
			}
			return len(b)
		}
	}
	return len(b)
}
