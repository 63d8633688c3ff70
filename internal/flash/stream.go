package flash

// LineWriter reassembles a byte stream into lines at CR or LF
// boundaries and hands each completed line to emit.  The flashing
// tool reports write progress by rewriting one line with bare
// carriage returns, so splitting on LF alone would stay silent
// through the longest stage of the pipeline.
type LineWriter struct {
	emit func(line string)
	buf  []byte
}

// NewLineWriter returns a writer that calls emit once per assembled
// line.  Empty lines are dropped; CRLF counts as one boundary.
func NewLineWriter(emit func(string)) *LineWriter {
	return &LineWriter{emit: emit}
}

// Write never fails; it exists to satisfy io.Writer for the tool's
// stdout.
func (w *LineWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\r' || b == '\n' {
			w.flushLine()
			continue
		}
		w.buf = append(w.buf, b)
	}
	return len(p), nil
}

// Flush emits a trailing partial line.  Call it once the stream ends,
// or the tool's last words disappear.
func (w *LineWriter) Flush() {
	w.flushLine()
}

func (w *LineWriter) flushLine() {
	if len(w.buf) == 0 {
		return
	}
	w.emit(string(w.buf))
	w.buf = w.buf[:0]
}
