package mjson

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
)

// Frame represents one open container in an Emitter's nesting stack: how
// many sub-emissions have happened at this level, and whether the container
// is an object (so the separator alternates ':'/',' ) or an array/root (so
// every emission after the first is just ',').
type Frame struct {
	itemCount int
	isObject  bool
}

// WriterFunc receives one output byte at a time. It must not call back into
// the Emitter that invoked it.
type WriterFunc func(b byte)

// MaxDepthPolicy selects what happens when an Emitter is asked to open a
// container past its declared frame capacity.
type MaxDepthPolicy int

const (
	// PolicyClamp is the spec's default: the container opener is still
	// emitted, but the frame stack doesn't grow past capacity, so nested
	// punctuation is computed against the clamped (too-shallow) frame.
	// Output stays syntactically closeable even though it's over-flat.
	PolicyClamp MaxDepthPolicy = iota
	// PolicyError is the "acceptable local tightening" the design notes
	// call out: the opener is still emitted (there is no way to retract
	// already-written bytes), but Err() subsequently reports ErrTooDeep.
	PolicyError
)

// EmitOption configures an Emitter constructed by Init or InitWriter.
type EmitOption func(*emitConfig)

type emitConfig struct {
	logger         *slog.Logger
	maxDepthPolicy MaxDepthPolicy
}

// WithWriterLogger routes the Emitter's diagnostic logging to logger. Passing
// nil (the default) disables it.
func WithWriterLogger(logger *slog.Logger) EmitOption {
	return func(c *emitConfig) { c.logger = logger }
}

// WithMaxDepthPolicy selects clamp-vs-error behavior for over-capacity
// container opens. The default is PolicyClamp.
func WithMaxDepthPolicy(p MaxDepthPolicy) EmitOption {
	return func(c *emitConfig) { c.maxDepthPolicy = p }
}

// Emitter produces a JSON byte stream one call at a time, tracking just
// enough state — a bounded stack of Frames — to emit correct inter-item
// punctuation. It never buffers the document and keeps no state beyond the
// caller-supplied frame stack. Number, Integer, and the \u escape of a
// non-printable byte format into short temporary strings, which may be
// heap-allocated.
type Emitter struct {
	frames    []Frame
	currLevel int
	writer    WriterFunc
	cfg       emitConfig
	err       error
}

// Init initializes an Emitter in place over the caller-supplied frames
// (whose length is the emitter's max nesting depth) and writer, and resets
// it to the top level.
func Init(frames []Frame, writer WriterFunc, opts ...EmitOption) *Emitter {
	e := &Emitter{frames: frames, writer: writer}
	for _, opt := range opts {
		opt(&e.cfg)
	}
	return e.Reset()
}

// InitWriter is the io.Writer-based convenience constructor: it adapts w
// into a WriterFunc that writes one byte at a time. Write errors from w are
// silently dropped, since Emitter has no error-return channel for the value
// operations that would need to report them — wrap w in a bufio.Writer (and
// check its Flush error) if that matters to the caller.
func InitWriter(frames []Frame, w io.Writer, opts ...EmitOption) *Emitter {
	buf := make([]byte, 1)
	return Init(frames, func(b byte) {
		buf[0] = b
		_, _ = w.Write(buf)
	}, opts...)
}

// Reset returns the emitter to the top level, clearing the root frame. It
// does not touch the writer.
func (e *Emitter) Reset() *Emitter {
	e.currLevel = 0
	e.err = nil
	e.frames[0] = Frame{}
	return e
}

// Err returns the sticky error recorded under PolicyError when a container
// was opened past the declared frame capacity. It is always nil under the
// default PolicyClamp.
func (e *Emitter) Err() error { return e.err }

// CurrLevel returns the current nesting depth.
func (e *Emitter) CurrLevel() int { return e.currLevel }

// ItemCount returns the number of sub-emissions considered so far at the
// current level.
func (e *Emitter) ItemCount() int { return e.frames[e.currLevel].itemCount }

func (e *Emitter) level() *Frame { return &e.frames[e.currLevel] }

func (e *Emitter) emitChar(ch byte) *Emitter {
	e.writer(ch)
	return e
}

func (e *Emitter) emitString(s string) *Emitter {
	for i := 0; i < len(s); i++ {
		e.emitChar(s[i])
	}
	return e
}

// commify emits the punctuation that precedes the next value or key at the
// current level, per §4.3.2, then advances the level's item count.
func (e *Emitter) commify() *Emitter {
	f := e.level()
	if f.isObject {
		if f.itemCount > 0 {
			if f.itemCount%2 == 1 {
				e.emitChar(':')
			} else {
				e.emitChar(',')
			}
		}
	} else {
		if f.itemCount > 0 {
			e.emitChar(',')
		}
	}
	f.itemCount++
	return e
}

func (e *Emitter) push(isObject bool) *Emitter {
	if e.currLevel >= len(e.frames)-1 {
		if e.cfg.maxDepthPolicy == PolicyError && e.err == nil {
			e.err = fmt.Errorf("%w: emitter frame capacity %d exceeded", ErrTooDeep, len(e.frames))
		}
		logReject(e.cfg.logger, "emit: push clamped", "level", e.currLevel)
		return e
	}
	e.currLevel++
	e.frames[e.currLevel] = Frame{isObject: isObject}
	return e
}

func (e *Emitter) pop() *Emitter {
	if e.currLevel > 0 {
		e.currLevel--
	}
	return e
}

// ObjectOpen emits '{' and pushes an object frame.
func (e *Emitter) ObjectOpen() *Emitter {
	e.commify()
	e.emitChar('{')
	return e.push(true)
}

// ObjectClose emits '}' and pops the current frame.
func (e *Emitter) ObjectClose() *Emitter {
	e.emitChar('}')
	return e.pop()
}

// ArrayOpen emits '[' and pushes an array frame.
func (e *Emitter) ArrayOpen() *Emitter {
	e.commify()
	e.emitChar('[')
	return e.push(false)
}

// ArrayClose emits ']' and pops the current frame.
func (e *Emitter) ArrayClose() *Emitter {
	e.emitChar(']')
	return e.pop()
}

// Number emits v in decimal integer form if it round-trips exactly through
// int64, otherwise in decimal floating-point form.
func (e *Emitter) Number(v float64) *Emitter {
	if i := int64(v); float64(i) == v {
		return e.Integer(i)
	}
	e.commify()
	return e.emitString(strconv.FormatFloat(v, 'f', -1, 64))
}

// Integer always emits v in decimal integer form.
func (e *Emitter) Integer(v int64) *Emitter {
	e.commify()
	return e.emitString(strconv.FormatInt(v, 10))
}

func (e *Emitter) emitQuotedByte(b byte) *Emitter {
	if b < 0x20 || b >= 0x7F {
		return e.emitString(fmt.Sprintf("\\u%04x", b))
	}
	if b == '\\' || b == '"' {
		e.emitChar('\\')
	}
	return e.emitChar(b)
}

// String emits s as a quoted JSON string, escaping bytes per §4.3.3.
func (e *Emitter) String(s string) *Emitter {
	e.commify()
	e.emitChar('"')
	for i := 0; i < len(s); i++ {
		e.emitQuotedByte(s[i])
	}
	return e.emitChar('"')
}

// Bytes emits buf as a quoted JSON string, using the same escaping rules as
// String.
func (e *Emitter) Bytes(buf []byte) *Emitter {
	e.commify()
	e.emitChar('"')
	for _, b := range buf {
		e.emitQuotedByte(b)
	}
	return e.emitChar('"')
}

// Bool emits "true" or "false".
func (e *Emitter) Bool(b bool) *Emitter {
	if b {
		return e.True()
	}
	return e.False()
}

// True emits the literal "true".
func (e *Emitter) True() *Emitter {
	e.commify()
	return e.emitString("true")
}

// False emits the literal "false".
func (e *Emitter) False() *Emitter {
	e.commify()
	return e.emitString("false")
}

// Null emits the literal "null".
func (e *Emitter) Null() *Emitter {
	e.commify()
	return e.emitString("null")
}

// Literal emits s verbatim — no quoting, no escaping — after the
// punctuation prefix. It is intended for preformatted JSON fragments.
func (e *Emitter) Literal(s string) *Emitter {
	e.commify()
	return e.emitString(s)
}

// KeyObjectOpen emits key as a string key, then opens an object.
func (e *Emitter) KeyObjectOpen(key string) *Emitter { return e.String(key).ObjectOpen() }

// KeyArrayOpen emits key as a string key, then opens an array.
func (e *Emitter) KeyArrayOpen(key string) *Emitter { return e.String(key).ArrayOpen() }

// KeyNumber emits key as a string key, then value as a number.
func (e *Emitter) KeyNumber(key string, value float64) *Emitter { return e.String(key).Number(value) }

// KeyInteger emits key as a string key, then value as an integer.
func (e *Emitter) KeyInteger(key string, value int64) *Emitter { return e.String(key).Integer(value) }

// KeyString emits key as a string key, then value as a string.
func (e *Emitter) KeyString(key, value string) *Emitter { return e.String(key).String(value) }

// KeyBytes emits key as a string key, then bytes as a string.
func (e *Emitter) KeyBytes(key string, bytes []byte) *Emitter { return e.String(key).Bytes(bytes) }

// KeyBool emits key as a string key, then value as a boolean.
func (e *Emitter) KeyBool(key string, value bool) *Emitter { return e.String(key).Bool(value) }

// KeyTrue emits key as a string key, then the literal true.
func (e *Emitter) KeyTrue(key string) *Emitter { return e.String(key).True() }

// KeyFalse emits key as a string key, then the literal false.
func (e *Emitter) KeyFalse(key string) *Emitter { return e.String(key).False() }

// KeyNull emits key as a string key, then the literal null.
func (e *Emitter) KeyNull(key string) *Emitter { return e.String(key).Null() }

// KeyLiteral emits key as a string key, then literal verbatim.
func (e *Emitter) KeyLiteral(key, literal string) *Emitter { return e.String(key).Literal(literal) }
