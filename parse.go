package mjson

import (
	"log/slog"
	"unsafe"
)

// parser is the scratch state for one call to Parse/ParseString. It never
// allocates beyond itself: every Token it writes lives in the caller-owned
// tokens slice, and every extent it records is a (start, length) pair into
// the caller-owned input.
type parser struct {
	input []byte
	pos   int

	tokens []Token
	count  int

	level int
	cfg   parseConfig
}

func (p *parser) atEOS() bool           { return p.pos >= len(p.input) }
func (p *parser) peek() byte            { return p.input[p.pos] }
func (p *parser) get() byte             { b := p.input[p.pos]; p.pos++; return b }
func (p *parser) logger() *slog.Logger  { return p.cfg.logger }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}

func (p *parser) skipWhitespace() {
	for !p.atEOS() {
		switch p.peek() {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

// allocToken reserves the next token slot, recording its start position and
// type and the current nesting level. It returns the token's index in
// p.tokens, or -1 if the caller-supplied storage is exhausted.
func (p *parser) allocToken(typ Type) int {
	if p.count >= len(p.tokens) {
		return -1
	}
	idx := p.count
	p.count++
	tok := &p.tokens[idx]
	*tok = Token{}
	tok.start = uint32(p.pos)
	tok.setType(typ)
	tok.setLevel(p.level)
	return idx
}

// finalizeToken sets the token's length to span from its recorded start to
// the parser's current position.
func (p *parser) finalizeToken(idx int) {
	tok := &p.tokens[idx]
	tok.setLength(p.pos - int(tok.start))
}

// Parse tokenizes buf into tokens, in place. On success it returns the
// number of tokens written (≥1, ≤len(tokens)) and a nil error. On failure it
// returns 0 and a *ParseError wrapping one of the sentinel errors in
// errors.go.
//
// tokens is zeroed before use; any prior contents are discarded regardless
// of whether the parse succeeds.
func Parse(buf []byte, tokens []Token, opts ...ParseOption) (int, error) {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(buf) == 0 || len(tokens) == 0 {
		logReject(cfg.logger, "parse rejected", "reason", ErrorName(ErrBadArgument))
		return 0, parseErr(0, ErrBadArgument)
	}

	for i := range tokens {
		tokens[i] = Token{}
	}

	p := &parser{input: buf, tokens: tokens, cfg: cfg}

	logTrace(p.logger(), "parse start", "bytes", len(buf))

	if err := p.parseElement(); err != nil {
		logReject(p.logger(), "parse rejected", "reason", ErrorName(err))
		return 0, err
	}

	if p.count == 0 {
		logReject(p.logger(), "parse rejected", "reason", ErrorName(ErrNoEntities))
		return 0, parseErr(p.pos, ErrNoEntities)
	}

	p.skipWhitespace()
	if !p.atEOS() {
		logReject(p.logger(), "parse rejected", "reason", ErrorName(ErrStrayInput))
		return 0, parseErr(p.pos, ErrStrayInput)
	}

	tokens[p.count-1].setIsLast(true)
	return p.count, nil
}

// ParseString tokenizes s into tokens. It is identical to Parse except that
// the input is supplied as a string, matching the original ABI's pairing of
// a null-terminated-string entry point alongside a length+buffer one.
func ParseString(s string, tokens []Token, opts ...ParseOption) (int, error) {
	// Parse only reads its input, so s is viewed as bytes without copying it.
	return Parse(unsafe.Slice(unsafe.StringData(s), len(s)), tokens, opts...)
}

// parseElement parses one JSON value starting at the next non-whitespace
// byte, dispatching on its first byte.
func (p *parser) parseElement() error {
	p.skipWhitespace()

	logTrace(p.logger(), "parseElement", "pos", p.pos)

	if p.atEOS() {
		return nil
	}

	ch := p.peek()
	switch {
	case ch == '"':
		return p.parseString()
	case ch == '-' || isDigit(ch):
		return p.parseNumber()
	case ch == 't':
		return p.parseLiteral("true", True)
	case ch == 'f':
		return p.parseLiteral("false", False)
	case ch == 'n':
		return p.parseLiteral("null", Null)
	case ch == '{':
		return p.parseObject()
	case ch == '[':
		return p.parseArray()
	case ch&0x80 != 0:
		return parseErr(p.pos, ErrNoMultibyte)
	default:
		logReject(p.logger(), "parseElement: unrecognized byte", "byte", ch, "pos", p.pos)
		return parseErr(p.pos, ErrBadFormat)
	}
}

func (p *parser) parseString() error {
	logTrace(p.logger(), "parseString", "pos", p.pos)

	idx := p.allocToken(String)
	if idx < 0 {
		return parseErr(p.pos, ErrNotEnoughTokens)
	}
	p.get() // opening quote

	for !p.atEOS() {
		ch := p.peek()
		switch {
		case ch == '\\':
			p.get()
			if p.atEOS() {
				return parseErr(p.pos, ErrIncomplete)
			}
			esc := p.get()
			switch esc {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				// valid single-char escape, already consumed.
			case 'u':
				for i := 0; i < 4; i++ {
					if p.atEOS() {
						return parseErr(p.pos, ErrIncomplete)
					}
					if !isHex(p.peek()) {
						return parseErr(p.pos, ErrBadFormat)
					}
					p.get()
				}
			default:
				return parseErr(p.pos, ErrBadFormat)
			}
		case ch&0x80 != 0:
			return parseErr(p.pos, ErrNoMultibyte)
		case ch < 0x20:
			return parseErr(p.pos, ErrBadFormat)
		case ch == '"':
			p.get() // closing quote
			p.finalizeToken(idx)
			return nil
		default:
			p.get()
		}
	}
	return parseErr(p.pos, ErrIncomplete)
}

func (p *parser) parseNumber() error {
	logTrace(p.logger(), "parseNumber", "pos", p.pos)

	idx := p.allocToken(Integer)
	if idx < 0 {
		return parseErr(p.pos, ErrNotEnoughTokens)
	}

	if !p.atEOS() && p.peek() == '-' {
		p.get()
	}
	if p.atEOS() {
		return parseErr(p.pos, ErrIncomplete)
	}

	hasLeadingZero := false
	if p.peek() == '0' {
		hasLeadingZero = true
		p.get()
	}
	if hasLeadingZero && !p.atEOS() && isDigit(p.peek()) {
		return parseErr(p.pos, ErrBadFormat)
	}

	hasIntegerPart := false
	for !p.atEOS() && isDigit(p.peek()) {
		hasIntegerPart = true
		p.get()
	}

	if !hasLeadingZero && !hasIntegerPart {
		return parseErr(p.pos, ErrBadFormat)
	}

	if !p.atEOS() && p.peek() == '.' {
		p.tokens[idx].setType(Number)
		p.get()
		hasFraction := false
		for !p.atEOS() && isDigit(p.peek()) {
			hasFraction = true
			p.get()
		}
		if !hasFraction {
			return parseErr(p.pos, ErrBadFormat)
		}
	}

	if !p.atEOS() && (p.peek() == 'e' || p.peek() == 'E') {
		p.tokens[idx].setType(Number)
		p.get()
		if !p.atEOS() && (p.peek() == '+' || p.peek() == '-') {
			p.get()
		}
		hasExponentDigits := false
		for !p.atEOS() && isDigit(p.peek()) {
			hasExponentDigits = true
			p.get()
		}
		if !hasExponentDigits {
			if p.atEOS() {
				return parseErr(p.pos, ErrIncomplete)
			}
			return parseErr(p.pos, ErrBadFormat)
		}
	}

	p.finalizeToken(idx)
	return nil
}

func (p *parser) parseLiteral(literal string, typ Type) error {
	logTrace(p.logger(), "parseLiteral", "literal", literal, "pos", p.pos)

	idx := p.allocToken(typ)
	if idx < 0 {
		return parseErr(p.pos, ErrNotEnoughTokens)
	}

	for i := 0; i < len(literal); i++ {
		if p.atEOS() {
			return parseErr(p.pos, ErrIncomplete)
		}
		if p.get() != literal[i] {
			return parseErr(p.pos, ErrBadFormat)
		}
	}

	p.finalizeToken(idx)
	return nil
}

// findAndSkip requires the next non-whitespace byte to be delim, consumes
// it, and skips trailing whitespace.
func (p *parser) findAndSkip(delim byte) error {
	p.skipWhitespace()
	if p.atEOS() || p.peek() != delim {
		return parseErr(p.pos, ErrBadFormat)
	}
	p.get()
	p.skipWhitespace()
	return nil
}

func (p *parser) enterContainer() error {
	if p.level >= levelMax {
		return parseErr(p.pos, ErrTooDeep)
	}
	p.level++
	return nil
}

func (p *parser) parseObject() error {
	logTrace(p.logger(), "parseObject", "pos", p.pos)

	idx := p.allocToken(Object)
	if idx < 0 {
		return parseErr(p.pos, ErrNotEnoughTokens)
	}
	if err := p.enterContainer(); err != nil {
		return err
	}
	p.get() // '{'

	first := true
	for {
		p.skipWhitespace()
		if p.atEOS() {
			break
		}
		if p.peek() == '}' {
			break
		}
		if !first {
			if err := p.findAndSkip(','); err != nil {
				return err
			}
		}
		first = false

		if p.atEOS() || p.peek() != '"' {
			return parseErr(p.pos, ErrBadFormat)
		}
		if err := p.parseString(); err != nil {
			return err
		}
		if err := p.findAndSkip(':'); err != nil {
			return err
		}
		if err := p.parseElement(); err != nil {
			return err
		}
	}

	if p.atEOS() {
		return parseErr(p.pos, ErrIncomplete)
	}
	p.get() // '}'
	p.level--
	p.finalizeToken(idx)
	return nil
}

func (p *parser) parseArray() error {
	logTrace(p.logger(), "parseArray", "pos", p.pos)

	idx := p.allocToken(Array)
	if idx < 0 {
		return parseErr(p.pos, ErrNotEnoughTokens)
	}
	if err := p.enterContainer(); err != nil {
		return err
	}
	p.get() // '['

	first := true
	for {
		p.skipWhitespace()
		if p.atEOS() {
			break
		}
		if p.peek() == ']' {
			break
		}
		if !first {
			if err := p.findAndSkip(','); err != nil {
				return err
			}
		}
		first = false

		if err := p.parseElement(); err != nil {
			return err
		}
	}

	if p.atEOS() {
		return parseErr(p.pos, ErrIncomplete)
	}
	p.get() // ']'
	p.level--
	p.finalizeToken(idx)
	return nil
}
