package mjson

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// tokenShape is the part of a Token worth comparing in a fixture: its type,
// level, and the literal text of its extent. Comparing this instead of the
// raw packed word keeps fixtures readable and keeps the diff in a failing
// test centered on what actually matters.
type tokenShape struct {
	Type  string
	Level int
	Text  string
}

func shapesOf(t *testing.T, input []byte, tokens []Token, n int) []tokenShape {
	t.Helper()
	out := make([]tokenShape, n)
	for i := 0; i < n; i++ {
		out[i] = tokenShape{
			Type:  tokens[i].TypeOf().String(),
			Level: tokens[i].Level(),
			Text:  tokens[i].String(input),
		}
	}
	return out
}

func TestParseScenarioOne(t *testing.T) {
	input := []byte(`{ "a" : 10 , "b" : 11 , "c" : [ 3, 4.5 ], "d" : [ ] } `)
	tokens := make([]Token, 200)

	n, err := Parse(input, tokens)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if n != 11 {
		t.Fatalf("Parse() = %d tokens, want 11", n)
	}

	want := []tokenShape{
		{"<object>", 0, `{ "a" : 10 , "b" : 11 , "c" : [ 3, 4.5 ], "d" : [ ] }`},
		{"<string>", 1, `"a"`},
		{"<integer>", 1, `10`},
		{"<string>", 1, `"b"`},
		{"<integer>", 1, `11`},
		{"<string>", 1, `"c"`},
		{"<array>", 1, `[ 3, 4.5 ]`},
		{"<integer>", 2, `3`},
		{"<number>", 2, `4.5`},
		{"<string>", 1, `"d"`},
		{"<array>", 1, `[ ]`},
	}
	got := shapesOf(t, input, tokens, n)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token shapes mismatch (-want +got):\n%s", diff)
	}

	if !tokens[n-1].IsLast() {
		t.Errorf("final token not marked IsLast")
	}
	for i := 0; i < n-1; i++ {
		if tokens[i].IsLast() {
			t.Errorf("token %d unexpectedly marked IsLast", i)
		}
	}
}

func TestParseScenarioTwo(t *testing.T) {
	input := []byte(` {"a":111, "b":[22.2, 0, 3e0], "c":{}}  `)
	tokens := make([]Token, 10)

	n, err := Parse(input, tokens)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if n != 10 {
		t.Fatalf("Parse() = %d tokens, want 10", n)
	}
	if got := tokens[4].String(input); got != "[22.2, 0, 3e0]" {
		t.Errorf("token[4] = %q, want %q", got, "[22.2, 0, 3e0]")
	}
	if got := tokens[9].String(input); got != "{}" {
		t.Errorf("token[9] = %q, want %q", got, "{}")
	}
}

func TestParseRejectsLeadingComma(t *testing.T) {
	_, err := Parse([]byte("[,1]"), make([]Token, 5))
	if !errors.Is(err, ErrBadFormat) {
		t.Fatalf("Parse([,1]) error = %v, want ErrBadFormat", err)
	}
}

func TestParseTrueScalar(t *testing.T) {
	tokens := make([]Token, 5)
	n, err := Parse([]byte("true"), tokens)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Parse() = %d tokens, want 1", n)
	}
	if tokens[0].TypeOf() != True {
		t.Errorf("TypeOf() = %v, want True", tokens[0].TypeOf())
	}
	if got := tokens[0].String([]byte("true")); got != "true" {
		t.Errorf("extent = %q, want %q", got, "true")
	}
}

func TestParseNumberClassification(t *testing.T) {
	for _, test := range []struct {
		input   string
		wantOK  bool
		wantTyp Type
	}{
		{"0", true, Integer},
		{"0.0", true, Number},
		{"0e0", true, Number},
		{"01", false, Unknown},
		{"-0", true, Integer},
		{"-0.0", true, Number},
		{"123", true, Integer},
		{"-123", true, Integer},
		{"1.5e10", true, Number},
		{"1.5E-10", true, Number},
		{"1.", false, Unknown},
		{".5", false, Unknown},
		{"1e", false, Unknown},
	} {
		t.Run(test.input, func(t *testing.T) {
			tokens := make([]Token, 5)
			n, err := ParseString(test.input, tokens)
			if test.wantOK {
				if err != nil {
					t.Fatalf("ParseString(%q) error = %v", test.input, err)
				}
				if n != 1 {
					t.Fatalf("ParseString(%q) = %d tokens, want 1", test.input, n)
				}
				if got := tokens[0].TypeOf(); got != test.wantTyp {
					t.Errorf("TypeOf() = %v, want %v", got, test.wantTyp)
				}
			} else if err == nil {
				t.Fatalf("ParseString(%q) succeeded, want error", test.input)
			}
		})
	}
}

func TestParseStringEscapes(t *testing.T) {
	for _, test := range []struct {
		name   string
		input  string
		wantOK bool
	}{
		{"simple", `"hello"`, true},
		{"escaped quote", `"a\"b"`, true},
		{"escaped backslash", `"a\\b"`, true},
		{"all simple escapes", `"\"\\\/\b\f\n\r\t"`, true},
		{"valid unicode escape", "\"\\u0041\"", true},
		{"short unicode escape", `"\u04"`, false},
		{"non-hex unicode escape", `"\u004g"`, false},
		{"invalid escape", `"\q"`, false},
		{"unterminated", `"abc`, false},
		{"raw control byte", "\"a\tb\"", false},
		{"high bit byte", "\"a\x80b\"", false},
	} {
		t.Run(test.name, func(t *testing.T) {
			tokens := make([]Token, 5)
			_, err := ParseString(test.input, tokens)
			if test.wantOK && err != nil {
				t.Fatalf("ParseString(%q) error = %v, want nil", test.input, err)
			}
			if !test.wantOK && err == nil {
				t.Fatalf("ParseString(%q) succeeded, want error", test.input)
			}
		})
	}
}

func TestParseEmptyContainers(t *testing.T) {
	for _, test := range []struct {
		input string
		typ   Type
	}{
		{"{}", Object},
		{"[]", Array},
		{"{  }", Object},
		{"[   ]", Array},
	} {
		t.Run(test.input, func(t *testing.T) {
			tokens := make([]Token, 5)
			n, err := ParseString(test.input, tokens)
			if err != nil {
				t.Fatalf("ParseString(%q) error = %v", test.input, err)
			}
			if n != 1 {
				t.Fatalf("ParseString(%q) = %d tokens, want 1", test.input, n)
			}
			if tokens[0].TypeOf() != test.typ {
				t.Errorf("TypeOf() = %v, want %v", tokens[0].TypeOf(), test.typ)
			}
		})
	}
}

func TestParseScalarsAtTopLevel(t *testing.T) {
	for _, test := range []struct {
		input string
		typ   Type
	}{
		{"42", Integer},
		{`"x"`, String},
		{"true", True},
		{"false", False},
		{"null", Null},
	} {
		t.Run(test.input, func(t *testing.T) {
			tokens := make([]Token, 5)
			n, err := ParseString(test.input, tokens)
			if err != nil {
				t.Fatalf("ParseString(%q) error = %v", test.input, err)
			}
			if n != 1 || tokens[0].Level() != 0 {
				t.Fatalf("ParseString(%q) = %d tokens at level %d, want 1 token at level 0", test.input, n, tokens[0].Level())
			}
			if tokens[0].TypeOf() != test.typ {
				t.Errorf("TypeOf() = %v, want %v", tokens[0].TypeOf(), test.typ)
			}
		})
	}
}

func TestParseErrorKinds(t *testing.T) {
	for _, test := range []struct {
		name  string
		input string
		want  error
	}{
		{"unterminated string", `"abc`, ErrIncomplete},
		{"unterminated object", `{"a":1`, ErrIncomplete},
		{"unterminated array", `[1,2`, ErrIncomplete},
		{"trailing garbage", `1 2`, ErrStrayInput},
		{"garbage token", `@`, ErrBadFormat},
		{"multibyte top level", "\x80", ErrNoMultibyte},
		{"bad literal", "nul", ErrIncomplete},
		{"bad literal mismatch", "nope", ErrBadFormat},
		{"object missing colon", `{"a" 1}`, ErrBadFormat},
		{"object non-string key", `{1:2}`, ErrBadFormat},
		{"trailing comma object", `{"a":1,}`, ErrBadFormat},
		{"trailing comma array", `[1,]`, ErrBadFormat},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseString(test.input, make([]Token, 20))
			if !errors.Is(err, test.want) {
				t.Fatalf("ParseString(%q) error = %v, want wrapping %v", test.input, err, test.want)
			}
		})
	}
}

func TestParseBadArguments(t *testing.T) {
	if _, err := Parse(nil, make([]Token, 5)); !errors.Is(err, ErrBadArgument) {
		t.Errorf("Parse(nil, ...) error = %v, want ErrBadArgument", err)
	}
	if _, err := Parse([]byte("1"), nil); !errors.Is(err, ErrBadArgument) {
		t.Errorf("Parse(..., nil) error = %v, want ErrBadArgument", err)
	}
}

func TestParseNotEnoughTokens(t *testing.T) {
	_, err := ParseString(`{"a":1,"b":2}`, make([]Token, 2))
	if !errors.Is(err, ErrNotEnoughTokens) {
		t.Fatalf("error = %v, want ErrNotEnoughTokens", err)
	}
}

func TestParseZeroesStaleTokens(t *testing.T) {
	tokens := make([]Token, 5)
	tokens[3].setLength(99)
	tokens[3].setType(String)

	n, err := ParseString("1", tokens)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Parse() = %d, want 1", n)
	}
	if tokens[3].Length() != 0 || tokens[3].TypeOf() != Unknown {
		t.Errorf("stale token storage was not zeroed: %#v", tokens[3])
	}
}

func TestParseLogsTrace(t *testing.T) {
	h := newRecordHandler(slog.LevelDebug)
	logger := slog.New(h)

	_, err := ParseString(`{"a":1}`, make([]Token, 10), WithLogger(logger))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(h.Records()) == 0 {
		t.Fatalf("expected at least one log record, got none")
	}
}

func TestParseLogsRejectionAtWarn(t *testing.T) {
	h := newRecordHandler(slog.LevelWarn)
	logger := slog.New(h)

	_, err := ParseString(`[,1]`, make([]Token, 5), WithLogger(logger))
	if !errors.Is(err, ErrBadFormat) {
		t.Fatalf("ParseString error = %v, want ErrBadFormat", err)
	}
	if len(h.Records()) == 0 {
		t.Fatalf("expected a warn-level record for the rejected parse, got none")
	}
}

// recordHandler is a minimal slog.Handler that records every log record it
// receives, for inspection in tests — the same technique this dependency
// family uses in its own logging tests (see simon-lentz-yammm's
// graph_logging_test.go) rather than parsing log output as text.
type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
	level   slog.Level
}

func newRecordHandler(level slog.Level) *recordHandler {
	return &recordHandler{level: level}
}

func (h *recordHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

func (h *recordHandler) WithGroup(_ string) slog.Handler { return h }

func (h *recordHandler) Records() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]slog.Record, len(h.records))
	copy(out, h.records)
	return out
}
