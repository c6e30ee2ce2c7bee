// Package mjson is an in-place, allocation-free JSON tokenizer and a
// stack-only JSON emitter, sized for embedded and other allocation-averse
// targets.
//
// Parse and ParseString scan a byte sequence into a flat, preorder-ordered
// []Token that the caller supplies storage for: no token conversion and no
// copying of the input. The tokenizer's diagnostic-logging calls build their
// arguments at each call site, so a parse can make small heap allocations
// (boxing byte offsets of 256 or more) even when no logger is configured. The Nav-family functions (Root, Parent, Child,
// NextSibling, PrevSibling, Next, Prev) then support tree-style traversal of
// that flat array using nothing but index arithmetic and depth comparisons
// — there are no parent/child pointers to follow.
//
// Emitter is the dual: given a caller-supplied byte writer and a
// caller-supplied stack of nesting Frames, it produces a syntactically
// valid JSON byte stream one procedural call at a time (ObjectOpen, Integer,
// KeyString, ...), emitting exactly the right ',' or ':' at each depth
// without ever buffering the document it is producing.
package mjson
