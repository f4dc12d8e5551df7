package nyx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(src string) []Token {
	lex := NewLexer([]byte(src))
	var toks []Token
	for {
		tok := lex.Next()
		toks = append(toks, tok)
		if tok.Kind == TokEOF || tok.Kind == TokError {
			break
		}
	}
	return toks
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		src  string
		kind TokenKind
	}{
		{"42", TokNumber},
		{"3.14", TokNumber},
		{".5", TokNumber},
		{"0x1F", TokNumber},
		{"0b101", TokNumber},
		{"0o17", TokNumber},
		{"1e10", TokNumber},
		{"1e-10", TokNumber},
		{"123n", TokBigInt},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks := lexAll(tt.src)
			require.Len(t, toks, 2) // literal + EOF
			assert.Equal(t, tt.kind, toks[0].Kind)
			assert.Equal(t, tt.src, toks[0].Lexeme)
		})
	}
}

func TestLexerMalformedExponentErrors(t *testing.T) {
	lex := NewLexer([]byte("1e"))
	tok := lex.Next()
	assert.Equal(t, TokError, tok.Kind)
	assert.True(t, lex.HasError())
}

func TestLexerStrings(t *testing.T) {
	toks := lexAll(`"hello"`)
	require.Len(t, toks, 2)
	assert.Equal(t, TokString, toks[0].Kind)

	toks = lexAll(`'single'`)
	assert.Equal(t, TokString, toks[0].Kind)
}

func TestLexerUnterminatedStringIsSticky(t *testing.T) {
	lex := NewLexer([]byte(`"no closing quote`))
	first := lex.Next()
	assert.Equal(t, TokError, first.Kind)
	assert.True(t, lex.HasError())

	second := lex.Next()
	assert.Equal(t, TokError, second.Kind)
	assert.Equal(t, lex.ErrorMessage(), second.Message, "once errored, Next keeps returning the same sticky message")
}

func TestLexerRawNewlineInStringErrors(t *testing.T) {
	lex := NewLexer([]byte("\"line1\nline2\""))
	tok := lex.Next()
	assert.Equal(t, TokError, tok.Kind)
}

func TestLexerKeywordsVsIdentifiers(t *testing.T) {
	toks := lexAll("let x = foo")
	require.Len(t, toks, 5)
	assert.Equal(t, TokLet, toks[0].Kind)
	assert.Equal(t, TokIdentifier, toks[1].Kind)
	assert.Equal(t, TokAssign, toks[2].Kind)
	assert.Equal(t, TokIdentifier, toks[3].Kind)
}

func TestLexerMultiByteOperatorsPreferLongestMatch(t *testing.T) {
	tests := []struct {
		src  string
		kind TokenKind
	}{
		{"===", TokStrictEq},
		{"==", TokEq},
		{"=", TokAssign},
		{">>>=", TokUShrAssign},
		{">>>", TokUShr},
		{">>", TokShr},
		{">", TokGt},
		{"??=", TokQuestionQuestionAssign},
		{"??", TokQuestionQuestion},
		{"?.", TokQuestionDot},
		{"=>", TokArrow},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks := lexAll(tt.src)
			require.GreaterOrEqual(t, len(toks), 1)
			assert.Equal(t, tt.kind, toks[0].Kind)
		})
	}
}

func TestLexerCommentsAreSkipped(t *testing.T) {
	toks := lexAll("1 // a comment\n+ /* block */ 2")
	var kinds []TokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []TokenKind{TokNumber, TokNewline, TokPlus, TokNumber, TokEOF}, kinds)
}

func TestLexerUnterminatedBlockCommentErrors(t *testing.T) {
	lex := NewLexer([]byte("1 /* never closed"))
	first := lex.Next()
	assert.Equal(t, TokNumber, first.Kind)

	second := lex.Next()
	assert.Equal(t, TokError, second.Kind, "a block comment that runs off the end of input is a lex error, not EOF")
	assert.True(t, lex.HasError())

	third := lex.Next()
	assert.Equal(t, TokError, third.Kind)
	assert.Equal(t, lex.ErrorMessage(), third.Message, "sticky once errored")
}

func TestLexerUnexpectedByteErrors(t *testing.T) {
	lex := NewLexer([]byte("@"))
	tok := lex.Next()
	assert.Equal(t, TokError, tok.Kind)
}

func TestLexerPeekDoesNotConsume(t *testing.T) {
	lex := NewLexer([]byte("1 2"))
	peeked := lex.Peek()
	assert.Equal(t, TokNumber, peeked.Kind)

	next := lex.Next()
	assert.Equal(t, peeked.Lexeme, next.Lexeme, "Peek must not advance the cursor")
}

func TestLexerIsTotalAndEventuallyReachesEOF(t *testing.T) {
	lex := NewLexer([]byte(""))
	tok := lex.Next()
	assert.Equal(t, TokEOF, tok.Kind)
}
