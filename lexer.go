package nyx

import (
	"fmt"
	"strings"
)

// Lexer tokenizes a borrowed byte slice into a stream of Tokens. It
// keeps a cursor, a 1-based line and column, and a sticky error
// message: once an ERROR token has been produced, every subsequent
// call to Next returns ERROR again (§4.2, §7 "the lexer's error is
// sticky").
type Lexer struct {
	src    []byte
	cursor int
	line   int
	column int

	errored bool
	errMsg  string
}

// NewLexer returns a Lexer over src, positioned at line 1, column 1.
func NewLexer(src []byte) *Lexer {
	return &Lexer{src: src, line: 1, column: 1}
}

// HasError reports whether the lexer has produced an ERROR token.
func (l *Lexer) HasError() bool { return l.errored }

// ErrorMessage returns the message of the first ERROR token produced,
// or "" if none has been produced yet.
func (l *Lexer) ErrorMessage() string { return l.errMsg }

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() Token {
	saved := *l
	tok := l.Next()
	*l = saved
	return tok
}

func (l *Lexer) atEOF() bool { return l.cursor >= len(l.src) }

func (l *Lexer) current() byte { return l.src[l.cursor] }

func (l *Lexer) advance() byte {
	c := l.src[l.cursor]
	l.cursor++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) makeToken(kind TokenKind, start int, line, col int) Token {
	return Token{
		Kind:   kind,
		Lexeme: string(l.src[start:l.cursor]),
		Span:   NewSpan(start, l.cursor),
		Line:   line,
		Column: col,
	}
}

func (l *Lexer) errorToken(start int, line, col int, format string, args ...any) Token {
	msg := fmt.Sprintf(format, args...)
	if !l.errored {
		l.errored = true
		l.errMsg = msg
	}
	return Token{
		Kind:    TokError,
		Lexeme:  string(l.src[start:l.cursor]),
		Span:    NewSpan(start, l.cursor),
		Line:    line,
		Column:  col,
		Message: msg,
	}
}

// Next advances the lexer and returns the next token. Next is total:
// for every input it eventually returns EOF, possibly after one or
// more ERROR tokens (§8 "lexer totality").
func (l *Lexer) Next() Token {
	if l.errored {
		return Token{Kind: TokError, Message: l.errMsg, Line: l.line, Column: l.column}
	}

	if tok := l.skipWhitespaceAndComments(); tok != nil {
		return *tok
	}

	startLine, startCol := l.line, l.column
	start := l.cursor

	if l.atEOF() {
		return Token{Kind: TokEOF, Span: NewSpan(start, start), Line: startLine, Column: startCol}
	}

	c := l.current()

	switch {
	case c == '\n':
		l.advance()
		return l.makeToken(TokNewline, start, startLine, startCol)
	case isDigit(c) || (c == '.' && l.cursor+1 < len(l.src) && isDigit(l.src[l.cursor+1])):
		return l.scanNumber(start, startLine, startCol)
	case c == '"' || c == '\'':
		return l.scanString(c, start, startLine, startCol)
	case isIdentStart(c):
		return l.scanIdentifier(start, startLine, startCol)
	default:
		return l.scanOperator(start, startLine, startCol)
	}
}

// skipWhitespaceAndComments advances past whitespace, line comments,
// and block comments. It returns a non-nil ERROR token if a block
// comment runs off the end of input unterminated (§8 "`/* ...` at EOF
// is an error", mirroring scanString's unterminated-literal handling);
// nil otherwise.
func (l *Lexer) skipWhitespaceAndComments() *Token {
	for !l.atEOF() {
		c := l.current()
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			l.advance()
		case c == '/' && l.cursor+1 < len(l.src) && l.src[l.cursor+1] == '/':
			for !l.atEOF() && l.current() != '\n' {
				l.advance()
			}
		case c == '/' && l.cursor+1 < len(l.src) && l.src[l.cursor+1] == '*':
			start, startLine, startCol := l.cursor, l.line, l.column
			l.advance()
			l.advance()
			for {
				if l.atEOF() {
					tok := l.errorToken(start, startLine, startCol, "unterminated block comment")
					return &tok
				}
				if l.current() == '*' && l.cursor+1 < len(l.src) && l.src[l.cursor+1] == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentCont(c byte) bool { return isIdentStart(c) || isDigit(c) }

func (l *Lexer) scanNumber(start, line, col int) Token {
	if l.current() == '0' && l.cursor+1 < len(l.src) {
		switch l.src[l.cursor+1] {
		case 'x', 'X':
			l.advance()
			l.advance()
			n := 0
			for !l.atEOF() && isHexDigit(l.current()) {
				l.advance()
				n++
			}
			if n == 0 {
				return l.errorToken(start, line, col, "invalid hex literal")
			}
			return l.finishNumber(start, line, col)
		case 'b', 'B':
			l.advance()
			l.advance()
			n := 0
			for !l.atEOF() && (l.current() == '0' || l.current() == '1') {
				l.advance()
				n++
			}
			if n == 0 {
				return l.errorToken(start, line, col, "invalid binary literal")
			}
			return l.finishNumber(start, line, col)
		case 'o', 'O':
			l.advance()
			l.advance()
			n := 0
			for !l.atEOF() && l.current() >= '0' && l.current() <= '7' {
				l.advance()
				n++
			}
			if n == 0 {
				return l.errorToken(start, line, col, "invalid octal literal")
			}
			return l.finishNumber(start, line, col)
		}
	}

	for !l.atEOF() && isDigit(l.current()) {
		l.advance()
	}
	if !l.atEOF() && l.current() == '.' && l.cursor+1 < len(l.src) && isDigit(l.src[l.cursor+1]) {
		l.advance()
		for !l.atEOF() && isDigit(l.current()) {
			l.advance()
		}
	} else if !l.atEOF() && l.current() == '.' && (l.cursor+1 >= len(l.src) || !isIdentStart(l.src[l.cursor+1])) {
		l.advance()
	}
	if !l.atEOF() && (l.current() == 'e' || l.current() == 'E') {
		save := l.cursor
		l.advance()
		if !l.atEOF() && (l.current() == '+' || l.current() == '-') {
			l.advance()
		}
		n := 0
		for !l.atEOF() && isDigit(l.current()) {
			l.advance()
			n++
		}
		if n == 0 {
			l.cursor = save
			return l.errorToken(start, line, col, "malformed exponent in number literal")
		}
	}
	return l.finishNumber(start, line, col)
}

func (l *Lexer) finishNumber(start, line, col int) Token {
	if !l.atEOF() && l.current() == 'n' {
		l.advance()
		return l.makeToken(TokBigInt, start, line, col)
	}
	return l.makeToken(TokNumber, start, line, col)
}

func (l *Lexer) scanString(quote byte, start, line, col int) Token {
	l.advance() // opening quote
	for {
		if l.atEOF() {
			return l.errorToken(start, line, col, "unterminated string literal")
		}
		c := l.current()
		if c == '\n' {
			return l.errorToken(start, line, col, "unterminated string literal: raw newline before closing quote")
		}
		if c == '\\' {
			l.advance()
			if l.atEOF() {
				return l.errorToken(start, line, col, "unterminated string literal")
			}
			l.advance() // escaped char, single-char escape only
			continue
		}
		if c == quote {
			l.advance()
			return l.makeToken(TokString, start, line, col)
		}
		l.advance()
	}
}

func (l *Lexer) scanIdentifier(start, line, col int) Token {
	for !l.atEOF() && isIdentCont(l.current()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.cursor])
	if kind, ok := keywords[lexeme]; ok {
		return l.makeToken(kind, start, line, col)
	}
	return l.makeToken(TokIdentifier, start, line, col)
}

// two- to four-byte operator table, longest match first.
var multiByteOps = []struct {
	lexeme string
	kind   TokenKind
}{
	{">>>=", TokUShrAssign},
	{"===", TokStrictEq}, {"!==", TokStrictNeq}, {">>>", TokUShr},
	{"**=", TokStarAssign}, {"??=", TokQuestionQuestionAssign},
	{"<<=", TokShlAssign}, {">>=", TokShrAssign},
	{"==", TokEq}, {"!=", TokNeq}, {"<=", TokLe}, {">=", TokGe},
	{"&&", TokAndAnd}, {"||", TokOrOr}, {"??", TokQuestionQuestion},
	{"?.", TokQuestionDot}, {"=>", TokArrow},
	{"++", TokPlusPlus}, {"--", TokMinusMinus},
	{"+=", TokPlusAssign}, {"-=", TokMinusAssign}, {"*=", TokStarAssign},
	{"/=", TokSlashAssign}, {"%=", TokPercentAssign}, {"&=", TokAmpAssign},
	{"|=", TokPipeAssign}, {"^=", TokCaretAssign},
	{"<<", TokShl}, {">>", TokShr},
}

var singleByteOps = map[byte]TokenKind{
	'(': TokLParen, ')': TokRParen, '[': TokLBracket, ']': TokRBracket,
	'{': TokLBrace, '}': TokRBrace, ';': TokSemicolon, ',': TokComma,
	'.': TokDot, ':': TokColon, '?': TokQuestion,
	'+': TokPlus, '-': TokMinus, '*': TokStar, '/': TokSlash, '%': TokPercent,
	'=': TokAssign, '<': TokLt, '>': TokGt, '!': TokBang,
	'&': TokAmp, '|': TokPipe, '^': TokCaret, '~': TokTilde,
}

func (l *Lexer) scanOperator(start, line, col int) Token {
	rest := l.src[l.cursor:]
	for _, op := range multiByteOps {
		if strings.HasPrefix(string(rest), op.lexeme) {
			for range op.lexeme {
				l.advance()
			}
			return l.makeToken(op.kind, start, line, col)
		}
	}
	c := l.current()
	if kind, ok := singleByteOps[c]; ok {
		l.advance()
		return l.makeToken(kind, start, line, col)
	}
	l.advance()
	return l.errorToken(start, line, col, "unexpected byte %q", c)
}
