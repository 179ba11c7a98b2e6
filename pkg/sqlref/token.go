package sqlref

import (
	"strings"
	"unicode"
)

// tokenType classifies a scanned token.
type tokenType int

const (
	tokenEOF tokenType = iota
	tokenIdent
	tokenString
	tokenNumber
	tokenDot
	tokenComma
	tokenLParen
	tokenRParen
	tokenOp
)

// token is one lexical unit of an expression fragment.
type token struct {
	Type    tokenType
	Literal string
	// Quoted is true for double-quoted identifiers, which never act as
	// keywords and keep their literal casing.
	Quoted bool
}

// isKeyword reports whether tok is the given unquoted keyword,
// compared case-insensitively.
func isKeyword(tok token, kw string) bool {
	return tok.Type == tokenIdent && !tok.Quoted && strings.EqualFold(tok.Literal, kw)
}

// lexer tokenizes a SQL expression fragment. It understands quoted
// identifiers, string and numeric literals, and comments; everything that
// is not an identifier chain is surfaced as an operator token so callers
// can reject fragments that are more than a reference.
type lexer struct {
	input   string
	pos     int
	readPos int
	ch      byte
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // NUL = end of input
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// next returns the next token.
func (l *lexer) next() token {
	l.skipWhitespaceAndComments()

	var tok token
	switch l.ch {
	case 0:
		tok.Type = tokenEOF
	case '.':
		tok = token{Type: tokenDot, Literal: "."}
	case ',':
		tok = token{Type: tokenComma, Literal: ","}
	case '(':
		tok = token{Type: tokenLParen, Literal: "("}
	case ')':
		tok = token{Type: tokenRParen, Literal: ")"}
	case '\'':
		return token{Type: tokenString, Literal: l.readString()}
	case '"':
		return token{Type: tokenIdent, Literal: l.readQuotedIdentifier(), Quoted: true}
	default:
		if isLetter(l.ch) || l.ch == '_' {
			return token{Type: tokenIdent, Literal: l.readIdentifier()}
		}
		if isDigit(l.ch) {
			return token{Type: tokenNumber, Literal: l.readNumber()}
		}
		tok = token{Type: tokenOp, Literal: string(l.ch)}
	}

	l.readChar()
	return tok
}

// skipWhitespaceAndComments skips whitespace, line comments, and block
// comments.
func (l *lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}

		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			for {
				if l.ch == 0 {
					return // unterminated block comment
				}
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					break
				}
				l.readChar()
			}
			continue
		}

		break
	}
}

// readString reads a single-quoted string literal.
// Doubled single quotes escape: 'it''s' -> it's
func (l *lexer) readString() string {
	l.readChar() // skip opening quote

	var result strings.Builder
	for {
		if l.ch == 0 {
			// Unterminated string
			break
		}
		if l.ch == '\'' {
			if l.peekChar() == '\'' {
				result.WriteByte('\'')
				l.readChar()
				l.readChar()
			} else {
				l.readChar() // skip closing quote
				break
			}
		} else {
			result.WriteByte(l.ch)
			l.readChar()
		}
	}
	return result.String()
}

// readQuotedIdentifier reads a double-quoted identifier.
// Doubled double quotes escape: "col""name" -> col"name
func (l *lexer) readQuotedIdentifier() string {
	l.readChar() // skip opening quote

	var result strings.Builder
	for {
		if l.ch == 0 {
			// Unterminated identifier
			break
		}
		if l.ch == '"' {
			if l.peekChar() == '"' {
				result.WriteByte('"')
				l.readChar()
				l.readChar()
			} else {
				l.readChar() // skip closing quote
				break
			}
		} else {
			result.WriteByte(l.ch)
			l.readChar()
		}
	}
	return result.String()
}

func (l *lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.pos]
}

func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch))
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// scan returns all tokens in the input, excluding the trailing EOF.
func scan(input string) []token {
	l := newLexer(input)
	var tokens []token
	for {
		tok := l.next()
		if tok.Type == tokenEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}
