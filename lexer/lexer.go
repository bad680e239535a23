package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type TokenType int

// The list of token types
const (
	EOF TokenType = iota
	ERROR

	// Keywords
	VOID
	INT
	DOUBLE
	BOOL
	STRING
	CLASS
	INTERFACE
	NULL
	THIS
	EXTENDS
	IMPLEMENTS
	FOR
	WHILE
	IF
	ELSE
	RETURN
	BREAK
	NEW
	NEWARRAY
	PRINT
	READINTEGER
	READLINE

	// Constants
	INT_CONST
	DOUBLE_CONST
	BOOL_CONST
	STR_CONST

	// Identifiers
	IDENT

	// Operators
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	PERCENT  // %
	LT       // <
	LE       // <=
	GT       // >
	GE       // >=
	EQ       // ==
	NE       // !=
	AND      // &&
	OR       // ||
	NOT      // !
	ASSIGN   // =
	INC      // ++
	DEC      // --
	DOT      // .
	LBRACKET // [
	RBRACKET // ]
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	SEMI     // ;
	COMMA    // ,
)

func (tt TokenType) String() string {
	return [...]string{
		"EOF", "ERROR",
		// Keywords
		"VOID", "INT", "DOUBLE", "BOOL", "STRING", "CLASS", "INTERFACE",
		"NULL", "THIS", "EXTENDS", "IMPLEMENTS", "FOR", "WHILE", "IF",
		"ELSE", "RETURN", "BREAK", "NEW", "NEWARRAY", "PRINT",
		"READINTEGER", "READLINE",
		// Constants
		"INT_CONST", "DOUBLE_CONST", "BOOL_CONST", "STR_CONST",
		// Identifiers
		"IDENT",
		// Operators and Punctuation
		"PLUS", "MINUS", "STAR", "SLASH", "PERCENT", "LT", "LE", "GT",
		"GE", "EQ", "NE", "AND", "OR", "NOT", "ASSIGN", "INC", "DEC",
		"DOT", "LBRACKET", "RBRACKET", "LPAREN", "RPAREN", "LBRACE",
		"RBRACE", "SEMI", "COMMA",
	}[tt]
}

var keywords = map[string]TokenType{
	"void":        VOID,
	"int":         INT,
	"double":      DOUBLE,
	"bool":        BOOL,
	"string":      STRING,
	"class":       CLASS,
	"interface":   INTERFACE,
	"null":        NULL,
	"this":        THIS,
	"extends":     EXTENDS,
	"implements":  IMPLEMENTS,
	"for":         FOR,
	"while":       WHILE,
	"if":          IF,
	"else":        ELSE,
	"return":      RETURN,
	"break":       BREAK,
	"New":         NEW,
	"NewArray":    NEWARRAY,
	"Print":       PRINT,
	"ReadInteger": READINTEGER,
	"ReadLine":    READLINE,
	"true":        BOOL_CONST,
	"false":       BOOL_CONST,
}

// MaxIdentLen is the longest identifier Decaf accepts.
const MaxIdentLen = 31

// Token represents a lexical token with its type, value, and position.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// Lexer is the lexical analyzer.
type Lexer struct {
	reader *bufio.Reader
	line   int
	column int
	char   rune
}

// NewLexer creates a new lexer from an io.Reader
func NewLexer(reader io.Reader) *Lexer {
	l := &Lexer{
		reader: bufio.NewReader(reader),
		line:   1,
		column: 0,
		char:   ' ',
	}
	return l
}

// readChar reads the next character from the input.
func (l *Lexer) readChar() {
	var err error
	l.char, _, err = l.reader.ReadRune()
	if err != nil {
		l.char = 0 // EOF
	}

	l.column++
	if l.char == '\n' {
		l.line++
		l.column = 0
	}
}

// peekChar returns the next character without advancing the stream.
func (l *Lexer) peekChar() rune {
	char, _, err := l.reader.ReadRune()
	if err != nil {
		return 0
	}
	l.reader.UnreadRune()
	return char
}

func (l *Lexer) skipWhiteSpace() {
	for unicode.IsSpace(l.char) {
		l.readChar()
	}
}

func isDigit(char rune) bool {
	return char >= '0' && char <= '9'
}

func isHexDigit(char rune) bool {
	return isDigit(char) || (char >= 'a' && char <= 'f') || (char >= 'A' && char <= 'F')
}

func isIdentifierStart(char rune) bool {
	return (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z')
}

func isIdentifierPart(char rune) bool {
	return isIdentifierStart(char) || isDigit(char) || char == '_'
}

func (l *Lexer) readIdentifier() string {
	var sb strings.Builder
	for isIdentifierPart(l.char) {
		sb.WriteRune(l.char)
		l.readChar()
	}
	return sb.String()
}

// readNumber reads a decimal or hex integer, or a double such as 1.5E+3.
func (l *Lexer) readNumber() (string, TokenType) {
	var sb strings.Builder
	if l.char == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		sb.WriteRune(l.char)
		l.readChar()
		sb.WriteRune(l.char)
		l.readChar()
		for isHexDigit(l.char) {
			sb.WriteRune(l.char)
			l.readChar()
		}
		return sb.String(), INT_CONST
	}

	for isDigit(l.char) {
		sb.WriteRune(l.char)
		l.readChar()
	}
	if l.char != '.' {
		return sb.String(), INT_CONST
	}

	sb.WriteRune(l.char)
	l.readChar()
	for isDigit(l.char) {
		sb.WriteRune(l.char)
		l.readChar()
	}
	if l.char == 'e' || l.char == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			sb.WriteRune(l.char)
			l.readChar()
			sb.WriteRune(l.char)
			l.readChar()
			for isDigit(l.char) {
				sb.WriteRune(l.char)
				l.readChar()
			}
		}
	}
	return sb.String(), DOUBLE_CONST
}

func (l *Lexer) readString() (string, error) {
	var sb strings.Builder
	startLine := l.line
	startCol := l.column

	l.readChar() // consume opening quote
	for l.char != '"' {
		if l.char == 0 || l.char == '\n' {
			return "", fmt.Errorf("unterminated string constant at line %d, column %d", startLine, startCol)
		}
		sb.WriteRune(l.char)
		l.readChar()
	}

	l.readChar() // consume closing quote
	return sb.String(), nil
}

// skipComment skips a // or /* */ comment. Block comments do not nest.
func (l *Lexer) skipComment() {
	if l.peekChar() == '/' {
		for l.char != '\n' && l.char != 0 {
			l.readChar()
		}
		return
	}

	l.readChar() // consume /
	l.readChar() // consume *
	for l.char != 0 {
		if l.char == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return
		}
		l.readChar()
	}
}

// twoChar emits either the two-character token when the next character is
// second, or the single-character fallback.
func (l *Lexer) twoChar(tok *Token, second rune, long TokenType, short TokenType) {
	first := l.char
	if l.peekChar() == second {
		l.readChar()
		l.readChar()
		tok.Type = long
		tok.Literal = string([]rune{first, second})
		return
	}
	l.readChar()
	tok.Type = short
	tok.Literal = string(first)
}

func (l *Lexer) NextToken() Token {
	l.skipWhiteSpace()

	tok := Token{
		Line:   l.line,
		Column: l.column,
	}

	switch {
	case l.char == 0:
		tok.Type = EOF
		tok.Literal = ""
	case l.char == '/':
		if next := l.peekChar(); next == '/' || next == '*' {
			l.skipComment()
			return l.NextToken()
		}
		tok.Type = SLASH
		tok.Literal = "/"
		l.readChar()
	case l.char == '+':
		l.twoChar(&tok, '+', INC, PLUS)
	case l.char == '-':
		l.twoChar(&tok, '-', DEC, MINUS)
	case l.char == '<':
		l.twoChar(&tok, '=', LE, LT)
	case l.char == '>':
		l.twoChar(&tok, '=', GE, GT)
	case l.char == '=':
		l.twoChar(&tok, '=', EQ, ASSIGN)
	case l.char == '!':
		l.twoChar(&tok, '=', NE, NOT)
	case l.char == '&':
		if l.peekChar() != '&' {
			tok.Type = ERROR
			tok.Literal = "Unexpected character: &"
			l.readChar()
			break
		}
		l.twoChar(&tok, '&', AND, ERROR)
	case l.char == '|':
		if l.peekChar() != '|' {
			tok.Type = ERROR
			tok.Literal = "Unexpected character: |"
			l.readChar()
			break
		}
		l.twoChar(&tok, '|', OR, ERROR)
	case strings.ContainsRune("*%.[](){};,", l.char):
		tok.Literal = string(l.char)
		tok.Type = punctuation[l.char]
		l.readChar()
	case l.char == '"':
		str, err := l.readString()
		if err != nil {
			tok.Type = ERROR
			tok.Literal = err.Error()
		} else {
			tok.Type = STR_CONST
			tok.Literal = str
		}
	case isDigit(l.char):
		num, typ := l.readNumber()
		tok.Type = typ
		tok.Literal = num
		if typ == INT_CONST {
			var err error
			if strings.HasPrefix(num, "0x") || strings.HasPrefix(num, "0X") {
				_, err = strconv.ParseInt(num[2:], 16, 32)
			} else {
				_, err = strconv.ParseInt(num, 10, 32)
			}
			if err != nil {
				tok.Type = ERROR
				tok.Literal = "Number out of range"
			}
		}
	case isIdentifierStart(l.char):
		identifier := l.readIdentifier()
		tok.Literal = identifier
		if kw, ok := keywords[identifier]; ok {
			tok.Type = kw
		} else if len(identifier) > MaxIdentLen {
			tok.Type = ERROR
			tok.Literal = fmt.Sprintf("Identifier too long: %s", identifier)
		} else {
			tok.Type = IDENT
		}
	default:
		tok.Type = ERROR
		tok.Literal = fmt.Sprintf("Unexpected character: %c", l.char)
		l.readChar()
	}

	return tok
}

var punctuation = map[rune]TokenType{
	'*': STAR,
	'%': PERCENT,
	'.': DOT,
	'[': LBRACKET,
	']': RBRACKET,
	'(': LPAREN,
	')': RPAREN,
	'{': LBRACE,
	'}': RBRACE,
	';': SEMI,
	',': COMMA,
}

// IsOperator reports whether the token type is an expression operator.
func (tt TokenType) IsOperator() bool {
	return tt >= PLUS && tt <= DEC
}
