package criteria

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	identifierCode
	assignCode
	valueCode
	pipeCode
	separatorCode
)

// Token definitions
var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	identifierToken = parsly.NewToken(identifierCode, "Identifier", &identifierMatcher{})
	assignToken     = parsly.NewToken(assignCode, "=", matcher.NewByte('='))
	valueToken      = parsly.NewToken(valueCode, "Value", &valueMatcher{})
	pipeToken       = parsly.NewToken(pipeCode, "|", matcher.NewByte('|'))
	separatorToken  = parsly.NewToken(separatorCode, ";", matcher.NewByte(';'))
)

// identifierMatcher matches parameter names
type identifierMatcher struct{}

func (m *identifierMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos >= cursor.InputSize || !isLetter(input[pos]) {
		return 0
	}
	matched := 1
	for i := pos + 1; i < cursor.InputSize; i++ {
		if isLetter(input[i]) || isDigit(input[i]) || input[i] == '_' {
			matched++
			continue
		}
		break
	}
	return matched
}

// valueMatcher matches a value up to a separator, pipe or whitespace
type valueMatcher struct{}

func (m *valueMatcher) Match(cursor *parsly.Cursor) int {
	matched := 0
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		switch cursor.Input[i] {
		case ';', '|', ' ', '\t', '\n', '\r':
			return matched
		}
		matched++
	}
	return matched
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
