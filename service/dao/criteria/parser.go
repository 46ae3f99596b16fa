package criteria

import (
	"strings"

	"github.com/viant/parsly"
	"github.com/viant/procsched/service/dao"
)

// Parse parses a filter expression in the format:
// Name=value[|value...][;Name=value...], for example "State=ready|running".
// Unknown names or values are rejected with ErrInvalidParameter.
func Parse(input []byte) ([]*dao.Parameter, error) {
	cursor := parsly.NewCursor("", input, 0)
	var ret []*dao.Parameter
	for !isBlank(cursor) {
		matched := cursor.MatchAfterOptional(whitespaceToken, identifierToken)
		if matched.Code != identifierToken.Code {
			return nil, cursor.NewError(identifierToken)
		}
		name := matched.Text(cursor)

		matched = cursor.MatchAfterOptional(whitespaceToken, assignToken)
		if matched.Code != assignToken.Code {
			return nil, cursor.NewError(assignToken)
		}

		var values []string
		for {
			matched = cursor.MatchAfterOptional(whitespaceToken, valueToken)
			if matched.Code != valueToken.Code {
				return nil, cursor.NewError(valueToken)
			}
			values = append(values, matched.Text(cursor))
			if isBlank(cursor) {
				break
			}
			matched = cursor.MatchAfterOptional(whitespaceToken, pipeToken, separatorToken)
			if matched.Code == pipeToken.Code {
				continue
			}
			if matched.Code == separatorToken.Code || isBlank(cursor) {
				break
			}
			return nil, cursor.NewError(separatorToken)
		}
		ret = append(ret, dao.NewParameter(name, values...))
	}
	if err := Validate(ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func isBlank(cursor *parsly.Cursor) bool {
	return cursor.Pos >= cursor.InputSize || strings.TrimSpace(string(cursor.Input[cursor.Pos:])) == ""
}
