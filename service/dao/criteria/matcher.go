package criteria

import (
	"time"

	"github.com/viant/procsched/service/dao"
)

// FilterByState reports whether state matches the "State" parameter, which
// may hold a single state or a list. Missing parameter matches everything.
func FilterByState(state string, parameters []*dao.Parameter) bool {
	parameter, ok := dao.Lookup("State", parameters)
	if !ok {
		return true
	}
	switch actual := parameter.Value.(type) {
	case string:
		return state == actual
	case []string:
		for _, s := range actual {
			if state == s {
				return true
			}
		}
		return false
	}
	return true
}

// FilterSince reports whether at is not before the "Since" parameter, given
// either as time.Time or an RFC3339 string. An unreadable value matches
// nothing; Validate reports it.
func FilterSince(at time.Time, parameters []*dao.Parameter) bool {
	parameter, ok := dao.Lookup("Since", parameters)
	if !ok {
		return true
	}
	var since time.Time
	switch actual := parameter.Value.(type) {
	case time.Time:
		since = actual
	case string:
		parsed, err := time.Parse(time.RFC3339, actual)
		if err != nil {
			return false
		}
		since = parsed
	default:
		return false
	}
	return !at.Before(since)
}
