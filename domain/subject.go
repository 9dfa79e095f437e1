package domain

import "strconv"

// SubjectID identifies the resource owner. It is application defined and only
// ever used as an opaque key component.
type SubjectID string

// SubjectFromInt builds a SubjectID from a numeric user id.
func SubjectFromInt(id int64) SubjectID {
	return SubjectID(strconv.FormatInt(id, 10))
}

func (s SubjectID) String() string {
	return string(s)
}
