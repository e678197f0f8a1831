package domain

import (
	"time"

	dErrors "collabgate/pkg/domain-errors"
)

// StampLayout is the fixed-width UTC timestamp embedded in document filenames
// (YYYYMMDDTHHMMSSZ). The width is load-bearing: "most recent" selection sorts
// filenames lexicographically instead of parsing timestamps, which is only
// correct while every stamp has the same length.
const StampLayout = "20060102T150405Z"

// FormatStamp renders t as a filename stamp in UTC.
func FormatStamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// ParseStamp parses a filename stamp back into a UTC time.
func ParseStamp(s string) (time.Time, error) {
	t, err := time.Parse(StampLayout, s)
	if err != nil {
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid timestamp stamp")
	}
	return t, nil
}
