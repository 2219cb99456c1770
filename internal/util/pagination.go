package util

import "strconv"

const MaxLimit = 50

type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads limit/offset query values. Empty values take the
// defaults; invalid ones are reported per field.
func ParsePage(limitStr, offsetStr string, defLimit, defOffset int) (Page, map[string]string) {
	p := Page{Limit: defLimit, Offset: defOffset}
	errs := map[string]string{}

	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 || n > MaxLimit {
			errs["limit"] = "Limit must be between 1 to 50"
		} else {
			p.Limit = n
		}
	}
	if offsetStr != "" {
		n, err := strconv.Atoi(offsetStr)
		if err != nil || n < 0 {
			errs["offset"] = "Offset must be a positive integer"
		} else {
			p.Offset = n
		}
	}

	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if len(errs) > 0 {
		return p, errs
	}
	return p, nil
}
