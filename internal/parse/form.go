package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"school-directory-backend/internal/validate"
)

var idRe = regexp.MustCompile(`^[0-9]+$`)

// ErrInvalidID is returned for ids that are not positive base-10 integers.
var ErrInvalidID = errors.New("invalid id")

// ID parses a path id. Signs, whitespace, zero and values that overflow
// int64 are rejected.
func ID(raw string) (int64, error) {
	if !idRe.MatchString(raw) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

// SchoolForm reads the school attributes from submitted form values. The
// Input carries "" for absent keys; the Patch carries nil for them, so a
// key that is present but empty is still distinguishable on update.
func SchoolForm(values map[string][]string) (validate.Input, validate.Patch) {
	first := func(key string) *string {
		vs, ok := values[key]
		if !ok || len(vs) == 0 {
			return nil
		}
		v := vs[0]
		return &v
	}
	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}

	p := validate.Patch{
		Name:    first("name"),
		Address: first("address"),
		City:    first("city"),
		State:   first("state"),
		Contact: first("contact"),
		EmailID: first("emailId"),
	}
	in := validate.Input{
		Name:    str(p.Name),
		Address: str(p.Address),
		City:    str(p.City),
		State:   str(p.State),
		Contact: str(p.Contact),
		EmailID: str(p.EmailID),
	}
	return in, p
}
