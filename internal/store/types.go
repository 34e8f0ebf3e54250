package store

import (
	"errors"

	"school-directory-backend/internal/model"
	"school-directory-backend/internal/validate"
)

// ErrNotFound is returned when no school has the requested id.
var ErrNotFound = errors.New("school not found")

// patchColumns maps the supplied fields of p (and the image reference, if
// any) to their column names.
func patchColumns(p validate.Patch, image *string) map[string]any {
	cols := make(map[string]any)
	set := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	set("name", p.Name)
	set("address", p.Address)
	set("city", p.City)
	set("state", p.State)
	set("contact", p.Contact)
	set("email_id", p.EmailID)
	set("image", image)
	return cols
}

// applyPatch merges the supplied fields onto s.
func applyPatch(s *model.School, p validate.Patch, image *string) {
	assign := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	assign(&s.Name, p.Name)
	assign(&s.Address, p.Address)
	assign(&s.City, p.City)
	assign(&s.State, p.State)
	assign(&s.Contact, p.Contact)
	assign(&s.EmailID, p.EmailID)
	assign(&s.Image, image)
}
