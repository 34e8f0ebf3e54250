// Package validate enforces the field rules for school records.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var phoneRe = regexp.MustCompile(`^\+?[0-9\s\-()]{7,20}$`)

// Input is a full set of school attributes, as required on create.
type Input struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Contact string `json:"contact"`
	EmailID string `json:"emailId"`
}

// Patch is a partial set of school attributes. A nil field was not supplied
// and is left untouched; a non-nil field is checked even when empty.
type Patch struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
	Contact *string `json:"contact,omitempty"`
	EmailID *string `json:"emailId,omitempty"`
}

// Empty reports whether no field was supplied.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Address == nil && p.City == nil &&
		p.State == nil && p.Contact == nil && p.EmailID == nil
}

// field describes one attribute: its wire name, validator tag and the
// message reported when the tag fails. maxLen mirrors the column size.
type field struct {
	name    string
	tag     string
	message string
	maxLen  int
}

var fields = []field{
	{name: "name", tag: "min=2", message: "Name is required", maxLen: 255},
	{name: "address", tag: "min=5", message: "Address is required", maxLen: 512},
	{name: "city", tag: "min=2", message: "City is required", maxLen: 128},
	{name: "state", tag: "min=2", message: "State is required", maxLen: 128},
	{name: "contact", tag: "phone", message: "Enter a valid phone number"},
	{name: "emailId", tag: "email", message: "Enter a valid email", maxLen: 255},
}

func (f field) tooLong() string {
	return fmt.Sprintf("Must be at most %d characters", f.maxLen)
}

// Error lists every field that failed validation.
type Error struct {
	Fields map[string][]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

func (e *Error) add(name, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[name] = append(e.Fields[name], msg)
}

// AsError unwraps a validation failure from err.
func AsError(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Validator checks school attributes. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the phone rule registered.
func New() *Validator {
	v := validator.New()
	// RegisterValidation only fails for empty or reserved tag names.
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Strict validates a create payload: every field is required.
func (val *Validator) Strict(in Input) (Input, error) {
	values := []*string{&in.Name, &in.Address, &in.City, &in.State, &in.Contact, &in.EmailID}
	if err := val.check(values); err != nil {
		return Input{}, err
	}
	return in, nil
}

// Partial validates an update payload: only supplied fields are checked.
func (val *Validator) Partial(p Patch) (Patch, error) {
	values := []*string{p.Name, p.Address, p.City, p.State, p.Contact, p.EmailID}
	if err := val.check(values); err != nil {
		return Patch{}, err
	}
	return p, nil
}

// check runs the rule for each non-nil value, in the order of fields.
func (val *Validator) check(values []*string) error {
	verr := &Error{}
	for i, f := range fields {
		if values[i] == nil {
			continue
		}
		if err := val.v.Var(*values[i], "required,"+f.tag); err != nil {
			verr.add(f.name, f.message)
			continue
		}
		if f.maxLen > 0 {
			if err := val.v.Var(*values[i], fmt.Sprintf("max=%d", f.maxLen)); err != nil {
				verr.add(f.name, f.tooLong())
			}
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
