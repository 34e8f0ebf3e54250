package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-directory-backend/internal/validate"
)

func TestID(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  int64
		expectErr bool
	}{
		{name: "Simple", raw: "42", expected: 42},
		{name: "Leading zeros", raw: "007", expected: 7},
		{name: "Max int64", raw: "9223372036854775807", expected: 9223372036854775807},
		{name: "Zero", raw: "0", expectErr: true},
		{name: "Negative", raw: "-1", expectErr: true},
		{name: "Plus sign", raw: "+5", expectErr: true},
		{name: "Whitespace", raw: " 5", expectErr: true},
		{name: "Word", raw: "abc", expectErr: true},
		{name: "Float", raw: "1.5", expectErr: true},
		{name: "Exponent", raw: "1e3", expectErr: true},
		{name: "Empty", raw: "", expectErr: true},
		{name: "Overflow", raw: "9223372036854775808", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ID(tc.raw)
			if tc.expectErr {
				assert.ErrorIs(t, err, ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, id)
		})
	}
}

func TestSchoolForm(t *testing.T) {
	t.Run("All fields present", func(t *testing.T) {
		in, p := SchoolForm(map[string][]string{
			"name":    {"Green Valley"},
			"address": {"12 Park Street"},
			"city":    {"Pune"},
			"state":   {"Maharashtra"},
			"contact": {"9876543210"},
			"emailId": {"a@b.co"},
		})
		assert.Equal(t, validate.Input{
			Name: "Green Valley", Address: "12 Park Street", City: "Pune",
			State: "Maharashtra", Contact: "9876543210", EmailID: "a@b.co",
		}, in)
		require.NotNil(t, p.Name)
		assert.Equal(t, "Green Valley", *p.Name)
		require.NotNil(t, p.EmailID)
		assert.Equal(t, "a@b.co", *p.EmailID)
	})

	t.Run("Absent keys are nil in the patch", func(t *testing.T) {
		in, p := SchoolForm(map[string][]string{"city": {"Delhi"}})
		assert.Equal(t, validate.Input{City: "Delhi"}, in)
		assert.Nil(t, p.Name)
		assert.Nil(t, p.Address)
		assert.Nil(t, p.State)
		assert.Nil(t, p.Contact)
		assert.Nil(t, p.EmailID)
		require.NotNil(t, p.City)
		assert.Equal(t, "Delhi", *p.City)
	})

	t.Run("Present but empty is kept", func(t *testing.T) {
		_, p := SchoolForm(map[string][]string{"name": {""}})
		require.NotNil(t, p.Name)
		assert.Equal(t, "", *p.Name)
	})

	t.Run("First value wins", func(t *testing.T) {
		in, _ := SchoolForm(map[string][]string{"name": {"First", "Second"}})
		assert.Equal(t, "First", in.Name)
	})

	t.Run("Unknown keys ignored", func(t *testing.T) {
		_, p := SchoolForm(map[string][]string{"image": {"x"}, "id": {"3"}})
		assert.True(t, p.Empty())
	})
}
