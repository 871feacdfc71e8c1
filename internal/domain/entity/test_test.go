package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTest_IsOwnedBy(t *testing.T) {
	owner := uint(42)

	test := &Test{UserID: &owner}
	assert.True(t, test.IsOwnedBy(42))
	assert.False(t, test.IsOwnedBy(1))

	orphan := &Test{}
	assert.False(t, orphan.IsOwnedBy(42))
}

func TestIsValidGender(t *testing.T) {
	assert.True(t, IsValidGender(GenderAny))
	assert.True(t, IsValidGender(GenderMale))
	assert.True(t, IsValidGender(GenderFemale))
	assert.False(t, IsValidGender(3))
	assert.False(t, IsValidGender(-1))
}

func TestVKUser_CanEditPublished(t *testing.T) {
	assert.False(t, (&VKUser{}).CanEditPublished())
	assert.True(t, (&VKUser{IsStaff: true}).CanEditPublished())
}
