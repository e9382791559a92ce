package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCheckIn() CheckInRequest {
	return CheckInRequest{
		Name:           "Jane Roe",
		IDNumber:       "A1",
		PhoneNumber:    "0712345678",
		Organisation:   "Acme",
		PurposeOfVisit: "Audit",
		PersonForVisit: "Sam",
	}
}

func TestCheckInRequest_Validate(t *testing.T) {
	req := validCheckIn()
	require.NoError(t, req.Validate(true))

	t.Run("short fields are all reported", func(t *testing.T) {
		req := validCheckIn()
		req.Name = "J"
		req.PhoneNumber = "123456789"
		err := req.Validate(true)

		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "name", ve.Field)
		require.Len(t, ve.Violations, 2)
		assert.Equal(t, "phoneNumber", ve.Violations[1].Field)
	})

	t.Run("phone length is counted in characters", func(t *testing.T) {
		req := validCheckIn()
		req.PhoneNumber = "+44 (0) 12"
		assert.NoError(t, req.Validate(true))
	})

	t.Run("multibyte names count runes", func(t *testing.T) {
		req := validCheckIn()
		req.Name = "Ål"
		assert.NoError(t, req.Validate(true))
	})

	t.Run("organisation optional when not required", func(t *testing.T) {
		req := validCheckIn()
		req.Organisation = ""
		assert.NoError(t, req.Validate(false))

		err := req.Validate(true)
		require.Error(t, err)
		assert.True(t, IsValidation(err))

		req.Organisation = "A"
		assert.Error(t, req.Validate(false))
	})

	t.Run("empty host id", func(t *testing.T) {
		req := validCheckIn()
		empty := ""
		req.HostID = &empty
		var ve *ValidationError
		require.True(t, errors.As(req.Validate(true), &ve))
		assert.Equal(t, "hostId", ve.Field)
	})
}

func TestCheckInRequest_Normalize(t *testing.T) {
	host := "  u-1 "
	req := CheckInRequest{Name: "  Jane ", IDNumber: " A1", HostID: &host}
	req.Normalize()
	assert.Equal(t, "Jane", req.Name)
	assert.Equal(t, "A1", req.IDNumber)
	assert.Equal(t, "u-1", *req.HostID)
}

func TestUserPatch(t *testing.T) {
	var p UserPatch
	assert.True(t, p.Empty())
	assert.NoError(t, p.Validate())

	blank := "   "
	p.Organisation = &blank
	p.Normalize()
	assert.False(t, p.Empty())
	var ve *ValidationError
	require.True(t, errors.As(p.Validate(), &ve))
	assert.Equal(t, "organisation", ve.Field)
}

func TestCreateUserRequest_Validate(t *testing.T) {
	req := CreateUserRequest{TeamLeaderName: "Sam"}
	var ve *ValidationError
	require.True(t, errors.As(req.Validate(), &ve))
	assert.Equal(t, "organisation", ve.Field)

	req.Organisation = "Acme"
	assert.NoError(t, req.Validate())
}

func TestErrorHelpers(t *testing.T) {
	cause := errors.New("connection refused")
	storeErr := fmt.Errorf("check in: %w", &StoreError{Op: "visitors.create", Err: cause})

	assert.True(t, IsStore(storeErr))
	assert.ErrorIs(t, storeErr, cause)
	assert.True(t, IsNotFound(&NotFoundError{Resource: "visitor", ID: "x"}))
	assert.True(t, IsConflict(&ConflictError{Resource: "user", Message: "exists"}))
	assert.False(t, IsValidation(cause))
	assert.Equal(t, `visitor "x" not found`, (&NotFoundError{Resource: "visitor", ID: "x"}).Error())
}
