package domain

import "time"

// Visitor is one visit: a check-in and, once the visitor has left, a check-out.
type Visitor struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	IDNumber       string     `json:"idNumber"`
	PhoneNumber    string     `json:"phoneNumber"`
	Organisation   string     `json:"organisation"`
	PurposeOfVisit string     `json:"purposeOfVisit"`
	PersonForVisit string     `json:"personForVisit"`
	HostID         *string    `json:"hostId,omitempty"`
	CheckInTime    time.Time  `json:"checkInTime"`
	CheckOutTime   *time.Time `json:"checkOutTime"`
}

// OnSite reports whether the visitor has not checked out yet.
func (v *Visitor) OnSite() bool {
	return v.CheckOutTime == nil
}

type CheckInRequest struct {
	Name           string  `json:"name"`
	IDNumber       string  `json:"idNumber"`
	PhoneNumber    string  `json:"phoneNumber"`
	Organisation   string  `json:"organisation"`
	PurposeOfVisit string  `json:"purposeOfVisit"`
	PersonForVisit string  `json:"personForVisit"`
	HostID         *string `json:"hostId,omitempty"`
}

// CheckoutRequest is the body of the legacy PUT /v1/visitors route.
type CheckoutRequest struct {
	ID string `json:"id"`
}

const (
	minFieldChars = 2
	minPhoneChars = 10
)

// Validate checks the payload after Normalize. Every violation is collected;
// the first one names the returned error's Field.
func (r *CheckInRequest) Validate(requireOrganisation bool) error {
	var violations []Violation
	check := func(field, value string, min int) {
		if runeLen(value) < min {
			violations = append(violations, Violation{
				Field:   field,
				Message: lengthMessage(field, min),
			})
		}
	}

	check("name", r.Name, minFieldChars)
	check("idNumber", r.IDNumber, minFieldChars)
	check("phoneNumber", r.PhoneNumber, minPhoneChars)
	check("purposeOfVisit", r.PurposeOfVisit, minFieldChars)
	check("personForVisit", r.PersonForVisit, minFieldChars)
	if requireOrganisation || r.Organisation != "" {
		check("organisation", r.Organisation, minFieldChars)
	}
	if r.HostID != nil && *r.HostID == "" {
		violations = append(violations, Violation{Field: "hostId", Message: "hostId must not be empty"})
	}

	if len(violations) == 0 {
		return nil
	}
	return NewValidationError(violations...)
}
