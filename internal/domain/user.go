package domain

import "time"

// User is the host account a visitor can be linked to. ID is the external
// identity id, not a database sequence.
type User struct {
	ID             string    `json:"id"`
	TeamLeaderName string    `json:"teamLeaderName"`
	Organisation   string    `json:"organisation"`
	CompanyNumber  string    `json:"companyNumber"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type CreateUserRequest struct {
	TeamLeaderName string `json:"teamLeaderName"`
	Organisation   string `json:"organisation"`
	CompanyNumber  string `json:"companyNumber"`
}

// UserPatch carries a partial update; nil fields are left untouched.
type UserPatch struct {
	TeamLeaderName *string `json:"teamLeaderName,omitempty"`
	Organisation   *string `json:"organisation,omitempty"`
	CompanyNumber  *string `json:"companyNumber,omitempty"`
}

func (p UserPatch) Empty() bool {
	return p.TeamLeaderName == nil && p.Organisation == nil && p.CompanyNumber == nil
}

func (r *CreateUserRequest) Validate() error {
	var violations []Violation
	if r.TeamLeaderName == "" {
		violations = append(violations, Violation{Field: "teamLeaderName", Message: "teamLeaderName is required"})
	}
	if r.Organisation == "" {
		violations = append(violations, Violation{Field: "organisation", Message: "organisation is required"})
	}
	if len(violations) == 0 {
		return nil
	}
	return NewValidationError(violations...)
}

func (p *UserPatch) Validate() error {
	var violations []Violation
	if p.TeamLeaderName != nil && *p.TeamLeaderName == "" {
		violations = append(violations, Violation{Field: "teamLeaderName", Message: "teamLeaderName must not be empty"})
	}
	if p.Organisation != nil && *p.Organisation == "" {
		violations = append(violations, Violation{Field: "organisation", Message: "organisation must not be empty"})
	}
	if len(violations) == 0 {
		return nil
	}
	return NewValidationError(violations...)
}

// Credential is a local sign-in for a host. Subject becomes the User id.
type Credential struct {
	Subject      string    `json:"subject"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
