package domain

import "github.com/diagnosis/visitor-register/internal/utils"

func (r *CheckInRequest) Normalize() {
	r.Name = utils.NormalizeString(r.Name)
	r.IDNumber = utils.NormalizeString(r.IDNumber)
	r.PhoneNumber = utils.NormalizeString(r.PhoneNumber)
	r.Organisation = utils.NormalizeString(r.Organisation)
	r.PurposeOfVisit = utils.NormalizeString(r.PurposeOfVisit)
	r.PersonForVisit = utils.NormalizeString(r.PersonForVisit)
	if r.HostID != nil {
		h := utils.NormalizeString(*r.HostID)
		r.HostID = &h
	}
}

func (r *CreateUserRequest) Normalize() {
	r.TeamLeaderName = utils.NormalizeString(r.TeamLeaderName)
	r.Organisation = utils.NormalizeString(r.Organisation)
	r.CompanyNumber = utils.NormalizeString(r.CompanyNumber)
}

func (p *UserPatch) Normalize() {
	for _, f := range []*string{p.TeamLeaderName, p.Organisation, p.CompanyNumber} {
		if f != nil {
			*f = utils.NormalizeString(*f)
		}
	}
}

func (r *SignUpRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
}

func (r *LoginRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
}
