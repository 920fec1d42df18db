package model

type PatientStatus string

const (
	PatientStatusActive     PatientStatus = "active"
	PatientStatusInactive   PatientStatus = "inactive"
	PatientStatusDischarged PatientStatus = "discharged"
)

// Patient records carry guardian contact details because most patients of the
// clinic are minors booked by a parent.
type Patient struct {
	Base
	Name          string        `db:"name" json:"name"`
	DateOfBirth   string        `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Email         string        `db:"email" json:"email,omitempty"`
	Phone         string        `db:"phone" json:"phone,omitempty"`
	GuardianName  string        `db:"guardian_name" json:"guardian_name,omitempty"`
	GuardianPhone string        `db:"guardian_phone" json:"guardian_phone,omitempty"`
	GuardianEmail string        `db:"guardian_email" json:"guardian_email,omitempty"`
	Status        PatientStatus `db:"status" json:"status"`
}

type CreatePatientRequest struct {
	Name          string `json:"name" binding:"required,max=200"`
	DateOfBirth   string `json:"date_of_birth" binding:"omitempty,dateonly"`
	Email         string `json:"email" binding:"omitempty,email"`
	Phone         string `json:"phone" binding:"max=50"`
	GuardianName  string `json:"guardian_name" binding:"max=200"`
	GuardianPhone string `json:"guardian_phone" binding:"max=50"`
	GuardianEmail string `json:"guardian_email" binding:"omitempty,email"`
}

type UpdatePatientRequest struct {
	Name          *string        `json:"name"`
	Email         *string        `json:"email" binding:"omitempty,email"`
	Phone         *string        `json:"phone"`
	GuardianName  *string        `json:"guardian_name"`
	GuardianPhone *string        `json:"guardian_phone"`
	GuardianEmail *string        `json:"guardian_email"`
	Status        *PatientStatus `json:"status"`
}

type PatientFilters struct {
	SearchTerm string
	Status     PatientStatus
	Pagination Pagination
	Sort       SortOrder
}
