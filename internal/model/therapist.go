package model

type Therapist struct {
	Base
	Name      string `db:"name" json:"name"`
	Specialty string `db:"specialty" json:"specialty,omitempty"`
	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone,omitempty"`
	Active    bool   `db:"active" json:"active"`
}

type CreateTherapistRequest struct {
	Name      string `json:"name" binding:"required,max=200"`
	Specialty string `json:"specialty" binding:"max=200"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"max=50"`
}

type UpdateTherapistRequest struct {
	Name      *string `json:"name"`
	Specialty *string `json:"specialty"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Phone     *string `json:"phone"`
	Active    *bool   `json:"active"`
}
