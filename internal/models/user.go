package models

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCaregiver Role = "caregiver"
)

type PayType string

const (
	PayHourly   PayType = "hourly"
	PayPerShift PayType = "perShift"
)

// User is a caregiver or administrator record in the record store.
// Caregivers authenticate with phone+PIN; admins with email+password
// (delegated to the identity service when configured, otherwise the
// stored bcrypt hash).
type User struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Role       Role    `json:"role"`
	Phone      string  `json:"phone,omitempty"`
	PIN        string  `json:"pin,omitempty"`
	Email      string  `json:"email,omitempty"`
	Password   string  `json:"password,omitempty"` // bcrypt hash
	PayType    PayType `json:"payType,omitempty"`
	HourlyRate float64 `json:"hourlyRate,omitempty"`
	ShiftRate  float64 `json:"shiftRate,omitempty"`
	IsActive   bool    `json:"isActive"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsCaregiver() bool {
	return u.Role == RoleCaregiver
}
