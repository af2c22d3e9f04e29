package account

import (
	"strings"
	"time"

	"github.com/SHANICERUGURU/finalcapstone/internal/platform/access"
	"github.com/SHANICERUGURU/finalcapstone/pkg/date"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

var genderLabels = map[Gender]string{
	GenderMale:   "Male",
	GenderFemale: "Female",
	GenderOther:  "Other",
}

// Valid accepts the three codes and the empty value.
func (g Gender) Valid() bool {
	if g == "" {
		return true
	}
	_, ok := genderLabels[g]
	return ok
}

// Label returns the display label, or the raw code when it is unknown.
func (g Gender) Label() string {
	if l, ok := genderLabels[g]; ok {
		return l
	}
	return string(g)
}

// User is a clinic account. The password hash never leaves the server.
type User struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	DateOfBirth  date.Date   `json:"date_of_birth"`
	Gender       Gender      `json:"gender"`
	Role         access.Role `json:"role"`
	PasswordHash string      `json:"-"`
	DateJoined   time.Time   `json:"date_joined"`
}

func (u *User) FullName() string {
	return FullName(u.FirstName, u.LastName)
}

// FullName joins first and last name with a single space.
func FullName(first, last string) string {
	return first + " " + last
}

// RegisterRequest is the body of POST /api/auth/register/.
type RegisterRequest struct {
	Username        string      `json:"username"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	DateOfBirth     date.Date   `json:"date_of_birth"`
	Gender          Gender      `json:"gender"`
	Role            access.Role `json:"role"`
	Password        string      `json:"password"`
	ConfirmPassword string      `json:"confirm_password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ProfileUpdate lists the user fields a caller may change on their own
// account. Nil fields are left as they are. Role is not updatable.
type ProfileUpdate struct {
	Username    *string    `json:"username"`
	Email       *string    `json:"email"`
	Phone       *string    `json:"phone"`
	FirstName   *string    `json:"first_name"`
	LastName    *string    `json:"last_name"`
	DateOfBirth *date.Date `json:"date_of_birth"`
	Gender      *Gender    `json:"gender"`
}

func (p ProfileUpdate) apply(u *User) {
	if p.Username != nil {
		u.Username = strings.TrimSpace(*p.Username)
	}
	if p.Email != nil {
		u.Email = strings.TrimSpace(*p.Email)
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.DateOfBirth != nil {
		u.DateOfBirth = *p.DateOfBirth
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User    *User  `json:"user"`
	Token   string `json:"token"`
	Message string `json:"message"`
}
