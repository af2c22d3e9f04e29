package scheduling

import (
	"strings"
	"time"

	"github.com/SHANICERUGURU/finalcapstone/pkg/date"
)

// Appointment is a visit booked by a patient with one doctor.
type Appointment struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient"`
	PatientName string    `json:"patient_name"`
	DoctorID    int64     `json:"doctor"`
	DoctorName  string    `json:"doctor_name"`
	Specialty   string    `json:"specialty"`
	Date        date.Date `json:"date"`
	Time        string    `json:"time"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookRequest is the body of POST /api/appointments/. Patient is accepted
// for compatibility and ignored.
type BookRequest struct {
	Doctor    int64     `json:"doctor"`
	Patient   *int64    `json:"patient,omitempty"`
	Specialty string    `json:"specialty"`
	Date      date.Date `json:"date"`
	Time      string    `json:"time"`
	Reason    string    `json:"reason"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

// StatusSet is the configured appointment status vocabulary.
type StatusSet map[string]struct{}

func NewStatusSet(statuses []string) StatusSet {
	s := make(StatusSet, len(statuses))
	for _, st := range statuses {
		if st = strings.TrimSpace(st); st != "" {
			s[st] = struct{}{}
		}
	}
	return s
}

func (s StatusSet) Contains(status string) bool {
	_, ok := s[status]
	return ok
}

var timeLayouts = []string{"15:04:05", "15:04"}

// normalizeTime accepts HH:MM or HH:MM:SS and returns HH:MM:SS.
func normalizeTime(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), true
		}
	}
	return "", false
}
