package model

// Tag is the classification outcome for one employee-day.
type Tag string

const (
	TagNone      Tag = "None"
	TagAbsent    Tag = "Absent"
	TagFull      Tag = "Full"
	TagMorning   Tag = "Morning"
	TagAfternoon Tag = "Afternoon"
	TagPartial   Tag = "Partial"
	TagOnLeave   Tag = "OnLeave"
)

const holidayPrefix = "Holiday-"

// AttendanceStatus is derived on demand and never persisted.
type AttendanceStatus struct {
	EmployeeID  string          `json:"employeeId"`
	Date        string          `json:"date"`
	Tag         Tag             `json:"tag"`
	Holiday     bool            `json:"holiday"`
	HolidayName string          `json:"holidayName,omitempty"`
	IsWithPay   bool            `json:"isWithPay,omitempty"`
	WorkedHours float64         `json:"workedHours,omitempty"`
	Window      *ResolvedWindow `json:"window,omitempty"`
	Leave       *LeaveRecord    `json:"leave,omitempty"`
	Punch       *PunchRecord    `json:"punch,omitempty"`
}

// Label renders the tag with its holiday prefix, e.g. "Holiday-Absent".
func (s AttendanceStatus) Label() string {
	if s.Holiday {
		return holidayPrefix + string(s.Tag)
	}
	return string(s.Tag)
}

// Present is true for every tag backed by a complete punch.
func (s AttendanceStatus) Present() bool {
	switch s.Tag {
	case TagFull, TagMorning, TagAfternoon, TagPartial:
		return true
	}
	return false
}
