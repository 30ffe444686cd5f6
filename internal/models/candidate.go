package models

import "time"

// Candidate is one student entry of a pending rotation request.
type Candidate struct {
	ID             string     `db:"id" json:"id"`
	RequestID      string     `db:"request_id" json:"requestId"`
	NationalID     string     `db:"national_id" json:"nationalId"`
	FirstName      string     `db:"first_name" json:"firstName"`
	LastName       string     `db:"last_name" json:"lastName"`
	Email          string     `db:"email" json:"email"`
	Phone          string     `db:"phone" json:"phone"`
	DesiredService string     `db:"desired_service" json:"desiredService"`
	StartDate      *time.Time `db:"start_date" json:"startDate,omitempty"`
	EndDate        *time.Time `db:"end_date" json:"endDate,omitempty"`
	ScheduleStart  string     `db:"schedule_start" json:"scheduleStart"`
	ScheduleEnd    string     `db:"schedule_end" json:"scheduleEnd"`
	Career         string     `db:"career" json:"career"`
	Level          string     `db:"level" json:"level"`
	DocentName     string     `db:"docent_name" json:"docentName"`
	DocentEmail    string     `db:"docent_email" json:"docentEmail"`
	DocentPhone    string     `db:"docent_phone" json:"docentPhone"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// CandidateFieldKind describes how an editable field value is parsed.
type CandidateFieldKind int

const (
	CandidateFieldText CandidateFieldKind = iota
	CandidateFieldDate
	CandidateFieldTime
)

// CandidateField maps an API field name to its column.
type CandidateField struct {
	Column   string
	Kind     CandidateFieldKind
	Required bool
}

// EditableCandidateFields whitelists single-field corrections. The national id is the
// natural key used during approval and cannot be edited.
var EditableCandidateFields = map[string]CandidateField{
	"firstName":      {Column: "first_name", Required: true},
	"lastName":       {Column: "last_name", Required: true},
	"email":          {Column: "email"},
	"phone":          {Column: "phone"},
	"desiredService": {Column: "desired_service"},
	"startDate":      {Column: "start_date", Kind: CandidateFieldDate},
	"endDate":        {Column: "end_date", Kind: CandidateFieldDate},
	"scheduleStart":  {Column: "schedule_start", Kind: CandidateFieldTime},
	"scheduleEnd":    {Column: "schedule_end", Kind: CandidateFieldTime},
	"career":         {Column: "career"},
	"level":          {Column: "level"},
	"docentName":     {Column: "docent_name"},
	"docentEmail":    {Column: "docent_email"},
	"docentPhone":    {Column: "docent_phone"},
}
