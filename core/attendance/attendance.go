package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vidyasetu/vidyasetu/core"
)

type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusLate    Status = "Late"
	StatusLeave   Status = "Leave"
	StatusHoliday Status = "Holiday"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusLeave, StatusHoliday:
		return true
	}
	return false
}

// Record is the attendance of a student on a day. There is at most one Record per (StudentID, Date).
type Record struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name,omitempty"`
	CoachingID  string    `json:"coaching_id"`
	TeacherID   string    `json:"teacher_id,omitempty"`
	Date        time.Time `json:"date"` // local midnight
	Status      Status    `json:"status"`
	Remark      string    `json:"remark"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type Stats struct {
	TotalDays   int    `json:"total_days"`
	PresentDays int    `json:"present_days"` // Present + Late
	AbsentDays  int    `json:"absent_days"`
	LateDays    int    `json:"late_days"`
	Holidays    int    `json:"holidays"`
	LeaveDays   int    `json:"leave_days"`
	Percentage  string `json:"percentage"`
}

var hundred = decimal.NewFromInt(100)

// ComputeStats aggregates records. Holidays are excluded from the percentage denominator.
func ComputeStats(records []Record) Stats {
	stats := Stats{TotalDays: len(records)}
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			stats.PresentDays++
		case StatusLate:
			stats.PresentDays++
			stats.LateDays++
		case StatusAbsent:
			stats.AbsentDays++
		case StatusHoliday:
			stats.Holidays++
		case StatusLeave:
			stats.LeaveDays++
		}
	}

	stats.Percentage = "0.00"
	if working := stats.TotalDays - stats.Holidays; working > 0 {
		stats.Percentage = decimal.NewFromInt(int64(stats.PresentDays)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(working))).
			StringFixed(2)
	}
	return stats
}

type (
	MarkEntry struct {
		StudentID string `json:"student_id" validate:"required"`
		Status    Status `json:"status" validate:"required,oneof=Present Absent Late Leave Holiday"`
		Remark    string `json:"remark"`
	}

	// MarkRequest marks the attendance of a day. IsHoliday applies Holiday to every student of the coaching.
	MarkRequest struct {
		Date      string      `json:"date" validate:"omitempty,datetime=2006-01-02"` // defaults to today
		IsHoliday bool        `json:"is_holiday"`
		Records   []MarkEntry `json:"records" validate:"dive"`
	}
)

var errNoRecords = errors.New("this field is required")

func (mr *MarkRequest) Validate(validate *validator.Validate) error {
	mr.Date = core.CleanString(mr.Date)
	for i := range mr.Records {
		mr.Records[i].StudentID = core.CleanString(mr.Records[i].StudentID)
		mr.Records[i].Remark = core.CleanString(mr.Records[i].Remark)
	}
	if err := validate.Struct(mr); err != nil {
		return err
	}
	if !mr.IsHoliday && len(mr.Records) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "records", Error: errNoRecords.Error()})
	}
	return nil
}

type QueryFilter struct {
	CoachingID string
	StudentID  string
	Date       time.Time // zero: any day
}

// History is a student's attendance, newest first.
type History struct {
	Records []Record `json:"records"`
	Stats   Stats    `json:"stats"`
}
