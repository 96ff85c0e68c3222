package fee

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vidyasetu/vidyasetu/core"
)

const defaultRemarks = "Monthly Fees"

var errAmountRequired = errors.New("this field is required")

// Payment is an append-only fee ledger row.
type Payment struct {
	ID           string          `json:"id"`
	StudentID    string          `json:"student_id"`
	CoachingID   string          `json:"coaching_id"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	BalanceLeft  decimal.Decimal `json:"balance_left"` // snapshot at payment time
	PaymentDate  time.Time       `json:"payment_date"` // UTC
	MonthPaidFor string          `json:"month_paid_for"`
	ReceiptNo    string          `json:"receipt_no"`
	Remarks      string          `json:"remarks"`
	CreatedAt    time.Time       `json:"created_at"` // UTC
}

type CollectRequest struct {
	StudentID    string           `json:"student_id" validate:"required"`
	AmountPaid   *decimal.Decimal `json:"amount_paid" validate:"omitnil,gte=0,money"`
	MonthPaidFor string           `json:"month_paid_for"` // defaults to the current "January 2006"
	Remarks      string           `json:"remarks"`
}

func (cr *CollectRequest) Validate(validate *validator.Validate) error {
	cr.StudentID = core.CleanString(cr.StudentID)
	cr.MonthPaidFor = core.CleanString(cr.MonthPaidFor)
	cr.Remarks = core.CleanString(cr.Remarks)
	if err := validate.Struct(cr); err != nil {
		return err
	}
	if cr.AmountPaid == nil {
		return core.NewValidationError(nil, core.FieldError{Field: "amount_paid", Error: errAmountRequired.Error()})
	}
	return nil
}

type (
	Receipt struct {
		DaysCounted      int             `json:"days_counted"`
		TotalDue         decimal.Decimal `json:"total_due"`
		PaidNow          decimal.Decimal `json:"paid_now"`
		BalanceRemaining decimal.Decimal `json:"balance_remaining"`
		Payment          Payment         `json:"payment"`
	}

	// Stats is the fee position of a whole coaching.
	Stats struct {
		TotalCollected        decimal.Decimal `json:"total_collected"`
		TotalPending          decimal.Decimal `json:"total_pending"`
		TotalStudents         int             `json:"total_students"`
		TotalRevenueGenerated decimal.Decimal `json:"total_revenue_generated"`
	}

	// History is a student's payments, newest first.
	History struct {
		Payments  []Payment       `json:"payments"`
		TotalPaid decimal.Decimal `json:"total_paid"`
	}

	// Dashboard is a student's fee position as shown to them.
	Dashboard struct {
		Due
		AmountDue decimal.Decimal `json:"amount_due"`
	}

	PaymentFilter struct {
		CoachingID string
		StudentID  string
	}

	receiptData struct {
		StudentName      string
		CoachingName     string
		ReceiptNo        string
		PaymentDate      string
		AmountPaid       string
		DaysCounted      int
		TotalDue         string
		BalanceRemaining string
	}
)
