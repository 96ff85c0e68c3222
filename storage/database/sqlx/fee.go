package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/fee"
)

var paymentDupErrs = map[string]error{
	"fee_payments_receipt_no_key": core.NewDuplicateError("receipt_no", errors.New("receipt number already used")),
}

const selectAccount = `SELECT id, coaching_id, name, email, push_token, joining_date, monthly_fees FROM students`

type accountRow struct {
	StudentID   string          `db:"id"`
	CoachingID  string          `db:"coaching_id"`
	Name        string          `db:"name"`
	Email       string          `db:"email"`
	PushToken   string          `db:"push_token"`
	JoiningDate time.Time       `db:"joining_date"`
	MonthlyFees decimal.Decimal `db:"monthly_fees"`
}

type paymentRow struct {
	ID           string          `db:"id"`
	StudentID    string          `db:"student_id"`
	CoachingID   string          `db:"coaching_id"`
	AmountPaid   decimal.Decimal `db:"amount_paid"`
	BalanceLeft  decimal.Decimal `db:"balance_left"`
	PaymentDate  time.Time       `db:"payment_date"`
	MonthPaidFor string          `db:"month_paid_for"`
	ReceiptNo    string          `db:"receipt_no"`
	Remarks      string          `db:"remarks"`
	CreatedAt    time.Time       `db:"created_at"`
}

func (r paymentRow) payment() fee.Payment {
	return fee.Payment{
		ID:           r.ID,
		StudentID:    r.StudentID,
		CoachingID:   r.CoachingID,
		AmountPaid:   r.AmountPaid,
		BalanceLeft:  r.BalanceLeft,
		PaymentDate:  r.PaymentDate.UTC(),
		MonthPaidFor: r.MonthPaidFor,
		ReceiptNo:    r.ReceiptNo,
		Remarks:      r.Remarks,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

// feeRepository reads accounts off the students table and owns the fee_payments ledger.
type feeRepository struct {
	base
	loc *time.Location
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *sqlx.DB, loc *time.Location) *feeRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &feeRepository{base: base{db: db}, loc: loc}
}

func (repo feeRepository) account(r accountRow) fee.Account {
	return fee.Account{
		StudentID:   r.StudentID,
		CoachingID:  r.CoachingID,
		Name:        r.Name,
		Email:       r.Email,
		PushToken:   r.PushToken,
		JoiningDate: localDay(r.JoiningDate, repo.loc),
		MonthlyFees: r.MonthlyFees,
	}
}

func (repo feeRepository) getAccount(ctx context.Context, studentID, coachingID, suffix string, exec []core.DBExecutor) (fee.Account, error) {
	if !isUUID(studentID) || (coachingID != "" && !isUUID(coachingID)) {
		return fee.Account{}, fee.ErrNotFound
	}
	var w whereClause
	w.add("id = ?", studentID)
	if coachingID != "" {
		w.add("coaching_id = ?", coachingID)
	}
	q, args, err := rebind(selectAccount+w.String()+suffix, w.args)
	if err != nil {
		return fee.Account{}, err
	}

	var row accountRow
	err = sqlx.GetContext(ctx, repo.getExec(exec), &row, q, args...)
	if err == sql.ErrNoRows {
		return fee.Account{}, fee.ErrNotFound
	} else if err != nil {
		return fee.Account{}, errors.Wrap(err, "finding fee account")
	}
	return repo.account(row), nil
}

func (repo feeRepository) GetAccount(ctx context.Context, studentID, coachingID string, exec ...core.DBExecutor) (fee.Account, error) {
	return repo.getAccount(ctx, studentID, coachingID, "", exec)
}

func (repo feeRepository) LockAccount(ctx context.Context, studentID, coachingID string, exec ...core.DBExecutor) (fee.Account, error) {
	return repo.getAccount(ctx, studentID, coachingID, " FOR UPDATE", exec)
}

func (repo feeRepository) QueryAccounts(ctx context.Context, coachingID string, exec ...core.DBExecutor) ([]fee.Account, error) {
	if !isUUID(coachingID) {
		return []fee.Account{}, nil
	}
	var rows []accountRow
	err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, selectAccount+` WHERE coaching_id = $1 ORDER BY name`, coachingID)
	if err != nil {
		return nil, errors.Wrap(err, "querying fee accounts")
	}
	accounts := make([]fee.Account, 0, len(rows))
	for _, r := range rows {
		accounts = append(accounts, repo.account(r))
	}
	return accounts, nil
}

func (repo feeRepository) CreatePayment(ctx context.Context, p fee.Payment, exec ...core.DBExecutor) (fee.Payment, error) {
	p.ID = newID()
	row := paymentRow{
		ID:           p.ID,
		StudentID:    p.StudentID,
		CoachingID:   p.CoachingID,
		AmountPaid:   p.AmountPaid,
		BalanceLeft:  p.BalanceLeft,
		PaymentDate:  p.PaymentDate.UTC(),
		MonthPaidFor: p.MonthPaidFor,
		ReceiptNo:    p.ReceiptNo,
		Remarks:      p.Remarks,
		CreatedAt:    p.CreatedAt.UTC(),
	}
	q := `INSERT INTO fee_payments (
		id, student_id, coaching_id, amount_paid, balance_left, payment_date, month_paid_for, receipt_no, remarks, created_at
	) VALUES (
		:id, :student_id, :coaching_id, :amount_paid, :balance_left, :payment_date, :month_paid_for, :receipt_no, :remarks, :created_at
	)`
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, row); err != nil {
		return fee.Payment{}, trapUniqueErr(err, "inserting payment", paymentDupErrs)
	}
	return row.payment(), nil
}

func (repo feeRepository) QueryPayments(ctx context.Context, filter fee.PaymentFilter, exec ...core.DBExecutor) ([]fee.Payment, error) {
	var w whereClause
	if filter.CoachingID != "" {
		if !isUUID(filter.CoachingID) {
			return []fee.Payment{}, nil
		}
		w.add("coaching_id = ?", filter.CoachingID)
	}
	if filter.StudentID != "" {
		if !isUUID(filter.StudentID) {
			return []fee.Payment{}, nil
		}
		w.add("student_id = ?", filter.StudentID)
	}
	q, args, err := rebind("SELECT * FROM fee_payments"+w.String()+" ORDER BY payment_date DESC, receipt_no DESC", w.args)
	if err != nil {
		return nil, err
	}

	var rows []paymentRow
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	payments := make([]fee.Payment, 0, len(rows))
	for _, r := range rows {
		payments = append(payments, r.payment())
	}
	return payments, nil
}
