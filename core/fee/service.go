package fee

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/coaching"
)

var ErrNotFound = core.NewNotFoundError("student")

type (
	Repository interface {
		// GetAccount returns the Account of a student; a non-empty coachingID restricts it to that tenant.
		GetAccount(ctx context.Context, studentID, coachingID string, exec ...core.DBExecutor) (Account, error)
		// LockAccount is GetAccount holding a row lock on the student until the end of the transaction.
		LockAccount(ctx context.Context, studentID, coachingID string, exec ...core.DBExecutor) (Account, error)
		QueryAccounts(ctx context.Context, coachingID string, exec ...core.DBExecutor) ([]Account, error)
		CreatePayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
		// QueryPayments returns matching payments, newest first.
		QueryPayments(ctx context.Context, filter PaymentFilter, exec ...core.DBExecutor) ([]Payment, error)
	}

	// Recorder is told about every collected payment.
	Recorder interface {
		PaymentCollected(coachingID string, amount decimal.Decimal)
	}

	Service struct {
		db        core.Transactor
		repo      Repository
		coachings coaching.Repository
		notifier  core.Notifier
		recorder  Recorder
		validate  *validator.Validate
		conf      *core.Config
		locks     *keyedMutex
	}
)

func NewService(
	db core.Transactor,
	repo Repository,
	coachings coaching.Repository,
	notifier core.Notifier,
	recorder Recorder,
	validate *validator.Validate,
	conf *core.Config,
) *Service {
	return &Service{
		db:        db,
		repo:      repo,
		coachings: coachings,
		notifier:  notifier,
		recorder:  recorder,
		validate:  validate,
		conf:      conf,
		locks:     newKeyedMutex(),
	}
}

// Collect records a payment of a student of the identity's coaching.
// Payments of a student are serialized so that each balance snapshot accounts for all the previous ones.
func (svc *Service) Collect(ctx context.Context, id core.Identity, cr CollectRequest) (Receipt, error) {
	coachingID, err := id.TenantID()
	if err != nil {
		return Receipt{}, err
	}
	if err = cr.Validate(svc.validate); err != nil {
		return Receipt{}, err
	}

	unlock := svc.locks.Lock(cr.StudentID)
	defer unlock()

	var (
		rcpt Receipt
		acc  Account
	)
	err = svc.db.WithinTx(ctx, func(exec core.DBExecutor) error {
		execs := core.ExecArgs(exec)
		var err error
		if acc, err = svc.repo.LockAccount(ctx, cr.StudentID, coachingID, execs...); err != nil {
			return err
		}
		payments, err := svc.repo.QueryPayments(ctx, PaymentFilter{StudentID: acc.StudentID}, execs...)
		if err != nil {
			return errors.Wrap(err, "querying payments")
		}

		now := core.NowFunc()
		paidNow := *cr.AmountPaid
		due := Compute(acc, append(payments, Payment{AmountPaid: paidNow}), now)

		p := Payment{
			StudentID:    acc.StudentID,
			CoachingID:   acc.CoachingID,
			AmountPaid:   paidNow,
			BalanceLeft:  due.Balance,
			PaymentDate:  now.UTC(),
			MonthPaidFor: cr.MonthPaidFor,
			ReceiptNo:    receipts.next(now),
			Remarks:      cr.Remarks,
			CreatedAt:    now.UTC(),
		}
		if p.MonthPaidFor == "" {
			p.MonthPaidFor = now.In(svc.conf.Location).Format("January 2006")
		}
		if p.Remarks == "" {
			p.Remarks = defaultRemarks
		}
		if p, err = svc.repo.CreatePayment(ctx, p, execs...); err != nil {
			return errors.Wrap(err, "creating payment")
		}

		rcpt = Receipt{
			DaysCounted:      due.DaysElapsed,
			TotalDue:         due.TotalExpected,
			PaidNow:          paidNow,
			BalanceRemaining: due.Balance,
			Payment:          p,
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	if svc.recorder != nil {
		svc.recorder.PaymentCollected(coachingID, rcpt.PaidNow)
	}
	svc.notifyReceipt(ctx, acc, rcpt)
	return rcpt, nil
}

func (svc *Service) notifyReceipt(ctx context.Context, acc Account, rcpt Receipt) {
	var coachingName string
	if c, err := svc.coachings.GetCoaching(ctx, acc.CoachingID); err == nil {
		coachingName = c.Name
	}

	if acc.Email != "" {
		svc.notifier.Email(core.NewEmailMessage(acc.Name, acc.Email, "Fee receipt "+rcpt.Payment.ReceiptNo, "fee_receipt", receiptData{
			StudentName:      acc.Name,
			CoachingName:     coachingName,
			ReceiptNo:        rcpt.Payment.ReceiptNo,
			PaymentDate:      rcpt.Payment.PaymentDate.In(svc.conf.Location).Format("02 Jan 2006 15:04"),
			AmountPaid:       rcpt.PaidNow.StringFixed(2),
			DaysCounted:      rcpt.DaysCounted,
			TotalDue:         rcpt.TotalDue.StringFixed(2),
			BalanceRemaining: rcpt.BalanceRemaining.StringFixed(2),
		}))
	}
	svc.notifier.Push(core.NewPushMessage(
		"Fee received",
		"We received "+rcpt.PaidNow.StringFixed(2)+". Balance: "+rcpt.BalanceRemaining.StringFixed(2),
		map[string]interface{}{"type": "fee", "receipt_no": rcpt.Payment.ReceiptNo},
		acc.PushToken,
	))
}

// Stats returns the fee position of the identity's coaching as of now.
func (svc *Service) Stats(ctx context.Context, id core.Identity) (Stats, error) {
	coachingID, err := id.TenantID()
	if err != nil {
		return Stats{}, err
	}
	accounts, err := svc.repo.QueryAccounts(ctx, coachingID)
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying accounts")
	}
	payments, err := svc.repo.QueryPayments(ctx, PaymentFilter{CoachingID: coachingID})
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying payments")
	}

	now := core.NowFunc()
	revenue := decimal.Zero
	for _, acc := range accounts {
		revenue = revenue.Add(expected(acc.MonthlyFees, DaysElapsed(acc.JoiningDate, now)))
	}
	paid := TotalPaid(payments)
	pending := revenue.Sub(paid).Round(0)
	if pending.IsNegative() {
		pending = decimal.Zero
	}
	return Stats{
		TotalCollected:        paid.Round(0),
		TotalPending:          pending,
		TotalStudents:         len(accounts),
		TotalRevenueGenerated: revenue.Round(0),
	}, nil
}

// History returns the payments of a student with their total.
func (svc *Service) History(ctx context.Context, studentID string) (History, error) {
	payments, err := svc.repo.QueryPayments(ctx, PaymentFilter{StudentID: studentID})
	if err != nil {
		return History{}, errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []Payment{}
	}
	return History{Payments: payments, TotalPaid: TotalPaid(payments)}, nil
}

// TenantHistory is History restricted to a student of the identity's coaching.
func (svc *Service) TenantHistory(ctx context.Context, id core.Identity, studentID string) (History, error) {
	coachingID, err := id.TenantID()
	if err != nil {
		return History{}, err
	}
	if _, err = svc.repo.GetAccount(ctx, studentID, coachingID); err != nil {
		return History{}, err
	}
	return svc.History(ctx, studentID)
}

// Dashboard returns the fee position of a student as of now; coachingID may be empty.
func (svc *Service) Dashboard(ctx context.Context, studentID, coachingID string) (Dashboard, error) {
	acc, err := svc.repo.GetAccount(ctx, studentID, coachingID)
	if err != nil {
		return Dashboard{}, err
	}
	payments, err := svc.repo.QueryPayments(ctx, PaymentFilter{StudentID: acc.StudentID})
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying payments")
	}
	due := Compute(acc, payments, core.NowFunc())
	return Dashboard{Due: due, AmountDue: due.AmountDue()}, nil
}
