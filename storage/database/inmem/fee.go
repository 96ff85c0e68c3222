package inmemdb

import (
	"context"
	"sort"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/fee"
	"github.com/vidyasetu/vidyasetu/core/student"
)

type feeRepository struct {
	db *DB
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *DB) *feeRepository {
	return &feeRepository{db: db}
}

func account(s student.Student) fee.Account {
	return fee.Account{
		StudentID:   s.ID,
		CoachingID:  s.CoachingID,
		Name:        s.Name,
		Email:       s.Email,
		PushToken:   s.PushToken,
		JoiningDate: s.JoiningDate,
		MonthlyFees: s.MonthlyFees,
	}
}

func (repo *feeRepository) GetAccount(_ context.Context, studentID, coachingID string, _ ...core.DBExecutor) (fee.Account, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	s, ok := repo.db.students[studentID]
	if !ok || (coachingID != "" && s.CoachingID != coachingID) {
		return fee.Account{}, fee.ErrNotFound
	}
	return account(s), nil
}

// LockAccount is GetAccount: transactions are already serialized by DB.WithinTx.
func (repo *feeRepository) LockAccount(ctx context.Context, studentID, coachingID string, exec ...core.DBExecutor) (fee.Account, error) {
	return repo.GetAccount(ctx, studentID, coachingID, exec...)
}

func (repo *feeRepository) QueryAccounts(_ context.Context, coachingID string, _ ...core.DBExecutor) ([]fee.Account, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	accounts := make([]fee.Account, 0)
	for _, s := range repo.db.students {
		if s.CoachingID == coachingID {
			accounts = append(accounts, account(s))
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Name != accounts[j].Name {
			return accounts[i].Name < accounts[j].Name
		}
		return accounts[i].StudentID < accounts[j].StudentID
	})
	return accounts, nil
}

func (repo *feeRepository) CreatePayment(_ context.Context, p fee.Payment, _ ...core.DBExecutor) (fee.Payment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.students[p.StudentID]; !ok {
		return fee.Payment{}, fee.ErrNotFound
	}
	for _, existing := range repo.db.payments {
		if existing.ReceiptNo == p.ReceiptNo {
			return fee.Payment{}, core.NewDuplicateError("receipt_no", nil)
		}
	}
	p.ID = newID()
	p.PaymentDate = p.PaymentDate.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	repo.db.payments[p.ID] = p
	return p, nil
}

func (repo *feeRepository) QueryPayments(_ context.Context, filter fee.PaymentFilter, _ ...core.DBExecutor) ([]fee.Payment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	payments := make([]fee.Payment, 0)
	for _, p := range repo.db.payments {
		if filter.CoachingID != "" && p.CoachingID != filter.CoachingID {
			continue
		}
		if filter.StudentID != "" && p.StudentID != filter.StudentID {
			continue
		}
		payments = append(payments, p)
	}
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].PaymentDate.Equal(payments[j].PaymentDate) {
			return payments[i].PaymentDate.After(payments[j].PaymentDate)
		}
		return payments[i].ReceiptNo > payments[j].ReceiptNo
	})
	return payments, nil
}
