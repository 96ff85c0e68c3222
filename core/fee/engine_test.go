package fee

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestDaysElapsed(t *testing.T) {
	joined := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		asOf time.Time
		want int
	}{
		{name: "same instant", asOf: joined, want: 1},
		{name: "same day", asOf: joined.Add(23 * time.Hour), want: 1},
		{name: "next day", asOf: joined.Add(24 * time.Hour), want: 2},
		{name: "joined in the future", asOf: joined.Add(-72 * time.Hour), want: 1},
		{name: "a month later", asOf: joined.AddDate(0, 0, 30), want: 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysElapsed(joined, tt.asOf))
		})
	}
}

func TestExpectedToDate(t *testing.T) {
	tests := []struct {
		name    string
		monthly string
		days    int
		want    string
	}{
		{name: "zero fees", monthly: "0", days: 40, want: "0"},
		{name: "exact", monthly: "3000", days: 1, want: "100"},
		{name: "rounds down", monthly: "1000", days: 1, want: "33"},
		{name: "rounds up", monthly: "1000", days: 2, want: "67"},
		{name: "half rounds away from zero", monthly: "15", days: 1, want: "1"}, // 0.5
		{name: "multiplies before dividing", monthly: "1000", days: 3, want: "100"},
		{name: "full month", monthly: "2499", days: 30, want: "2499"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpectedToDate(dec(tt.monthly), tt.days)
			assert.True(t, got.Equal(dec(tt.want)), "got %v; want %v", got, tt.want)
		})
	}
}

func TestExpectedToDate_matchesFormula(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		monthly := rnd.Intn(100000)
		days := 1 + rnd.Intn(2000)
		// integer half away from zero of days*monthly/30
		num := days * monthly
		want := num / daysPerMonth
		if rem := num % daysPerMonth; 2*rem >= daysPerMonth {
			want++
		}
		got := ExpectedToDate(decimal.NewFromInt(int64(monthly)), days)
		assert.True(t, got.Equal(decimal.NewFromInt(int64(want))), "monthly=%d days=%d got %v; want %d", monthly, days, got, want)
	}
}

func TestCompute(t *testing.T) {
	now := time.Now()
	acc := Account{StudentID: "s", JoiningDate: now, MonthlyFees: dec("3000")}

	due := Compute(acc, nil, now)
	assert.Equal(t, 1, due.DaysElapsed)
	assert.True(t, due.DailyRate.Equal(dec("100")))
	assert.True(t, due.TotalExpected.Equal(dec("100")))
	assert.True(t, due.Balance.Equal(dec("100")))

	payments := []Payment{{AmountPaid: dec("50")}}
	due = Compute(acc, payments, now)
	assert.True(t, due.Balance.Equal(dec("50")))

	payments = append(payments, Payment{AmountPaid: dec("100")})
	due = Compute(acc, payments, now)
	assert.True(t, due.TotalPaid.Equal(dec("150")))
	assert.True(t, due.Balance.Equal(dec("-50")))
	assert.True(t, due.AmountDue().Equal(decimal.Zero), "amount due is clamped")
}

func TestCompute_orderIndependent(t *testing.T) {
	now := time.Now()
	acc := Account{JoiningDate: now.AddDate(0, -3, 0), MonthlyFees: dec("2750")}
	payments := []Payment{
		{AmountPaid: dec("1000")},
		{AmountPaid: dec("250.50")},
		{AmountPaid: dec("3000")},
		{AmountPaid: dec("0")},
		{AmountPaid: dec("999.99")},
	}
	want := Compute(acc, payments, now).Balance

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]Payment(nil), payments...)
		rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := Compute(acc, shuffled, now).Balance
		assert.True(t, got.Equal(want), "got %v; want %v", got, want)
	}
}

func TestDue_AmountDue(t *testing.T) {
	now := time.Now()
	acc := Account{JoiningDate: now, MonthlyFees: dec("1000")} // 33.33.. accrued

	due := Compute(acc, []Payment{{AmountPaid: dec("0.40")}}, now)
	assert.True(t, due.AmountDue().Equal(dec("33")), "round(33.33 - 0.40)")
	assert.True(t, due.Balance.Equal(dec("32.60")), "round(33.33) - 0.40")
}

func TestReceiptSequence(t *testing.T) {
	var seq receiptSequence
	now := time.UnixMilli(1700000000000)

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rcpt := seq.next(now)
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[rcpt], "duplicate receipt %s", rcpt)
			seen[rcpt] = true
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
	assert.Equal(t, "REC-1700000000050", seq.next(now))
}

func TestKeyedMutex(t *testing.T) {
	km := newKeyedMutex()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("student")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, counter)
	assert.Empty(t, km.locks)
}
