package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jbarros93/dws-challenge/internal/domain"
	"github.com/jbarros93/dws-challenge/internal/notify"
	"github.com/jbarros93/dws-challenge/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type recordingSink struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (s *recordingSink) Notify(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *recordingSink) all() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.notifications...)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setup(t *testing.T, sink notify.Sink, balances map[string]string, opts ...Option) (*Executor, *store.Memory) {
	t.Helper()
	s := store.NewMemory()
	for id, balance := range balances {
		require.NoError(t, s.Insert(context.Background(), domain.NewAccount(id, dec(balance))))
	}
	return NewExecutor(s, sink, opts...), s
}

func balanceOf(t *testing.T, s store.AccountStore, id string) decimal.Decimal {
	t.Helper()
	acc, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	return acc.Balance()
}

func request(from, to, amount string) domain.TransferRequest {
	return domain.TransferRequest{FromID: from, ToID: to, Amount: dec(amount)}
}

func TestTransfer_Success(t *testing.T) {
	sink := &recordingSink{}
	exec, s := setup(t, sink, map[string]string{"Id-300": "1000", "Id-301": "2000"})

	receipt, err := exec.Transfer(context.Background(), request("Id-300", "Id-301", "60"))
	require.NoError(t, err)

	assert.NotEmpty(t, receipt.TransferID)
	assert.True(t, receipt.FromBalance.Equal(dec("940")))
	assert.True(t, receipt.ToBalance.Equal(dec("2060")))
	assert.True(t, balanceOf(t, s, "Id-300").Equal(dec("940")))
	assert.True(t, balanceOf(t, s, "Id-301").Equal(dec("2060")))

	got := sink.all()
	require.Len(t, got, 2)
	assert.Equal(t, "Id-300", got[0].AccountID)
	assert.Equal(t, domain.DirectionDebit, got[0].Direction)
	assert.Equal(t, "Id-301", got[1].AccountID)
	assert.Equal(t, domain.DirectionCredit, got[1].Direction)
	for _, n := range got {
		assert.Equal(t, receipt.TransferID, n.TransferID)
		assert.True(t, n.Amount.Equal(dec("60")))
	}
}

func TestTransfer_ExactDecimals(t *testing.T) {
	exec, s := setup(t, nil, map[string]string{"a": "0.3", "b": "0"})

	for i := 0; i < 3; i++ {
		_, err := exec.Transfer(context.Background(), request("a", "b", "0.1"))
		require.NoError(t, err)
	}

	assert.True(t, balanceOf(t, s, "a").IsZero(), "got %s", balanceOf(t, s, "a"))
	assert.True(t, balanceOf(t, s, "b").Equal(dec("0.3")))

	_, err := exec.Transfer(context.Background(), request("a", "b", "0.000000000000000001"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestTransfer_DrainsToZero(t *testing.T) {
	exec, s := setup(t, nil, map[string]string{"a": "100", "b": "0"})

	_, err := exec.Transfer(context.Background(), request("a", "b", "100"))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, s, "a").IsZero())
}

func TestTransfer_Failures(t *testing.T) {
	tests := []struct {
		name     string
		balances map[string]string
		req      domain.TransferRequest
		wantErr  error
		wantKind domain.ErrorKind
	}{
		{
			name:     "unknown destination",
			balances: map[string]string{"Id-302": "1000"},
			req:      request("Id-302", "Id-999", "60"),
			wantErr:  domain.ErrAccountNotFound,
			wantKind: domain.KindAccountNotFound,
		},
		{
			name:     "unknown source",
			balances: map[string]string{"Id-302": "1000"},
			req:      request("Id-999", "Id-302", "60"),
			wantErr:  domain.ErrAccountNotFound,
			wantKind: domain.KindAccountNotFound,
		},
		{
			name:     "insufficient balance",
			balances: map[string]string{"Id-303": "50", "Id-304": "1000"},
			req:      request("Id-303", "Id-304", "60"),
			wantErr:  domain.ErrInsufficientBalance,
			wantKind: domain.KindInsufficientBalance,
		},
		{
			name:     "same account",
			balances: map[string]string{"Id-305": "1000"},
			req:      request("Id-305", "Id-305", "60"),
			wantErr:  domain.ErrSameAccount,
			wantKind: domain.KindSameAccount,
		},
		{
			name:     "negative amount",
			balances: map[string]string{"Id-306": "1000", "Id-307": "1000"},
			req:      request("Id-306", "Id-307", "-60"),
			wantErr:  domain.ErrNonPositiveAmount,
			wantKind: domain.KindNonPositiveAmount,
		},
		{
			name:     "unknown destination and negative amount",
			balances: map[string]string{"Id-306": "1000"},
			req:      request("Id-306", "Id-999", "-60"),
			wantErr:  domain.ErrAccountNotFound,
			wantKind: domain.KindAccountNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sink := &recordingSink{}
			exec, s := setup(t, sink, tc.balances)

			_, err := exec.Transfer(context.Background(), tc.req)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.wantKind, domain.KindOf(err))

			for id, balance := range tc.balances {
				assert.True(t, balanceOf(t, s, id).Equal(dec(balance)), "balance of %s changed", id)
			}
			assert.Empty(t, sink.all(), "failed transfers must not notify")
		})
	}
}

func TestTransfer_ConcurrentDrain(t *testing.T) {
	exec, s := setup(t, nil, map[string]string{"Id-209": "1000", "Id-210": "2000"})

	const n = 50
	var succeeded, insufficient atomic.Int32
	var g errgroup.Group
	start := make(chan struct{})

	for i := 0; i < n; i++ {
		g.Go(func() error {
			<-start
			_, err := exec.Transfer(context.Background(), request("Id-209", "Id-210", "100"))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrInsufficientBalance):
				insufficient.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	close(start)
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(10), succeeded.Load())
	assert.Equal(t, int32(40), insufficient.Load())
	assert.True(t, balanceOf(t, s, "Id-209").IsZero())
	assert.True(t, balanceOf(t, s, "Id-210").Equal(dec("3000")))
}

func TestTransfer_OpposingDirectionsDoNotDeadlock(t *testing.T) {
	exec, s := setup(t, nil, map[string]string{"A": "1000", "B": "1000"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 0; i < 200; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, _ = exec.Transfer(context.Background(), request("A", "B", "7"))
			}()
			go func() {
				defer wg.Done()
				_, _ = exec.Transfer(context.Background(), request("B", "A", "7"))
			}()
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("opposing transfers did not finish: deadlock")
	}

	total := balanceOf(t, s, "A").Add(balanceOf(t, s, "B"))
	assert.True(t, total.Equal(dec("2000")), "total %s", total)
}

func TestTransfer_ConservationUnderContention(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	balances := map[string]string{}
	for _, id := range ids {
		balances[id] = "100.50"
	}
	exec, s := setup(t, nil, balances)

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < 250; i++ {
				from := ids[(w+i)%len(ids)]
				to := ids[(w+i*3+1)%len(ids)]
				amount := decimal.New(int64(1+(i*7)%40), -1)
				_, err := exec.Transfer(context.Background(), domain.TransferRequest{FromID: from, ToID: to, Amount: amount})
				switch domain.KindOf(err) {
				case domain.KindNone, domain.KindInsufficientBalance, domain.KindSameAccount:
				default:
					return fmt.Errorf("unexpected error: %w", err)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	total := decimal.Zero
	for _, id := range ids {
		b := balanceOf(t, s, id)
		assert.False(t, b.IsNegative(), "%s went negative: %s", id, b)
		total = total.Add(b)
	}
	assert.True(t, total.Equal(dec("502.50")), "total %s", total)
}

func TestTransfer_DisjointPairsDoNotBlock(t *testing.T) {
	blocked := make(chan struct{})
	release := make(chan struct{})
	sink := notify.SinkFunc(func(_ context.Context, n domain.Notification) error {
		if n.AccountID == "a" {
			close(blocked)
			<-release
		}
		return nil
	})
	exec, _ := setup(t, sink, map[string]string{"a": "10", "b": "10", "c": "10", "d": "10"})

	go func() { _, _ = exec.Transfer(context.Background(), request("a", "b", "1")) }()
	<-blocked
	defer close(release)

	done := make(chan error, 1)
	go func() {
		_, err := exec.Transfer(context.Background(), request("c", "d", "1"))
		done <- err
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("transfer over a disjoint pair was blocked")
	}
}

func TestTransfer_NotificationFailureDoesNotAbort(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	var calls atomic.Int32
	sink := notify.SinkFunc(func(context.Context, domain.Notification) error {
		calls.Add(1)
		return errors.New("mail server down")
	})
	exec, s := setup(t, sink, map[string]string{"a": "100", "b": "0"}, WithLogger(logger))

	_, err := exec.Transfer(context.Background(), request("a", "b", "40"))
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load(), "one notification per account")
	assert.True(t, balanceOf(t, s, "a").Equal(dec("60")))
	assert.True(t, balanceOf(t, s, "b").Equal(dec("40")))
	assert.Contains(t, logs.String(), "mail server down")
}

func TestTransfer_NotificationPanicIsContained(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	sink := notify.SinkFunc(func(context.Context, domain.Notification) error {
		panic("sink exploded")
	})
	exec, s := setup(t, sink, map[string]string{"a": "100", "b": "0"}, WithLogger(logger))

	_, err := exec.Transfer(context.Background(), request("a", "b", "40"))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, s, "a").Equal(dec("60")))
	assert.Contains(t, logs.String(), "sink exploded")

	// Locks were released despite the panic.
	_, err = exec.Transfer(context.Background(), request("b", "a", "40"))
	require.NoError(t, err)
}

func TestTransfer_NotifiesInsideCriticalSection(t *testing.T) {
	s := store.NewMemory()
	from := domain.NewAccount("a", dec("100"))
	require.NoError(t, s.Insert(context.Background(), from))
	require.NoError(t, s.Insert(context.Background(), domain.NewAccount("b", dec("0"))))

	var readerFinishedEarly atomic.Bool
	sink := notify.SinkFunc(func(_ context.Context, n domain.Notification) error {
		if n.Direction != domain.DirectionDebit {
			return nil
		}
		read := make(chan struct{})
		go func() {
			from.Balance()
			close(read)
		}()
		select {
		case <-read:
			readerFinishedEarly.Store(true)
		case <-time.After(50 * time.Millisecond):
		}
		return nil
	})

	_, err := NewExecutor(s, sink).Transfer(context.Background(), request("a", "b", "10"))
	require.NoError(t, err)
	assert.False(t, readerFinishedEarly.Load(), "account lock must be held while notifying")
}

func TestTransfer_NotifyAfterRelease(t *testing.T) {
	s := store.NewMemory()
	from := domain.NewAccount("a", dec("100"))
	require.NoError(t, s.Insert(context.Background(), from))
	require.NoError(t, s.Insert(context.Background(), domain.NewAccount("b", dec("0"))))

	var observed []decimal.Decimal
	sink := notify.SinkFunc(func(_ context.Context, n domain.Notification) error {
		// Would deadlock if the account lock were still held.
		observed = append(observed, from.Balance())
		return nil
	})

	exec := NewExecutor(s, sink, WithNotifyAfterRelease())
	done := make(chan error, 1)
	go func() {
		_, err := exec.Transfer(context.Background(), request("a", "b", "10"))
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("notification dispatched while holding the account lock")
	}
	require.Len(t, observed, 2)
	assert.True(t, observed[0].Equal(dec("90")))
}

func TestTransfer_DeterministicIDsAndClock(t *testing.T) {
	var seq atomic.Int32
	ids := func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }
	fixed := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	sink := &recordingSink{}
	exec, _ := setup(t, sink, map[string]string{"a": "10", "b": "0"},
		WithIDGenerator(ids),
		WithClock(func() time.Time { return fixed }),
	)

	receipt, err := exec.Transfer(context.Background(), request("a", "b", "1"))
	require.NoError(t, err)
	assert.Equal(t, "id-1", receipt.TransferID)

	got := sink.all()
	require.Len(t, got, 2)
	assert.Equal(t, "id-2", got[0].ID)
	assert.Equal(t, "id-3", got[1].ID)
	assert.Equal(t, fixed, got[0].Timestamp)
}

func TestNewExecutor_NilOptionsKeepDefaults(t *testing.T) {
	sink := &recordingSink{}
	e, s := setup(t, sink, map[string]string{"Id-1": "100", "Id-2": "0"},
		WithLogger(nil),
		WithClock(nil),
		WithIDGenerator(nil),
	)

	var receipt domain.Receipt
	require.NotPanics(t, func() {
		var err error
		receipt, err = e.Transfer(context.Background(), request("Id-1", "Id-2", "40"))
		require.NoError(t, err)
	})
	assert.NotEmpty(t, receipt.TransferID)
	assert.True(t, balanceOf(t, s, "Id-2").Equal(dec("40")))

	notifications := sink.all()
	require.Len(t, notifications, 2)
	for _, n := range notifications {
		assert.NotEmpty(t, n.ID)
		assert.False(t, n.Timestamp.IsZero())
	}
}

type failingStore struct {
	*store.Memory
	getErr    error
	updateErr error
}

func (f *failingStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Memory.Get(ctx, id)
}

func (f *failingStore) ApplyUpdates(context.Context, ...*domain.Account) error {
	return f.updateErr
}

func TestTransfer_PersistFailureRollsBack(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, mem.Insert(context.Background(), domain.NewAccount("a", dec("100"))))
	require.NoError(t, mem.Insert(context.Background(), domain.NewAccount("b", dec("5"))))
	fs := &failingStore{Memory: mem, updateErr: errors.New("write timeout")}

	sink := &recordingSink{}
	_, err := NewExecutor(fs, sink).Transfer(context.Background(), request("a", "b", "40"))
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))

	assert.True(t, balanceOf(t, mem, "a").Equal(dec("100")))
	assert.True(t, balanceOf(t, mem, "b").Equal(dec("5")))
	assert.Empty(t, sink.all())
}

func TestTransfer_LookupFailure(t *testing.T) {
	fs := &failingStore{Memory: store.NewMemory(), getErr: errors.New("connection refused")}

	_, err := NewExecutor(fs, nil).Transfer(context.Background(), request("a", "b", "1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup account a")
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}
