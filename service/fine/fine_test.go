package fine_test

import (
	"testing"
	"time"

	"librarian/model"
	"librarian/service/fine"
)

var (
	due = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	eng = fine.New(1)
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name   string
		status model.BorrowStatus
		now    time.Time
		want   model.BorrowStatus
	}{
		{"before due stays borrowed", model.StatusBorrowed, due.Add(-time.Hour), model.StatusBorrowed},
		{"exactly due stays borrowed", model.StatusBorrowed, due, model.StatusBorrowed},
		{"past due becomes overdue", model.StatusBorrowed, due.Add(time.Minute), model.StatusOverdue},
		{"overdue stays overdue", model.StatusOverdue, due.Add(48 * time.Hour), model.StatusOverdue},
		{"returned is terminal", model.StatusReturned, due.Add(100 * time.Hour), model.StatusReturned},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := eng.DeriveStatus(tc.status, tc.now, due); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCompute_NotYetDue(t *testing.T) {
	if f := eng.Compute(model.StatusBorrowed, due, nil, due.Add(-time.Hour)); f != 0 {
		t.Fatalf("fine before due = %d, want 0", f)
	}
}

func TestCompute_OverdueRoundsUp(t *testing.T) {
	cases := []struct {
		late time.Duration
		want int64
	}{
		{time.Minute, 1},
		{24 * time.Hour, 1},
		{24*time.Hour + time.Second, 2},
		{72 * time.Hour, 3},
		{10 * 24 * time.Hour, 10},
	}
	for _, tc := range cases {
		got := eng.Compute(model.StatusBorrowed, due, nil, due.Add(tc.late))
		if got != tc.want {
			t.Fatalf("late %v: fine = %d, want %d", tc.late, got, tc.want)
		}
	}
}

func TestCompute_ReturnedFreezes(t *testing.T) {
	ret := due.Add(3 * 24 * time.Hour)
	f1 := eng.Compute(model.StatusReturned, due, &ret, ret)
	f2 := eng.Compute(model.StatusReturned, due, &ret, ret.Add(30*24*time.Hour))
	if f1 != 3 || f2 != 3 {
		t.Fatalf("returned fine = %d then %d, want 3 both times", f1, f2)
	}
}

func TestCompute_EarlyReturnOwesNothing(t *testing.T) {
	ret := due.Add(-2 * time.Hour)
	if f := eng.Compute(model.StatusReturned, due, &ret, due.Add(99*time.Hour)); f != 0 {
		t.Fatalf("early return fine = %d, want 0", f)
	}
}

func TestCompute_Monotonic(t *testing.T) {
	prev := int64(-1)
	for h := 0; h < 240; h += 7 {
		f := eng.Compute(model.StatusBorrowed, due, nil, due.Add(time.Duration(h)*time.Hour))
		if f < prev {
			t.Fatalf("fine decreased from %d to %d at +%dh", prev, f, h)
		}
		if f < 0 {
			t.Fatalf("negative fine %d", f)
		}
		prev = f
	}
}

func TestCompute_UsesConfiguredRate(t *testing.T) {
	e := fine.New(5)
	if f := e.Compute(model.StatusOverdue, due, nil, due.Add(49*time.Hour)); f != 15 {
		t.Fatalf("fine = %d, want 15 (3 days x 5)", f)
	}
}
