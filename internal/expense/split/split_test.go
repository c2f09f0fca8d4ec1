package split

import (
	"errors"
	"testing"

	"github.com/tanmaysahni/splitbook/pkg/money"
)

func val(s string) *money.Money {
	m := money.MustParse(s)
	return &m
}

func inputs(users []int64, values []string) []Input {
	in := make([]Input, len(users))
	for i, u := range users {
		in[i] = Input{UserID: u}
		if values != nil {
			in[i].Value = val(values[i])
		}
	}
	return in
}

func sumAllocations(allocs []Allocation) money.Money {
	var sum money.Money
	for _, a := range allocs {
		sum = sum.Add(a.AmountOwed)
	}
	return sum
}

func TestEqualAllocate(t *testing.T) {
	tests := []struct {
		name  string
		total string
		users []int64
		want  []string
	}{
		{
			// Remainder of 0.01 goes to the first participant.
			name:  "100 across three",
			total: "100.00",
			users: []int64{1, 2, 3},
			want:  []string{"33.34", "33.33", "33.33"},
		},
		{
			name:  "exact division",
			total: "90.00",
			users: []int64{1, 2, 3},
			want:  []string{"30.00", "30.00", "30.00"},
		},
		{
			name:  "single participant",
			total: "47.13",
			users: []int64{9},
			want:  []string{"47.13"},
		},
		{
			// perHead rounds up to 0.67, first absorbs the negative remainder.
			name:  "negative remainder to first",
			total: "2.00",
			users: []int64{1, 2, 3},
			want:  []string{"0.66", "0.67", "0.67"},
		},
	}

	s := &EqualStrategy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := money.MustParse(tt.total)
			got, err := s.Allocate(total, inputs(tt.users, nil))
			if err != nil {
				t.Fatalf("Allocate: %v", err)
			}
			for i, a := range got {
				if a.AmountOwed.String() != tt.want[i] {
					t.Errorf("participant %d = %s, want %s", a.UserID, a.AmountOwed, tt.want[i])
				}
			}
			if sum := sumAllocations(got); sum != total {
				t.Errorf("allocations sum to %s, want %s", sum, total)
			}
		})
	}
}

func TestPercentageAllocate(t *testing.T) {
	tests := []struct {
		name   string
		total  string
		users  []int64
		values []string
		want   []string
	}{
		{
			name:   "no drift when exact",
			total:  "100.00",
			users:  []int64{1, 2, 3},
			values: []string{"33", "33", "34"},
			want:   []string{"33.00", "33.00", "34.00"},
		},
		{
			// 10.00*33% = 3.30 twice; last gets 10.00-6.60 = 3.40.
			name:   "last absorbs remainder",
			total:  "10.00",
			users:  []int64{1, 2, 3},
			values: []string{"33", "33", "34"},
			want:   []string{"3.30", "3.30", "3.40"},
		},
		{
			name:   "single participant takes all",
			total:  "55.55",
			users:  []int64{7},
			values: []string{"100"},
			want:   []string{"55.55"},
		},
		{
			name:   "zero percent participant",
			total:  "20.00",
			users:  []int64{1, 2},
			values: []string{"0", "100"},
			want:   []string{"0.00", "20.00"},
		},
	}

	s := &PercentageStrategy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := money.MustParse(tt.total)
			got, err := s.Allocate(total, inputs(tt.users, tt.values))
			if err != nil {
				t.Fatalf("Allocate: %v", err)
			}
			for i, a := range got {
				if a.AmountOwed.String() != tt.want[i] {
					t.Errorf("participant %d = %s, want %s", a.UserID, a.AmountOwed, tt.want[i])
				}
			}
			if sum := sumAllocations(got); sum != total {
				t.Errorf("allocations sum to %s, want %s", sum, total)
			}
		})
	}
}

func TestPercentageValidate(t *testing.T) {
	s := &PercentageStrategy{}
	total := money.MustParse("100.00")

	tests := []struct {
		name   string
		values []string
		want   error
	}{
		{name: "sum below 100", values: []string{"50", "49.99"}, want: ErrPercentageTotal},
		{name: "sum above 100", values: []string{"50", "50.01"}, want: ErrPercentageTotal},
		{name: "negative", values: []string{"-1", "101"}, want: ErrPercentageOutOfRange},
		{name: "above 100", values: []string{"101", "-1"}, want: ErrPercentageOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Allocate(total, inputs([]int64{1, 2}, tt.values))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := s.Allocate(total, []Input{{UserID: 1}}); !errors.Is(err, ErrMissingValue) {
		t.Errorf("missing value: got %v, want ErrMissingValue", err)
	}
}

func TestExactAllocate(t *testing.T) {
	s := &ExactStrategy{}

	got, err := s.Allocate(money.MustParse("10.00"),
		inputs([]int64{1, 2}, []string{"7.25", "2.75"}))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got[0].AmountOwed.String() != "7.25" || got[1].AmountOwed.String() != "2.75" {
		t.Errorf("amounts not passed through verbatim: %v", got)
	}

	// 5.00 + 4.99 = 9.99 != 10.00
	_, err = s.Allocate(money.MustParse("10.00"),
		inputs([]int64{1, 2}, []string{"5.00", "4.99"}))
	if !errors.Is(err, ErrExactTotalMismatch) {
		t.Errorf("mismatched sum: got %v, want ErrExactTotalMismatch", err)
	}

	_, err = s.Allocate(money.MustParse("10.00"),
		inputs([]int64{1, 2}, []string{"-1.00", "11.00"}))
	if !errors.Is(err, ErrNegativeExactAmount) {
		t.Errorf("negative amount: got %v, want ErrNegativeExactAmount", err)
	}
}

func TestSharesAllocate(t *testing.T) {
	tests := []struct {
		name   string
		total  string
		users  []int64
		values []string
		want   []string
	}{
		{
			// perShare = 10.00/3 = 3.33; A gets 3.33, B (last) gets 6.67.
			name:   "one to two shares",
			total:  "10.00",
			users:  []int64{1, 2},
			values: []string{"1", "2"},
			want:   []string{"3.33", "6.67"},
		},
		{
			name:   "even shares",
			total:  "30.00",
			users:  []int64{1, 2, 3},
			values: []string{"1", "1", "1"},
			want:   []string{"10.00", "10.00", "10.00"},
		},
		{
			name:   "weighted",
			total:  "100.00",
			users:  []int64{1, 2, 3},
			values: []string{"2", "3", "5"},
			want:   []string{"20.00", "30.00", "50.00"},
		},
	}

	s := &SharesStrategy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := money.MustParse(tt.total)
			got, err := s.Allocate(total, inputs(tt.users, tt.values))
			if err != nil {
				t.Fatalf("Allocate: %v", err)
			}
			for i, a := range got {
				if a.AmountOwed.String() != tt.want[i] {
					t.Errorf("participant %d = %s, want %s", a.UserID, a.AmountOwed, tt.want[i])
				}
			}
			if sum := sumAllocations(got); sum != total {
				t.Errorf("allocations sum to %s, want %s", sum, total)
			}
		})
	}
}

func TestSharesValidate(t *testing.T) {
	s := &SharesStrategy{}
	total := money.MustParse("10.00")

	for _, bad := range []string{"0", "-1", "1.5"} {
		if _, err := s.Allocate(total, inputs([]int64{1, 2}, []string{bad, "1"})); !errors.Is(err, ErrInvalidShares) {
			t.Errorf("shares %q: got %v, want ErrInvalidShares", bad, err)
		}
	}
}

func TestCommonValidation(t *testing.T) {
	factory := NewFactory()

	for _, typ := range []Type{TypeEqual, TypePercentage, TypeExact, TypeShares} {
		s, err := factory.Create(typ)
		if err != nil {
			t.Fatalf("Create(%s): %v", typ, err)
		}

		if _, err := s.Allocate(money.MustParse("0.00"), inputs([]int64{1}, []string{"100"})); !errors.Is(err, ErrNonPositiveTotal) {
			t.Errorf("%s zero total: got %v, want ErrNonPositiveTotal", typ, err)
		}
		if _, err := s.Allocate(money.MustParse("-5.00"), inputs([]int64{1}, []string{"100"})); !errors.Is(err, ErrNonPositiveTotal) {
			t.Errorf("%s negative total: got %v, want ErrNonPositiveTotal", typ, err)
		}
		if _, err := s.Allocate(money.MustParse("10.00"), nil); !errors.Is(err, ErrNoParticipants) {
			t.Errorf("%s empty inputs: got %v, want ErrNoParticipants", typ, err)
		}
	}

	if _, err := factory.CreateFromString("HALFSIES"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("unknown type: got %v, want ErrUnknownType", err)
	}
}

// Every strategy must reconcile to the cent for any valid input.
func TestReconciliation(t *testing.T) {
	totals := []string{"0.01", "0.10", "1.00", "9.99", "100.00", "12345.67", "33333.33"}
	factory := NewFactory()

	for _, ts := range totals {
		total := money.MustParse(ts)

		for n := 1; n <= 7; n++ {
			users := make([]int64, n)
			for i := range users {
				users[i] = int64(i + 1)
			}

			cases := []struct {
				typ    Type
				inputs []Input
			}{
				{TypeEqual, inputs(users, nil)},
				{TypeShares, sharesFor(users)},
				{TypePercentage, percentagesFor(users)},
			}

			for _, c := range cases {
				s, _ := factory.Create(c.typ)
				allocs, err := s.Allocate(total, c.inputs)
				if err != nil {
					t.Fatalf("%s total=%s n=%d: %v", c.typ, ts, n, err)
				}
				if sum := sumAllocations(allocs); sum != total {
					t.Errorf("%s total=%s n=%d: allocations sum to %s", c.typ, ts, n, sum)
				}
			}
		}
	}
}

// sharesFor assigns 1, 2, 3... shares.
func sharesFor(users []int64) []Input {
	in := make([]Input, len(users))
	for i, u := range users {
		m := money.FromMinor(int64(i+1) * 100)
		in[i] = Input{UserID: u, Value: &m}
	}
	return in
}

// percentagesFor spreads 100% as evenly as hundredths allow, dumping the
// leftover hundredths on the last entry.
func percentagesFor(users []int64) []Input {
	n := int64(len(users))
	base := int64(10000) / n
	in := make([]Input, len(users))
	var assigned int64
	for i, u := range users {
		pct := base
		if i == len(users)-1 {
			pct = 10000 - assigned
		}
		assigned += pct
		m := money.FromMinor(pct)
		in[i] = Input{UserID: u, Value: &m}
	}
	return in
}
