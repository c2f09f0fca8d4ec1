package money

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "two decimals", in: "123.45", want: 12345},
		{name: "one decimal", in: "123.4", want: 12340},
		{name: "no decimals", in: "123", want: 12300},
		{name: "zero", in: "0.00", want: 0},
		{name: "bare fraction", in: ".50", want: 50},
		{name: "negative", in: "-5.01", want: -501},
		{name: "leading plus", in: "+2.00", want: 200},
		{name: "too many decimals", in: "1.234", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "garbage", in: "abc", wantErr: true},
		{name: "lone dot", in: ".", wantErr: true},
		{name: "signed fraction", in: "12.-5", wantErr: true},
		{name: "plus-signed fraction", in: "1.+5", wantErr: true},
		{name: "double sign", in: "+-1", wantErr: true},
		{name: "sign after sign", in: "--1", wantErr: true},
		{name: "non-digit fraction", in: "1.2x", wantErr: true},
		{name: "non-digit whole", in: "1x.20", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if got.Minor() != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got.Minor(), tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		units int64
		want  string
	}{
		{12345, "123.45"},
		{100, "1.00"},
		{5, "0.05"},
		{0, "0.00"},
		{-501, "-5.01"},
		{-5, "-0.05"},
	}

	for _, tt := range tests {
		if got := FromMinor(tt.units).String(); got != tt.want {
			t.Errorf("FromMinor(%d).String() = %q, want %q", tt.units, got, tt.want)
		}
	}
}

func TestDivRoundHalfUp(t *testing.T) {
	tests := []struct {
		name string
		m    Money
		n    int64
		want int64
	}{
		{name: "exact", m: 9900, n: 3, want: 3300},
		{name: "rounds up on half", m: 100, n: 8, want: 13},    // 12.5 -> 13
		{name: "rounds down below half", m: 100, n: 3, want: 33}, // 33.33 -> 33
		{name: "100.00 by 3", m: 10000, n: 3, want: 3333},
		{name: "negative rounds away from zero", m: -100, n: 8, want: -13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.DivRound(tt.n); got.Minor() != tt.want {
				t.Errorf("DivRound(%d, %d) = %d, want %d", tt.m, tt.n, got.Minor(), tt.want)
			}
		})
	}
}

func TestMulDivRound(t *testing.T) {
	// 10.00 * 33.00% -> 3.30
	got := FromMinor(1000).MulDivRound(3300, 10000)
	if got.Minor() != 330 {
		t.Errorf("10.00 * 33%% = %d, want 330", got.Minor())
	}
	// 0.01 * 50% rounds half-up to 0.01
	got = FromMinor(1).MulDivRound(5000, 10000)
	if got.Minor() != 1 {
		t.Errorf("0.01 * 50%% = %d, want 1", got.Minor())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Amount Money `json:"amount"`
	}

	data, err := json.Marshal(payload{Amount: MustParse("33.34")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"amount":"33.34"}` {
		t.Errorf("marshal = %s, want amount as 2-decimal string", data)
	}

	var p payload
	if err := json.Unmarshal([]byte(`{"amount":"10.50"}`), &p); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if p.Amount.Minor() != 1050 {
		t.Errorf("unmarshal string = %d, want 1050", p.Amount.Minor())
	}

	// Bare numbers are tolerated on input.
	if err := json.Unmarshal([]byte(`{"amount":25.5}`), &p); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if p.Amount.Minor() != 2550 {
		t.Errorf("unmarshal number = %d, want 2550", p.Amount.Minor())
	}
}
