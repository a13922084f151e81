package entity

import "testing"

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"dollar with comma", "$1,899.00", 1899.00},
		{"pound", "£250.50", 250.50},
		{"euro with spaces", " € 1 000.00 ", 1000.00},
		{"plain number string", "42.5", 42.5},
		{"garbage", "garbage", 0},
		{"empty", "", 0},
		{"nil", nil, 0},
		{"float passthrough", 12.75, 12.75},
		{"int passthrough", 7, 7},
		{"negative", "-15.00", -15.00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseMoney(tt.in); got != tt.want {
				t.Errorf("ParseMoney(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"plain", "3", 3},
		{"negative clamps to zero", "-2", 0},
		{"negative float clamps to zero", -1.5, 0},
		{"unparsable", "two", 0},
		{"float", 2.5, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseQuantity(tt.in); got != tt.want {
				t.Errorf("ParseQuantity(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
