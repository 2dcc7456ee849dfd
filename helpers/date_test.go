package helpers

import (
	"reflect"
	"testing"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"jan", 1},
		{"{March}", 3},
		{"Sept.", 9},
		{"12", 12},
		{"13", 0},
		{"spring", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := ParseMonth(tt.input); got != tt.want {
			t.Errorf("ParseMonth(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestDateParts(t *testing.T) {
	tests := []struct {
		year  string
		month string
		want  []int
	}{
		{"2020", "", []int{2020}},
		{"2020", "oct", []int{2020, 10}},
		{"{1999}", "7", []int{1999, 7}},
		{"2021a", "", []int{2021}},
		{"2020-03-15", "dec", []int{2020, 3, 15}},
		{"2020-03", "", []int{2020, 3}},
		{"in press", "jan", nil},
		{"", "", nil},
	}
	for _, tt := range tests {
		if got := DateParts(tt.year, tt.month); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DateParts(%q, %q) = %v, want %v", tt.year, tt.month, got, tt.want)
		}
	}
}
