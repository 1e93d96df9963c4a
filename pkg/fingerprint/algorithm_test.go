package fingerprint

import "testing"

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		name   string
		want   Algorithm
		wantOK bool
	}{
		{"test1", Test1, true},
		{"TEST2", Test2, true},
		{"Test3", Test3, true},
		{" test4 ", Test4, true},
		{"test5", Test5, true},
		{"default", Default, true},
		{"DEFAULT", Default, true},
		{"test6", Default, false},
		{"", Default, false},
		{"fast", Default, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAlgorithm(tt.name)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseAlgorithm(%q) = (%v, %v), want (%v, %v)", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAlgorithm_String(t *testing.T) {
	if Default.String() != "test2" {
		t.Errorf("Default.String() = %q, want test2", Default.String())
	}
	if got := Algorithm(9).String(); got != "Algorithm(9)" {
		t.Errorf("String() = %q", got)
	}
}
