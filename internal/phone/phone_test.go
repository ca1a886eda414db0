package phone

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "already local", input: "0821234567", want: "0821234567"},
		{name: "spaces and dashes", input: "082 123-4567", want: "0821234567"},
		{name: "international without plus", input: "27821234567", want: "0821234567"},
		{name: "international with plus", input: "+27821234567", want: "0821234567"},
		{name: "country code plus leading zero", input: "+270821234567", want: "0821234567"},
		{name: "parentheses", input: "(082) 123 4567", want: "0821234567"},
		{name: "too short", input: "08212345", wantErr: true},
		{name: "too long", input: "082123456789", wantErr: true},
		{name: "missing leading zero", input: "821234567", wantErr: true},
		{name: "all zeros", input: "0000000000", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "letters only", input: "call me", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q): expected %q, got %q", tt.input, tt.want, got)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	once, err := Normalize("+27 82 123 4567")
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Normalize(once)
	if err != nil {
		t.Fatal(err)
	}
	if once != twice {
		t.Errorf("expected %q, got %q", once, twice)
	}
}
