package metrics

import (
	"errors"
	"testing"
)

func TestJoinName(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		want     string
		wantErr  bool
	}{
		{name: "single", segments: []string{"requests"}, want: "requests"},
		{name: "module and label", segments: []string{"NancyFx", "Action Request"}, want: "NancyFx.Action Request"},
		{name: "trims spaces", segments: []string{" api ", "get"}, want: "api.get"},
		{name: "no segments", segments: nil, wantErr: true},
		{name: "empty segment", segments: []string{"api", ""}, wantErr: true},
		{name: "blank segment", segments: []string{"   "}, wantErr: true},
		{name: "separator inside segment", segments: []string{"a.b"}, wantErr: true},
		{name: "control character", segments: []string{"line\nbreak"}, wantErr: true},
		{name: "invalid utf-8", segments: []string{"\xff"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JoinName(tt.segments...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("JoinName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("JoinName() error = %v, want ErrInvalidName", err)
			}
			if got != tt.want {
				t.Errorf("JoinName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "requests", false},
		{"composite", "NancyFx.Sample.TestRequest", false},
		{"spaces inside", "Action Request", false},
		{"empty", "", true},
		{"leading separator", ".requests", true},
		{"trailing separator", "requests.", true},
		{"double separator", "a..b", true},
		{"padded segment", "a. b", true},
		{"tab", "a\tb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
