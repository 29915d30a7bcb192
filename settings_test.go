package gocef

import (
	"reflect"
	"testing"
)

func TestEffectiveArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		settings Settings
		want     []string
	}{
		{
			name: "empty args and settings",
			want: []string{},
		},
		{
			name: "caller args pass through",
			args: []string{"--disable-gpu", "--lang=de"},
			want: []string{"--disable-gpu", "--lang=de"},
		},
		{
			name:     "no-sandbox appended",
			args:     []string{"--disable-gpu"},
			settings: Settings{NoSandbox: true},
			want:     []string{"--disable-gpu", "--no-sandbox"},
		},
		{
			name:     "no-sandbox not duplicated",
			args:     []string{"--no-sandbox"},
			settings: Settings{NoSandbox: true},
			want:     []string{"--no-sandbox"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := effectiveArgs(tt.args, tt.settings)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("effectiveArgs(%v, %+v) = %v, want %v", tt.args, tt.settings, got, tt.want)
			}
		})
	}
}

func TestEffectiveArgsDoesNotMutateInput(t *testing.T) {
	args := []string{"--disable-gpu"}
	effectiveArgs(args, Settings{NoSandbox: true})
	if len(args) != 1 || args[0] != "--disable-gpu" {
		t.Fatalf("input slice mutated: %v", args)
	}
}
