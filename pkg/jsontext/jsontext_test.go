package jsontext

import (
	"errors"
	"testing"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n```json\n[1,2]\n```\n  ", `[1,2]`},
		{"fence without newline", "```json{\"a\":1}```", `{"a":1}`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.input); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUnmarshal(t *testing.T) {
	t.Run("fenced and bare inputs decode identically", func(t *testing.T) {
		type payload struct {
			Symptoms []string `json:"symptoms"`
		}
		var fromFenced, fromBare payload
		if err := Unmarshal("```json\n{\"symptoms\":[\"headache\"]}\n```", &fromFenced); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := Unmarshal(`{"symptoms":["headache"]}`, &fromBare); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(fromFenced.Symptoms) != 1 || fromFenced.Symptoms[0] != fromBare.Symptoms[0] {
			t.Errorf("fenced decode %v differs from bare decode %v", fromFenced, fromBare)
		}
	})

	t.Run("malformed output returns ModelOutputError", func(t *testing.T) {
		var v map[string]interface{}
		err := Unmarshal("I am not JSON, sorry", &v)
		if err == nil {
			t.Fatal("expected error")
		}
		var moErr *ModelOutputError
		if !errors.As(err, &moErr) {
			t.Fatalf("expected ModelOutputError, got %T", err)
		}
		if moErr.Raw != "I am not JSON, sorry" {
			t.Errorf("Raw = %q, want original text", moErr.Raw)
		}
	})
}
