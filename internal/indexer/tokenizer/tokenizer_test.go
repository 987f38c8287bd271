package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Token
	}{
		{"lowercases and splits", "Apple iPhone 15", []Token{{"apple", 0}, {"iphone", 1}, {"15", 2}}},
		{"punctuation separates", "galaxy-s24,ultra", []Token{{"galaxy", 0}, {"s24", 1}, {"ultra", 2}}},
		{"short tokens dropped without gaps", "a big TV", []Token{{"big", 0}, {"tv", 1}}},
		{"underscore is a word char", "usb_c cable", []Token{{"usb_c", 0}, {"cable", 1}}},
		{"non-ascii separates", "café crème", []Token{{"caf", 0}, {"cr", 1}, {"me", 2}}},
		{"empty", "", []Token{}},
		{"only separators", " - / ", []Token{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTerms(t *testing.T) {
	got := Terms("iPhone Case, iPhone")
	want := []string{"iphone", "case", "iphone"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
}

func TestNGrams(t *testing.T) {
	tests := []struct {
		token string
		n     int
		want  []string
	}{
		{"iphone", 2, []string{"ip", "ph", "ho", "on", "ne"}},
		{"TV", 2, []string{"tv"}},
		{"a", 2, []string{"a"}},
		{"abcd", 3, []string{"abc", "bcd"}},
		{" ab ", 2, []string{"ab"}},
		{"abc", 0, []string{"ab", "bc"}},
		{"", 2, []string{""}},
	}
	for _, tt := range tests {
		got := NGrams(tt.token, tt.n)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("NGrams(%q, %d) = %v, want %v", tt.token, tt.n, got, tt.want)
		}
	}
}
