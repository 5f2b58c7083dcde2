package services

import (
	"errors"
	"testing"
)

func TestNormalizeBrazilianPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"已含国家码", "5511987654321", "5511987654321"},
		{"裸DDD加9位号码", "11987654321", "5511987654321"},
		{"裸DDD加8位号码", "1187654321", "551187654321"},
		{"带格式符号", "+55 (11) 98765-4321", "5511987654321"},
		{"带空格和连字符", "11 98765-4321", "5511987654321"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBrazilianPhone(tt.input)
			if err != nil {
				t.Fatalf("NormalizeBrazilianPhone(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeBrazilianPhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeBrazilianPhoneInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"空号码", ""},
		{"太短", "12345"},
		{"太长", "551198765432109"},
		{"纯文字", "telefone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NormalizeBrazilianPhone(tt.input); !errors.Is(err, ErrInvalidPhone) {
				t.Errorf("NormalizeBrazilianPhone(%q): got %v, want ErrInvalidPhone", tt.input, err)
			}
		})
	}
}
