package core

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestNewUTF8Decoder(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("uuid,name")...),
			expected: "uuid,name",
		},
		{
			name:     "file without BOM",
			input:    []byte("uuid,name"),
			expected: "uuid,name",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "valid multibyte preserved",
			input:    []byte("Æther Vial,Lim-Dûl"),
			expected: "Æther Vial,Lim-Dûl",
		},
		{
			name:     "invalid byte replaced",
			input:    []byte{'h', 'e', 0x80, 'l', 'o'},
			expected: "he�lo",
		},
		{
			name:     "latin-1 byte replaced",
			input:    []byte("caf\xe9"),
			expected: "caf�",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewUTF8Decoder(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestCountingReader(t *testing.T) {
	input := strings.Repeat("x", 1000)
	reader := NewCountingReader(strings.NewReader(input), int64(len(input)))

	buf := make([]byte, 100)
	totalRead := 0
	for {
		n, err := reader.Read(buf)
		totalRead += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reader.Percent() > 100 {
			t.Fatalf("Percent = %d, exceeds 100", reader.Percent())
		}
	}

	if totalRead != len(input) {
		t.Errorf("total read = %d, want %d", totalRead, len(input))
	}
	if reader.BytesRead != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", reader.BytesRead, len(input))
	}
	if reader.Percent() != 100 {
		t.Errorf("Percent = %d, want 100", reader.Percent())
	}
}

func TestCountingReader_UnknownTotal(t *testing.T) {
	reader := NewCountingReader(strings.NewReader("abc"), 0)
	if _, err := io.ReadAll(reader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reader.Percent() != 0 {
		t.Errorf("Percent = %d, want 0 for unknown total", reader.Percent())
	}
}

func TestWrapForStreaming(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte{'h', 'e', 0x80, 'l', 'o'}...)

	decoded, counter := WrapForStreaming(bytes.NewReader(input), int64(len(input)))
	result, err := io.ReadAll(decoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(result) != "he�lo" {
		t.Errorf("got %q, want %q", string(result), "he�lo")
	}
	if counter.BytesRead != int64(len(input)) {
		t.Errorf("BytesRead = %d, want raw size %d", counter.BytesRead, len(input))
	}
}
