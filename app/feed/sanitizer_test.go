package feed

import (
	"strings"
	"testing"
)

func TestSanitizer_Run_EmptyInput(t *testing.T) {
	sanitizer := NewSanitizer()

	for _, input := range []string{"", "   ", "\n\n"} {
		text, img := sanitizer.Run(input)
		if text != "" {
			t.Errorf("Expected empty text for input %q, got %q", input, text)
		}
		if img != "" {
			t.Errorf("Expected no image for input %q, got %q", input, img)
		}
	}
}

func TestSanitizer_Run_StripsMarkup(t *testing.T) {
	sanitizer := NewSanitizer()

	inputs := []string{
		"<p>Triệu chứng khô mắt thường gặp ở dân văn phòng.</p>",
		"<div><script>alert('x')</script><p>Nội dung chính</p><style>p{color:red}</style></div>",
		"<p>đoạn một</p><p>đoạn hai</p><p>đoạn ba</p>",
		"plain text without markup",
		"<p>entities &lt;b&gt;bold&lt;/b&gt; survive as text</p>",
	}

	for _, input := range inputs {
		text, _ := sanitizer.Run(input)
		if strings.ContainsAny(text, "<>") {
			t.Errorf("Sanitized text contains angle brackets: %q -> %q", input, text)
		}
		if strings.Contains(text, "\n\n\n") {
			t.Errorf("Sanitized text contains a run of 3+ newlines: %q", text)
		}
	}
}

func TestSanitizer_Run_RemovesScriptContent(t *testing.T) {
	sanitizer := NewSanitizer()

	text, _ := sanitizer.Run("<p>Giữ lại</p><script>var secret = 42;</script>")
	if !strings.Contains(text, "Giữ lại") {
		t.Errorf("Expected paragraph text to survive, got %q", text)
	}
	if strings.Contains(text, "secret") {
		t.Errorf("Script content leaked into sanitized text: %q", text)
	}
}

func TestSanitizer_Run_PreservesParagraphBreaks(t *testing.T) {
	sanitizer := NewSanitizer()

	text, _ := sanitizer.Run("<p>đoạn một</p><p>đoạn hai</p>")
	if !strings.Contains(text, "đoạn một\n\nđoạn hai") {
		t.Errorf("Expected paragraph break between blocks, got %q", text)
	}
}

func TestSanitizer_Run_ExtractsFirstImage(t *testing.T) {
	sanitizer := NewSanitizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single image",
			input:    `<p>text</p><img src="https://cdn.example.com/a.jpg">`,
			expected: "https://cdn.example.com/a.jpg",
		},
		{
			name:     "first of several",
			input:    `<img src="https://cdn.example.com/first.jpg"><img src="https://cdn.example.com/second.jpg">`,
			expected: "https://cdn.example.com/first.jpg",
		},
		{
			name:     "uppercase attributes",
			input:    `<IMG SRC="https://cdn.example.com/upper.jpg">`,
			expected: "https://cdn.example.com/upper.jpg",
		},
		{
			name:     "no image",
			input:    "<p>no pictures here</p>",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, img := sanitizer.Run(tt.input)
			if img != tt.expected {
				t.Errorf("Expected image %q, got %q", tt.expected, img)
			}
		})
	}
}
