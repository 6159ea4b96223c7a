package relevance

import (
	"context"
	"testing"

	"github.com/vietyenltd/healthdesk/app/config"
	"github.com/vietyenltd/healthdesk/app/llm"
)

type fakeCompleter struct {
	answer string
	err    error
	calls  int
}

func (f *fakeCompleter) Complete(_ context.Context, _ llm.Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func testConfig(aiEnabled bool) *config.Config {
	return &config.Config{
		Keywords: []string{"khô mắt", "sức khỏe", "điều trị"},
		AICheck: config.AICheck{
			Enabled:   aiEnabled,
			Model:     "gpt-4o-mini",
			Threshold: 0.5,
		},
	}
}

func TestGate_Run_KeywordOnly(t *testing.T) {
	gate := NewGate(testConfig(false), nil)

	ok, _ := gate.Run(context.Background(), "Khô mắt ở người dùng máy tính", "Triệu chứng thường gặp")
	if !ok {
		t.Error("Expected item with domain keyword to pass")
	}

	ok, reason := gate.Run(context.Background(), "Giá vàng hôm nay", "Thị trường biến động")
	if ok {
		t.Error("Expected item without domain keyword to be rejected")
	}
	if reason == "" {
		t.Error("Expected a rejection reason")
	}
}

func TestGate_Run_KeywordMatchIsCaseInsensitive(t *testing.T) {
	gate := NewGate(testConfig(false), nil)

	ok, _ := gate.Run(context.Background(), "SỨC KHỎE cộng đồng", "")
	if !ok {
		t.Error("Expected case-insensitive keyword match to pass")
	}
}

func TestGate_Run_ClassifierNotConsultedWithoutKeyword(t *testing.T) {
	completer := &fakeCompleter{answer: "Y"}
	gate := NewGate(testConfig(true), completer)

	ok, _ := gate.Run(context.Background(), "Giá vàng hôm nay", "Thị trường biến động")
	if ok {
		t.Error("Expected rejection: keyword tier gates the classifier (AND policy)")
	}
	if completer.calls != 0 {
		t.Errorf("Expected no classifier call for keyword-rejected item, got %d", completer.calls)
	}
}

func TestGate_Run_ClassifierDecides(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		expected bool
	}{
		{"yes answer", "Y", true},
		{"verbose yes", "Yes, this is health related.", true},
		{"no answer", "N", false},
		{"probability above threshold", "0.9", true},
		{"probability below threshold", "0.2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{answer: tt.answer}
			gate := NewGate(testConfig(true), completer)

			ok, _ := gate.Run(context.Background(), "Điều trị khô mắt", "Nội dung bài viết")
			if ok != tt.expected {
				t.Errorf("Expected %v for answer %q, got %v", tt.expected, tt.answer, ok)
			}
			if completer.calls != 1 {
				t.Errorf("Expected exactly one classifier call, got %d", completer.calls)
			}
		})
	}
}

func TestGate_Run_ClassifierFailureFallsBackToKeywordResult(t *testing.T) {
	completer := &fakeCompleter{err: llm.Unavailable("request failed", nil)}
	gate := NewGate(testConfig(true), completer)

	ok, _ := gate.Run(context.Background(), "Điều trị khô mắt", "Nội dung")
	if !ok {
		t.Error("Expected keyword result to stand when the classifier is unavailable")
	}
}

func TestGate_Run_UnparseableAnswerFallsBack(t *testing.T) {
	completer := &fakeCompleter{answer: "có thể"}
	gate := NewGate(testConfig(true), completer)

	ok, _ := gate.Run(context.Background(), "Điều trị khô mắt", "Nội dung")
	if !ok {
		t.Error("Expected keyword result to stand for an unparseable classifier answer")
	}
}

func TestGate_Run_EnabledWithoutCompleterUsesKeywords(t *testing.T) {
	gate := NewGate(testConfig(true), nil)

	ok, _ := gate.Run(context.Background(), "Điều trị khô mắt", "Nội dung")
	if !ok {
		t.Error("Expected keyword-only result when no credential is configured")
	}
}
