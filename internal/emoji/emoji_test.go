package emoji

import "testing"

func TestGetEmoji(t *testing.T) {
	t.Cleanup(func() { SetEmojiDisabled(false) })

	SetEmojiDisabled(false)
	if got := GetEmoji("model"); got != "🏆" {
		t.Errorf("Expected 🏆, got %s", got)
	}

	SetEmojiDisabled(true)
	if !IsEmojiDisabled() {
		t.Error("Expected emoji to be disabled")
	}
	if got := GetEmoji("model"); got != "[MODEL]" {
		t.Errorf("Expected [MODEL], got %s", got)
	}
	if got := Prefix("explain"); got != "[SHAP] " {
		t.Errorf("Expected '[SHAP] ', got '%s'", got)
	}
}

func TestGetEmojiUnknownKey(t *testing.T) {
	if got := GetEmoji("does-not-exist"); got != "[?]" {
		t.Errorf("Expected [?], got %s", got)
	}
}
