package notify

import (
	"strings"
	"testing"
	"unicode/utf8"

	"civicchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPreview_MediaKinds(t *testing.T) {
	assert.Equal(t, "[photo]", preview(&models.ChatMessage{Type: models.MessageTypeImage}))
	assert.Equal(t, "[voice message]", preview(&models.ChatMessage{Type: models.MessageTypeVoice}))
}

func TestPreview_ShortTextUnchanged(t *testing.T) {
	msg := &models.ChatMessage{Type: models.MessageTypeText, Content: "hello"}
	assert.Equal(t, "hello", preview(msg))
}

// TestPreview_TruncatesOnRuneBoundary: multibyte text must be cut between
// characters, never inside one.
func TestPreview_TruncatesOnRuneBoundary(t *testing.T) {
	msg := &models.ChatMessage{Type: models.MessageTypeText, Content: strings.Repeat("ব", 300)}

	got := preview(msg)

	assert.True(t, utf8.ValidString(got), "preview must stay valid UTF-8")
	assert.Equal(t, 201, utf8.RuneCountInString(got), "200 characters plus the ellipsis")
	assert.True(t, strings.HasSuffix(got, "…"))
}
