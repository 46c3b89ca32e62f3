package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/quaestor/internal/interfaces"
)

func TestParseJSONBlock(t *testing.T) {
	type payload struct {
		Summary   string   `json:"summary"`
		Sentiment string   `json:"sentiment"`
		KeyPoints []string `json:"key_points"`
	}

	t.Run("plain JSON", func(t *testing.T) {
		var p payload
		err := ParseJSONBlock(`{"summary":"ok","sentiment":"positive","key_points":["a"]}`, &p)
		require.NoError(t, err)
		assert.Equal(t, "ok", p.Summary)
		assert.Equal(t, "positive", p.Sentiment)
	})

	t.Run("fenced JSON", func(t *testing.T) {
		var p payload
		text := "```json\n{\"summary\":\"fenced\",\"sentiment\":\"neutral\"}\n```"
		err := ParseJSONBlock(text, &p)
		require.NoError(t, err)
		assert.Equal(t, "fenced", p.Summary)
	})

	t.Run("JSON surrounded by prose", func(t *testing.T) {
		var p payload
		text := "Here is the analysis you asked for:\n{\"summary\":\"buried\"}\nLet me know if you need more."
		err := ParseJSONBlock(text, &p)
		require.NoError(t, err)
		assert.Equal(t, "buried", p.Summary)
	})

	t.Run("no JSON returns malformed output", func(t *testing.T) {
		var p payload
		err := ParseJSONBlock("I could not produce a structured answer.", &p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, interfaces.ErrMalformedOutput))
	})

	t.Run("invalid JSON returns malformed output", func(t *testing.T) {
		var p payload
		err := ParseJSONBlock(`{"summary": "unterminated`, &p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, interfaces.ErrMalformedOutput))
	})
}
