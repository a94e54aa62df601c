package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/crewline/internal/tools"
)

func TestPromptManager_Fragments(t *testing.T) {
	tempDir := t.TempDir()

	files := map[string]string{
		"format.md":     "Format Content",
		"preamble.md":   "Preamble Content",
		"guidelines.md": "Guidelines Content",
		"extra.md":      "Extra Content",
		"notes.txt":     "ignored",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644))
	}

	fragments, err := NewPromptManager(tempDir).Fragments()
	require.NoError(t, err)
	assert.Equal(t, []string{"Preamble Content", "Guidelines Content", "Format Content", "Extra Content"}, fragments)
}

func TestPromptManager_MissingDirectory(t *testing.T) {
	fragments, err := NewPromptManager(filepath.Join(t.TempDir(), "absent")).Fragments()
	require.NoError(t, err)
	assert.Empty(t, fragments)

	var pm *PromptManager
	fragments, err = pm.Fragments()
	require.NoError(t, err)
	assert.Empty(t, fragments)
}

func TestPromptManager_SystemPrompt(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "guidelines.md"), []byte("Be terse."), 0644))

	a, err := NewFactory(StaticBinder(&scriptedModel{})).Create(context.Background(), Spec{
		Role:      "Image Converter",
		Goal:      "Convert screenshots",
		Backstory: "You love pixels.",
		Tools:     []tools.Tool{&recordingTool{name: "convert_images"}},
	})
	require.NoError(t, err)

	prompt, err := NewPromptManager(tempDir).SystemPrompt(a)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "You are Image Converter. You love pixels."))
	assert.Contains(t, prompt, "- convert_images: records convert_images")
	assert.Less(t, strings.Index(prompt, "convert_images"), strings.Index(prompt, "Be terse."))
}
