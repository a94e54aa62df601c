package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// PromptManager builds the prompts an agent is driven with. Optional
// markdown fragments from Directory are appended to the persona prompt.
type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

// fragmentOrder pins well-known fragments first; the rest follow by name.
var fragmentOrder = map[string]int{
	"preamble.md":   1,
	"guidelines.md": 2,
	"tools.md":      3,
	"format.md":     4,
}

// Fragments reads the prompt fragments. A missing directory yields none.
func (pm *PromptManager) Fragments() ([]string, error) {
	if pm == nil || pm.Directory == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(pm.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read prompts directory")
	}

	sort.Slice(entries, func(i, j int) bool {
		oi, okI := fragmentOrder[entries[i].Name()]
		oj, okJ := fragmentOrder[entries[j].Name()]
		if okI && okJ {
			return oi < oj
		}
		if okI != okJ {
			return okI
		}
		return entries[i].Name() < entries[j].Name()
	})

	var contents []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(pm.Directory, e.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read prompt file %s", e.Name())
		}
		if s := strings.TrimSpace(string(data)); s != "" {
			contents = append(contents, s)
		}
	}
	return contents, nil
}

// SystemPrompt renders the agent's persona followed by any fragments.
func (pm *PromptManager) SystemPrompt(a *Agent) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. %s\nYour personal goal is: %s", a.Role(), a.Backstory(), a.Goal())

	if len(a.tools) > 0 {
		b.WriteString("\n\nYou have access to the following tools:")
		for _, t := range a.tools {
			fmt.Fprintf(&b, "\n- %s: %s", t.Name(), t.Description())
		}
	}

	fragments, err := pm.Fragments()
	for _, f := range fragments {
		b.WriteString("\n\n---\n\n")
		b.WriteString(f)
	}
	return b.String(), err
}

// TaskPrompt renders the human turn for a task.
func TaskPrompt(t Task) string {
	return fmt.Sprintf("Current Task: %s\n\nThis is the expected criteria for your final answer: %s\nYou MUST return the actual complete content as the final answer, not a summary.",
		t.Description, t.ExpectedOutput)
}
