package prompts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func samplePrompt(name string) Prompt {
	return Prompt{
		Prompt: PromptInfo{
			ID:                "p-" + FolderName(name),
			PromptName:        name,
			PromptDescription: "answers tickets",
		},
		PromptVersion: Version{
			ModelPrompt: "You are a support agent.",
			UserPrompt:  "Ticket: {{ticket}}",
		},
		Variables: []Variable{{VariableName: "ticket", VariableType: VariableString}},
	}
}

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) SavedPrompts(ctx context.Context) ([]Prompt, error) {
	args := m.Called(ctx)
	prompts, _ := args.Get(0).([]Prompt)
	return prompts, args.Error(1)
}

func (m *mockRemote) UpdatePrompts(ctx context.Context, prompts []Prompt) ([]Prompt, error) {
	args := m.Called(ctx, prompts)
	out, _ := args.Get(0).([]Prompt)
	return out, args.Error(1)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestWorkspace_Init(t *testing.T) {
	ws := NewWorkspace(t.TempDir())

	created, err := ws.Init()
	require.NoError(t, err)
	assert.True(t, created)
	assert.DirExists(t, ws.Dir())

	created, err = ws.Init()
	require.NoError(t, err)
	assert.False(t, created)
}

func TestWorkspace_SyncWritesLayout(t *testing.T) {
	root := t.TempDir()
	ws := NewWorkspace(root)

	res, err := ws.Sync([]Prompt{samplePrompt("Support Bot")}, false)
	require.NoError(t, err)
	assert.True(t, res.Initialized)
	assert.Equal(t, 1, res.Written)

	dir := filepath.Join(root, "lytix-prompts", "Support_Bot")
	assert.Equal(t, "You are a support agent.", readFile(t, filepath.Join(dir, "systemPrompt.txt")))
	assert.Equal(t, "Ticket: {{ticket}}", readFile(t, filepath.Join(dir, "userPrompt.txt")))

	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(dir, "prompt.json"))), &m))
	assert.Equal(t, Manifest{
		ID:                "p-Support_Bot",
		PromptName:        "Support Bot",
		PromptDescription: "answers tickets",
		Variables:         []LocalVariable{{Type: "STRING", Name: "ticket"}},
	}, m)
}

func TestWorkspace_SyncRemovesStaleFolders(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	_, err := ws.Sync([]Prompt{samplePrompt("Old"), samplePrompt("Kept")}, false)
	require.NoError(t, err)

	res, err := ws.Sync([]Prompt{samplePrompt("Kept")}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Old"}, res.Deleted)
	assert.NoDirExists(t, filepath.Join(ws.Dir(), "Old"))
	assert.DirExists(t, filepath.Join(ws.Dir(), "Kept"))
}

func TestWorkspace_SyncConflicts(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	_, err := ws.Sync([]Prompt{samplePrompt("Bot")}, false)
	require.NoError(t, err)

	userPrompt := filepath.Join(ws.Dir(), "Bot", "userPrompt.txt")
	require.NoError(t, os.WriteFile(userPrompt, []byte("edited"), 0o644))

	_, err = ws.Sync([]Prompt{samplePrompt("Bot")}, false)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	require.Len(t, conflict.Changes, 1)
	assert.Equal(t, Change{
		Prompt: "Bot",
		Path:   "promptVersion.userPrompt",
		Kind:   ChangeEdited,
		From:   "Ticket: {{ticket}}",
		To:     "edited",
	}, conflict.Changes[0])
	assert.Equal(t, "edited", readFile(t, userPrompt))

	_, err = ws.Sync([]Prompt{samplePrompt("Bot")}, true)
	require.NoError(t, err)
	assert.Equal(t, "Ticket: {{ticket}}", readFile(t, userPrompt))
}

func TestWorkspace_Diff(t *testing.T) {
	upstream := samplePrompt("Bot")

	tests := []struct {
		name    string
		edit    func(t *testing.T, dir string)
		reverse bool
		want    []Change
	}{
		{
			name: "no changes",
			edit: func(*testing.T, string) {},
		},
		{
			name: "missing prompt, reverse",
			edit: func(t *testing.T, dir string) {
				require.NoError(t, os.RemoveAll(dir))
			},
			reverse: true,
			want:    []Change{{Prompt: "Bot", Kind: ChangeDeleted, From: "New prompt"}},
		},
		{
			name: "missing prompt",
			edit: func(t *testing.T, dir string) {
				require.NoError(t, os.RemoveAll(dir))
			},
			want: []Change{{Prompt: "Bot", Kind: ChangeAdded, To: "New prompt"}},
		},
		{
			name: "system prompt edited",
			edit: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "systemPrompt.txt"), []byte("Be terse."), 0o644))
			},
			want: []Change{{
				Prompt: "Bot",
				Path:   "promptVersion.modelPrompt",
				Kind:   ChangeEdited,
				From:   "Be terse.",
				To:     "You are a support agent.",
			}},
		},
		{
			name: "variable added locally",
			edit: func(t *testing.T, dir string) {
				m := manifestOf(upstream)
				m.Variables = append(m.Variables, LocalVariable{Type: "NUMBER", Name: "priority"})
				b, err := json.Marshal(m)
				require.NoError(t, err)
				require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.json"), b, 0o644))
			},
			reverse: true,
			want: []Change{{
				Prompt: "Bot",
				Path:   "prompt.variables[1]",
				Kind:   ChangeAdded,
				To:     LocalVariable{Type: "NUMBER", Name: "priority"},
			}},
		},
		{
			name: "description edited",
			edit: func(t *testing.T, dir string) {
				m := manifestOf(upstream)
				m.PromptDescription = "new"
				b, err := json.Marshal(m)
				require.NoError(t, err)
				require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.json"), b, 0o644))
			},
			reverse: true,
			want: []Change{{
				Prompt: "Bot",
				Path:   "prompt.promptDescription",
				Kind:   ChangeEdited,
				From:   "answers tickets",
				To:     "new",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := NewWorkspace(t.TempDir())
			_, err := ws.Sync([]Prompt{upstream}, false)
			require.NoError(t, err)

			tt.edit(t, filepath.Join(ws.Dir(), "Bot"))

			got, err := ws.Diff([]Prompt{upstream}, tt.reverse)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWorkspace_DiffCorruptManifest(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	_, err := ws.Sync([]Prompt{samplePrompt("Bot")}, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(ws.Dir(), "Bot", "prompt.json"), []byte("{"), 0o644))

	_, err = ws.Diff([]Prompt{samplePrompt("Bot")}, true)
	assert.ErrorContains(t, err, "parse prompt.json for Bot")
}

func TestWorkspace_Collect(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	_, err := ws.Sync([]Prompt{samplePrompt("Bot")}, false)
	require.NoError(t, err)

	m := manifestOf(samplePrompt("Bot"))
	m.Variables = []LocalVariable{{Type: "number", Name: "count"}}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(ws.Dir(), "Bot", "prompt.json"), b, 0o644))

	got, err := ws.Collect([]Prompt{samplePrompt("Bot"), samplePrompt("Remote Only")})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []Variable{{VariableName: "count", VariableType: VariableNumber}}, got[0].Variables)
	assert.Equal(t, "You are a support agent.", got[0].PromptVersion.ModelPrompt)
}

func TestWorkspace_CollectInvalidVariable(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	_, err := ws.Sync([]Prompt{samplePrompt("Bot")}, false)
	require.NoError(t, err)

	m := manifestOf(samplePrompt("Bot"))
	m.Variables = []LocalVariable{{Type: "DATE", Name: "when"}}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(ws.Dir(), "Bot", "prompt.json"), b, 0o644))

	_, err = ws.Collect([]Prompt{samplePrompt("Bot")})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Bot", verr.Prompt)
}

func TestWorkspace_Commit(t *testing.T) {
	ctx := context.Background()
	upstream := samplePrompt("Bot")

	ws := NewWorkspace(t.TempDir())
	_, err := ws.Sync([]Prompt{upstream}, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(ws.Dir(), "Bot", "userPrompt.txt"), []byte("v2"), 0o644))

	committed := samplePrompt("Bot")
	committed.PromptVersion.UserPrompt = "v2"

	remote := &mockRemote{}
	remote.On("SavedPrompts", ctx).Return([]Prompt{upstream}, nil)
	remote.On("UpdatePrompts", ctx, mock.MatchedBy(func(ps []Prompt) bool {
		return len(ps) == 1 && ps[0].PromptVersion.UserPrompt == "v2"
	})).Return([]Prompt{committed}, nil)

	res, err := ws.Commit(ctx, remote)
	require.NoError(t, err)
	assert.Len(t, res.Changes, 1)
	assert.Equal(t, []Prompt{committed}, res.Committed)
	remote.AssertExpectations(t)

	changes, err := ws.Diff([]Prompt{committed}, true)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestWorkspace_CommitNoChanges(t *testing.T) {
	ctx := context.Background()
	ws := NewWorkspace(t.TempDir())
	_, err := ws.Sync([]Prompt{samplePrompt("Bot")}, false)
	require.NoError(t, err)

	remote := &mockRemote{}
	remote.On("SavedPrompts", ctx).Return([]Prompt{samplePrompt("Bot")}, nil)

	res, err := ws.Commit(ctx, remote)
	require.NoError(t, err)
	assert.Empty(t, res.Changes)
	remote.AssertNotCalled(t, "UpdatePrompts", mock.Anything, mock.Anything)
}

func TestWorkspace_CommitNothingLocal(t *testing.T) {
	ctx := context.Background()
	ws := NewWorkspace(t.TempDir())

	remote := &mockRemote{}
	remote.On("SavedPrompts", ctx).Return([]Prompt{samplePrompt("Bot")}, nil)

	res, err := ws.Commit(ctx, remote)
	assert.ErrorIs(t, err, ErrNothingToCommit)
	assert.Len(t, res.Changes, 1)
}

func TestWriteDiff(t *testing.T) {
	var buf bytes.Buffer
	WriteDiff(&buf, []Change{
		{Prompt: "Bot", Path: "promptVersion.userPrompt", Kind: ChangeEdited, From: "a", To: "b"},
		{Prompt: "Other", Kind: ChangeAdded, To: "New prompt"},
	})

	out := buf.String()
	assert.Contains(t, out, "Changes for prompt: Bot\n")
	assert.Contains(t, out, "~ Bot.promptVersion.userPrompt:\n-  \"a\"\n+  \"b\"\n")
	assert.Contains(t, out, "+ Other: \"New prompt\"\n")
	assert.Contains(t, out, "─")
}
