package prompts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirName is the folder prompts are kept in, relative to the project root.
const DirName = "lytix-prompts"

const (
	manifestFile     = "prompt.json"
	systemPromptFile = "systemPrompt.txt"
	userPromptFile   = "userPrompt.txt"
)

// ErrNothingToCommit is returned by Commit when upstream differs but no
// local prompt folder can be sent.
var ErrNothingToCommit = errors.New("no changes to commit")

// Remote is the upstream prompt store.
type Remote interface {
	SavedPrompts(ctx context.Context) ([]Prompt, error)
	UpdatePrompts(ctx context.Context, prompts []Prompt) ([]Prompt, error)
}

var _ Remote = (*Client)(nil)

// Workspace is the lytix-prompts folder under a project root. Each prompt
// lives in <FolderName>/ as prompt.json, systemPrompt.txt and userPrompt.txt.
type Workspace struct {
	dir string
}

// NewWorkspace returns the workspace under root.
func NewWorkspace(root string) *Workspace {
	return &Workspace{dir: filepath.Join(root, DirName)}
}

// Dir returns the prompts folder.
func (w *Workspace) Dir() string {
	return w.dir
}

func (w *Workspace) promptDir(name string) string {
	return filepath.Join(w.dir, FolderName(name))
}

// Init creates the prompts folder and reports whether it had to.
func (w *Workspace) Init() (bool, error) {
	if _, err := os.Stat(w.dir); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return false, fmt.Errorf("create prompts folder: %w", err)
	}
	return true, nil
}

// SyncResult describes what Sync did.
type SyncResult struct {
	Initialized bool
	Deleted     []string
	Written     int
}

// Sync replaces the local prompts with prompts. Folders with no upstream
// prompt are removed. Unless force is set, local edits stop the sync with
// a *ConflictError before anything is written.
func (w *Workspace) Sync(prompts []Prompt, force bool) (*SyncResult, error) {
	created, err := w.Init()
	if err != nil {
		return nil, err
	}
	res := &SyncResult{Initialized: created}

	if !created && !force {
		changes, err := w.Diff(prompts, true)
		if err != nil {
			return nil, err
		}
		if len(changes) > 0 {
			return nil, &ConflictError{Changes: changes}
		}
	}

	upstream := make(map[string]bool, len(prompts))
	for _, p := range prompts {
		upstream[FolderName(p.Prompt.PromptName)] = true
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("list prompts folder: %w", err)
	}
	for _, e := range entries {
		if upstream[e.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(w.dir, e.Name())); err != nil {
			return nil, fmt.Errorf("remove %s: %w", e.Name(), err)
		}
		res.Deleted = append(res.Deleted, e.Name())
	}

	for _, p := range prompts {
		if err := w.write(p); err != nil {
			return nil, err
		}
		res.Written++
	}
	return res, nil
}

func (w *Workspace) write(p Prompt) error {
	dir := w.promptDir(p.Prompt.PromptName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prompt folder: %w", err)
	}

	manifest, err := json.MarshalIndent(manifestOf(p), "", "  ")
	if err != nil {
		return err
	}

	files := map[string][]byte{
		manifestFile:     manifest,
		systemPromptFile: []byte(p.PromptVersion.ModelPrompt),
		userPromptFile:   []byte(p.PromptVersion.UserPrompt),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s for %s: %w", name, p.Prompt.PromptName, err)
		}
	}
	return nil
}

type localPrompt struct {
	manifest     Manifest
	systemPrompt string
	userPrompt   string
}

// read loads the local copy of the prompt called name. ok is false when the
// prompt has no folder.
func (w *Workspace) read(name string) (lp localPrompt, ok bool, err error) {
	dir := w.promptDir(name)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return lp, false, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return lp, false, fmt.Errorf("read %s for %s: %w", manifestFile, name, err)
	}
	if err := json.Unmarshal(data, &lp.manifest); err != nil {
		return lp, false, fmt.Errorf("parse %s for %s: %w", manifestFile, name, err)
	}

	sys, err := os.ReadFile(filepath.Join(dir, systemPromptFile))
	if err != nil {
		return lp, false, fmt.Errorf("read %s for %s: %w", systemPromptFile, name, err)
	}
	user, err := os.ReadFile(filepath.Join(dir, userPromptFile))
	if err != nil {
		return lp, false, fmt.Errorf("read %s for %s: %w", userPromptFile, name, err)
	}
	lp.systemPrompt, lp.userPrompt = string(sys), string(user)
	return lp, true, nil
}

// Diff compares each upstream prompt with its local folder. With reverse
// set, changes read from upstream to local (what was edited locally);
// otherwise from local to upstream.
func (w *Workspace) Diff(prompts []Prompt, reverse bool) ([]Change, error) {
	var changes []Change
	for _, p := range prompts {
		name := p.Prompt.PromptName

		lp, ok, err := w.read(name)
		if err != nil {
			return nil, err
		}
		if !ok {
			if reverse {
				changes = append(changes, Change{Prompt: name, Kind: ChangeDeleted, From: "New prompt"})
			} else {
				changes = append(changes, Change{Prompt: name, Kind: ChangeAdded, To: "New prompt"})
			}
			continue
		}

		d := differ{prompt: name, reverse: reverse}
		up := manifestOf(p)
		d.value("prompt.id", up.ID, lp.manifest.ID)
		d.value("prompt.promptName", up.PromptName, lp.manifest.PromptName)
		d.value("prompt.promptDescription", up.PromptDescription, lp.manifest.PromptDescription)
		d.variables(up.Variables, lp.manifest.Variables)
		d.value("promptVersion.modelPrompt", p.PromptVersion.ModelPrompt, lp.systemPrompt)
		d.value("promptVersion.userPrompt", p.PromptVersion.UserPrompt, lp.userPrompt)
		changes = append(changes, d.changes...)
	}
	return changes, nil
}

type differ struct {
	prompt  string
	reverse bool
	changes []Change
}

// value records an edit when upstream and local differ.
func (d *differ) value(path string, upstream, local any) {
	if upstream == local {
		return
	}
	from, to := local, upstream
	if d.reverse {
		from, to = upstream, local
	}
	d.changes = append(d.changes, Change{Prompt: d.prompt, Path: path, Kind: ChangeEdited, From: from, To: to})
}

func (d *differ) variables(upstream, local []LocalVariable) {
	from, to := local, upstream
	if d.reverse {
		from, to = upstream, local
	}

	for i := 0; i < max(len(from), len(to)); i++ {
		path := fmt.Sprintf("prompt.variables[%d]", i)
		switch {
		case i >= len(from):
			d.changes = append(d.changes, Change{Prompt: d.prompt, Path: path, Kind: ChangeAdded, To: to[i]})
		case i >= len(to):
			d.changes = append(d.changes, Change{Prompt: d.prompt, Path: path, Kind: ChangeDeleted, From: from[i]})
		case from[i] != to[i]:
			d.changes = append(d.changes, Change{Prompt: d.prompt, Path: path, Kind: ChangeEdited, From: from[i], To: to[i]})
		}
	}
}

// Collect builds the update payload from the local folders of prompts.
// Prompts without a folder are skipped. Invalid variables fail with a
// *ValidationError.
func (w *Workspace) Collect(prompts []Prompt) ([]Prompt, error) {
	var out []Prompt
	for _, p := range prompts {
		lp, ok, err := w.read(p.Prompt.PromptName)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		vars := make([]Variable, 0, len(lp.manifest.Variables))
		for _, v := range lp.manifest.Variables {
			if err := ValidateVariable(v); err != nil {
				return nil, &ValidationError{Prompt: p.Prompt.PromptName, Reason: err.Error()}
			}
			vars = append(vars, Variable{
				VariableName: v.Name,
				VariableType: VariableType(strings.ToUpper(v.Type)),
			})
		}

		out = append(out, Prompt{
			Prompt: PromptInfo{
				ID:                lp.manifest.ID,
				PromptName:        lp.manifest.PromptName,
				PromptDescription: lp.manifest.PromptDescription,
			},
			PromptVersion: Version{
				ModelPrompt: lp.systemPrompt,
				UserPrompt:  lp.userPrompt,
			},
			Variables: vars,
		})
	}
	return out, nil
}

// CommitResult describes what Commit did. Changes is empty when local and
// upstream already match, in which case nothing was sent.
type CommitResult struct {
	Changes   []Change
	Committed []Prompt
}

// Commit pushes local edits upstream and then force-syncs the workspace
// with the prompts the remote returns.
func (w *Workspace) Commit(ctx context.Context, remote Remote) (*CommitResult, error) {
	upstream, err := remote.SavedPrompts(ctx)
	if err != nil {
		return nil, err
	}

	changes, err := w.Diff(upstream, false)
	if err != nil {
		return nil, err
	}
	res := &CommitResult{Changes: changes}
	if len(changes) == 0 {
		return res, nil
	}

	updated, err := w.Collect(upstream)
	if err != nil {
		return res, err
	}
	if len(updated) == 0 {
		return res, ErrNothingToCommit
	}

	committed, err := remote.UpdatePrompts(ctx, updated)
	if err != nil {
		return res, err
	}
	res.Committed = committed

	if _, err := w.Sync(committed, true); err != nil {
		return res, fmt.Errorf("sync committed prompts: %w", err)
	}
	return res, nil
}

// WriteDiff prints changes grouped by prompt in a git-like form.
func WriteDiff(out io.Writer, changes []Change) {
	var order []string
	grouped := map[string][]Change{}
	for _, c := range changes {
		if _, seen := grouped[c.Prompt]; !seen {
			order = append(order, c.Prompt)
		}
		grouped[c.Prompt] = append(grouped[c.Prompt], c)
	}

	for i, name := range order {
		if i > 0 {
			fmt.Fprintf(out, "\n%s\n\n", strings.Repeat("─", 40))
		}
		fmt.Fprintf(out, "Changes for prompt: %s\n\n", name)

		for _, c := range grouped[name] {
			switch c.Kind {
			case ChangeAdded:
				fmt.Fprintf(out, "+ %s: %s\n", c.FullPath(), jsonString(c.To))
			case ChangeDeleted:
				fmt.Fprintf(out, "- %s: %s\n", c.FullPath(), jsonString(c.From))
			case ChangeEdited:
				fmt.Fprintf(out, "~ %s:\n", c.FullPath())
				fmt.Fprintf(out, "-  %s\n", jsonString(c.From))
				fmt.Fprintf(out, "+  %s\n", jsonString(c.To))
			}
		}
	}
}

func jsonString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
