// Package prompts keeps a local folder of saved prompts in step with the
// prompts stored in Lytix.
package prompts

import (
	"errors"
	"fmt"
	"strings"
)

// VariableType is the declared type of a prompt template variable.
type VariableType string

const (
	VariableString  VariableType = "STRING"
	VariableNumber  VariableType = "NUMBER"
	VariableBoolean VariableType = "BOOLEAN"
)

// Prompt is a saved prompt as the API returns and accepts it.
type Prompt struct {
	Prompt        PromptInfo `json:"prompt"`
	PromptVersion Version    `json:"promptVersion"`
	Variables     []Variable `json:"variables"`
}

type PromptInfo struct {
	ID                string `json:"id,omitempty"`
	PromptName        string `json:"promptName"`
	PromptDescription string `json:"promptDescription"`
}

// Version holds the prompt texts. ModelPrompt is the system prompt.
type Version struct {
	ModelPrompt string `json:"modelPrompt"`
	UserPrompt  string `json:"userPrompt"`
}

type Variable struct {
	VariableName string       `json:"variableName"`
	VariableType VariableType `json:"variableType"`
}

// Manifest is the prompt.json file kept in each prompt folder.
type Manifest struct {
	ID                string          `json:"id,omitempty"`
	PromptName        string          `json:"promptName"`
	PromptDescription string          `json:"promptDescription"`
	Variables         []LocalVariable `json:"variables"`
}

// LocalVariable is a variable as written in prompt.json.
type LocalVariable struct {
	Type string `json:"type" validate:"required,variabletype"`
	Name string `json:"name" validate:"required,variablename"`
}

func manifestOf(p Prompt) Manifest {
	vars := make([]LocalVariable, 0, len(p.Variables))
	for _, v := range p.Variables {
		vars = append(vars, LocalVariable{Type: string(v.VariableType), Name: v.VariableName})
	}
	return Manifest{
		ID:                p.Prompt.ID,
		PromptName:        p.Prompt.PromptName,
		PromptDescription: p.Prompt.PromptDescription,
		Variables:         vars,
	}
}

// ChangeKind classifies a Change.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "N"
	ChangeDeleted ChangeKind = "D"
	ChangeEdited  ChangeKind = "E"
)

// Change is one difference between a local prompt and its upstream copy.
// Path is relative to the prompt, empty when the whole prompt differs.
type Change struct {
	Prompt string
	Path   string
	Kind   ChangeKind
	From   any
	To     any
}

// FullPath joins the prompt name and the path.
func (c Change) FullPath() string {
	if c.Path == "" {
		return c.Prompt
	}
	return c.Prompt + "." + c.Path
}

// ErrMissingAPIKey is returned when no Lytix API key is configured.
var ErrMissingAPIKey = errors.New("LX_API_KEY is not set")

// ConflictError is returned by Sync when local edits would be overwritten.
type ConflictError struct {
	Changes []Change
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%d local change(s) would be overwritten; commit them or sync with force", len(e.Changes))
}

// ValidationError reports an invalid local prompt.
type ValidationError struct {
	Prompt string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("error validating variables passed into: %s: %s", e.Prompt, e.Reason)
}

// FolderName maps a prompt name to its folder name.
func FolderName(promptName string) string {
	return strings.ReplaceAll(promptName, " ", "_")
}
