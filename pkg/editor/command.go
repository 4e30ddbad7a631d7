// Package editor defines the file-editing tool the component scripts call
// and an in-memory file tree that applies its commands.
package editor

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/uigen/go-llm/pkg/llm"
)

// ToolName is the name the editing tool is advertised and called under
const ToolName = "str_replace_editor"

// Supported commands
const (
	CommandCreate     = "create"
	CommandStrReplace = "str_replace"
)

// Command is the argument payload of a str_replace_editor tool call
type Command struct {
	Command  string `json:"command" required:"true" enum:"create,str_replace" description:"The edit to perform"`
	Path     string `json:"path" required:"true" description:"Absolute path of the file, e.g. /App.jsx"`
	FileText string `json:"file_text,omitempty" description:"Full content of the file to create"`
	OldStr   string `json:"old_str,omitempty" description:"Exact text to replace; must occur once"`
	NewStr   string `json:"new_str,omitempty" description:"Replacement text"`
}

// Create builds a create command
func Create(path, fileText string) Command {
	return Command{Command: CommandCreate, Path: path, FileText: fileText}
}

// StrReplace builds a str_replace command
func StrReplace(path, oldStr, newStr string) Command {
	return Command{Command: CommandStrReplace, Path: path, OldStr: oldStr, NewStr: newStr}
}

// Validate checks the fields each command needs
func (c Command) Validate() error {
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("path %q must be absolute", c.Path)
	}
	switch c.Command {
	case CommandCreate:
		return nil
	case CommandStrReplace:
		if c.OldStr == "" {
			return errors.New("str_replace requires old_str")
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", c.Command)
	}
}

var parametersSchema = sync.OnceValues(func() (map[string]any, error) {
	return llm.SchemaFromStructAsMap(Command{})
})

var compiledSchema = sync.OnceValues(func() (*llm.CompiledSchema, error) {
	schema, err := parametersSchema()
	if err != nil {
		return nil, err
	}
	return llm.CompileSchema(schema)
})

// Tool returns the definition of the editing tool for ChatRequest.Tools
func Tool() (llm.Tool, error) {
	schema, err := parametersSchema()
	if err != nil {
		return llm.Tool{}, fmt.Errorf("failed to build %s schema: %w", ToolName, err)
	}
	return llm.NewFunctionTool(
		ToolName,
		"Create files or replace an exact fragment of an existing file in the project's virtual file system.",
		schema,
	), nil
}

// ToolCall encodes c as a str_replace_editor tool call with the given id
func (c Command) ToolCall(id string) (llm.ToolCall, error) {
	return llm.NewToolCall(id, ToolName, c)
}

// ParseCommand validates a tool call against the tool schema and decodes it
func ParseCommand(call llm.ToolCall) (Command, error) {
	if call.Function.Name != ToolName {
		return Command{}, fmt.Errorf("tool call %s is for %q, not %s", call.ID, call.Function.Name, ToolName)
	}

	schema, err := compiledSchema()
	if err != nil {
		return Command{}, err
	}
	if err := schema.ValidateJSON([]byte(call.Function.Arguments)); err != nil {
		return Command{}, fmt.Errorf("tool call %s: %w", call.ID, err)
	}

	var cmd Command
	if err := call.DecodeArguments(&cmd); err != nil {
		return Command{}, err
	}
	if err := cmd.Validate(); err != nil {
		return Command{}, fmt.Errorf("tool call %s: %w", call.ID, err)
	}
	return cmd, nil
}
