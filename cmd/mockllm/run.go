package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/uigen/go-llm/pkg/editor"
	"github.com/uigen/go-llm/pkg/llm"
)

const defaultMaxSteps = 10

func newRunCommand(source configSource) *cobra.Command {
	var (
		pacing   pacingFlags
		prompt   string
		stream   bool
		maxSteps int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the generation loop for a prompt and print the resulting files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := pacing.client(source)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			tree := editor.NewFileTree()
			if err := runLoop(cmd.Context(), cmd.OutOrStdout(), client, tree, prompt, stream, maxSteps); err != nil {
				return err
			}
			printFiles(cmd.OutOrStdout(), tree)
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "what to build, e.g. \"a contact form\"")
	cmd.Flags().BoolVar(&stream, "stream", false, "use the streaming API and print text as it arrives")
	cmd.Flags().IntVar(&maxSteps, "max-steps", defaultMaxSteps, "maximum number of model turns")
	pacing.register(cmd)
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

// runLoop calls the model, applies its tool calls to tree and feeds the
// results back until the model stops asking for tools.
func runLoop(ctx context.Context, out io.Writer, client llm.Client, tree *editor.FileTree, prompt string, stream bool, maxSteps int) error {
	tool, err := editorTool()
	if err != nil {
		return err
	}

	history := []llm.Message{llm.NewTextMessage(llm.RoleUser, prompt)}
	for step := 0; step < maxSteps; step++ {
		req := llm.ChatRequest{
			Messages: history,
			Tools:    []llm.Tool{tool},
			Stream:   stream,
		}

		var resp *llm.ChatResponse
		if stream {
			resp, err = streamTurn(ctx, out, client, req)
		} else {
			resp, err = client.ChatCompletion(ctx, req)
			if err == nil {
				_, _ = fmt.Fprint(out, resp.Text())
			}
		}
		if err != nil {
			return fmt.Errorf("turn %d: %w", step+1, err)
		}
		_, _ = fmt.Fprintln(out)

		if len(resp.Choices) == 0 {
			return fmt.Errorf("turn %d: empty response", step+1)
		}
		history = append(history, resp.Choices[0].Message)

		if !resp.RequiresToolExecution() {
			return nil
		}
		for _, call := range resp.GetToolCalls() {
			result := applyToolCall(tree, call)
			_, _ = fmt.Fprintf(out, "  [%s] %s\n", call.Function.Name, result)
			history = append(history, llm.NewToolResultMessage(call.ID, result))
		}
	}

	return fmt.Errorf("no final answer after %d turns", maxSteps)
}

// applyToolCall runs one editor call. Failures are reported back to the
// model as the tool result instead of ending the loop.
func applyToolCall(tree *editor.FileTree, call llm.ToolCall) string {
	cmd, err := editor.ParseCommand(call)
	if err != nil {
		return "Error: " + err.Error()
	}
	result, err := tree.Apply(cmd)
	if err != nil {
		return "Error: " + err.Error()
	}
	return result
}

// streamTurn prints text deltas as they arrive and returns the assembled response
func streamTurn(ctx context.Context, out io.Writer, client llm.Client, req llm.ChatRequest) (*llm.ChatResponse, error) {
	events, err := client.StreamChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	relay := make(chan llm.StreamEvent)
	go func() {
		defer close(relay)
		for event := range events {
			if text := event.Text(); text != "" {
				_, _ = fmt.Fprint(out, text)
			}
			select {
			case relay <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return llm.CollectStreamContext(ctx, relay)
}

func printFiles(out io.Writer, tree *editor.FileTree) {
	for _, path := range tree.Paths() {
		content, _ := tree.Read(path)
		_, _ = fmt.Fprintf(out, "\n=== %s ===\n%s\n", path, content)
	}
}

func editorTool() (llm.Tool, error) {
	tool, err := editor.Tool()
	if err != nil {
		return llm.Tool{}, fmt.Errorf("failed to build editor tool: %w", err)
	}
	return tool, nil
}
