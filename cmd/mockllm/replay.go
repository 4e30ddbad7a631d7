package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uigen/go-llm/pkg/llm"
)

func newReplayCommand(source configSource) *cobra.Command {
	var (
		pacing      pacingFlags
		historyPath string
		stream      bool
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Send a saved conversation and print the response as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(historyPath)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			var history []llm.Message
			if err := json.Unmarshal(data, &history); err != nil {
				return fmt.Errorf("failed to decode history %s: %w", historyPath, err)
			}

			client, err := pacing.client(source)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			tool, err := editorTool()
			if err != nil {
				return err
			}
			req := llm.ChatRequest{Messages: history, Tools: []llm.Tool{tool}, Stream: stream}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !stream {
				resp, err := client.ChatCompletion(cmd.Context(), req)
				if err != nil {
					return err
				}
				return enc.Encode(resp)
			}

			events, err := client.StreamChatCompletion(cmd.Context(), req)
			if err != nil {
				return err
			}
			for event := range events {
				if err := enc.Encode(event); err != nil {
					return err
				}
				if event.IsError() {
					return event.Error
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&historyPath, "history", "", "JSON file holding the message history")
	cmd.Flags().BoolVar(&stream, "stream", false, "print stream events instead of the buffered response")
	pacing.register(cmd)
	_ = cmd.MarkFlagRequired("history")

	return cmd
}
