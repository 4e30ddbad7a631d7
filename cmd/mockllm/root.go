package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/uigen/go-llm/pkg/factory"
	"github.com/uigen/go-llm/pkg/llm"
	"github.com/uigen/go-llm/pkg/providers/mock"
)

// configSource builds the client config; tests replace it
type configSource func() llm.ClientConfig

func newRootCommand() *cobra.Command {
	return newRootCommandWithSource(llm.GetLLMFromEnv)
}

func newRootCommandWithSource(source configSource) *cobra.Command {
	root := &cobra.Command{
		Use:           "mockllm",
		Short:         "Generate React components with the configured language model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCommand(source),
		newReplayCommand(source),
		newProvidersCommand(),
	)
	return root
}

// pacingFlags are shared by the commands that talk to a provider
type pacingFlags struct {
	realtime bool
	unitSize int
}

func (p *pacingFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&p.realtime, "realtime", false, "replay the mock with its original delays")
	cmd.Flags().IntVar(&p.unitSize, "unit-size", 1, "runes per mock text delta")
}

// client selects the provider, forwarding the pacing flags when it is the mock
func (p *pacingFlags) client(source configSource) (llm.Client, error) {
	config := source()
	if config.IsMock() {
		pace := "0"
		if p.realtime {
			pace = "1"
		}
		extra := map[string]string{}
		for k, v := range config.Extra {
			extra[k] = v
		}
		extra[mock.ExtraPace] = pace
		extra[mock.ExtraUnitSize] = strconv.Itoa(p.unitSize)
		config.Extra = extra
	}

	return factory.NewSelector(factory.WithConfigSource(func() llm.ClientConfig { return config })).Client()
}
