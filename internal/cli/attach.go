package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/nodefields/api"
	"github.com/macropower/nodefields/pkg/config"
	"github.com/macropower/nodefields/pkg/fields"
	"github.com/macropower/nodefields/pkg/log"
	"github.com/macropower/nodefields/pkg/nodes"
	"github.com/macropower/nodefields/pkg/sink"
	"github.com/macropower/nodefields/pkg/watch"
)

const (
	cmdExamples = `  # Attach fields to every node in a YAML stream:
  nodefields attach -c nodefields.yaml nodes.yaml

  # Read nodes from stdin, using ./.nodefields.yaml or a parent directory's:
  cat nodes.yaml | nodefields attach -

  # Show what each node gained:
  nodefields attach nodes.yaml --diff

  # Print the ordered createNodeField calls:
  nodefields attach nodes.yaml --calls

  # Re-run whenever the configuration or input changes:
  nodefields attach nodes.yaml --watch`

	stdinPath = "-"
)

type AttachArgs struct {
	*RootArgs
	*ConfigArgs

	Inputs    []string
	Namespace string
	Diff      bool
	Calls     bool
	Watch     bool
}

func NewAttachArgs(rootArgs *RootArgs) *AttachArgs {
	return &AttachArgs{
		RootArgs:   rootArgs,
		ConfigArgs: &ConfigArgs{},
	}
}

func (aa *AttachArgs) AddFlags(cmd *cobra.Command) {
	aa.ConfigArgs.AddFlags(cmd)

	cmd.Flags().StringVar(&aa.Namespace, "namespace", sink.DefaultNamespace, "Node key the attached fields are merged under")
	cmd.Flags().BoolVar(&aa.Diff, "diff", false, "Print a unified diff per node instead of the nodes")
	cmd.Flags().BoolVar(&aa.Calls, "calls", false, "Print the createNodeField calls instead of the nodes")
	cmd.Flags().BoolVarP(&aa.Watch, "watch", "w", false, "Watch the configuration and inputs and re-run on change")

	cmd.MarkFlagsMutuallyExclusive("diff", "calls")
}

func NewAttachCmd(aa *AttachArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attach [nodes.yaml...]",
		Short:   "Attach fields to a stream of YAML nodes",
		Example: cmdExamples,
		RunE: func(cmd *cobra.Command, args []string) error {
			aa.Inputs = args
			if len(aa.Inputs) == 0 {
				aa.Inputs = []string{stdinPath}
			}

			return runAttach(cmd, aa)
		},
	}
	aa.AddFlags(cmd)

	return cmd
}

func runAttach(cmd *cobra.Command, aa *AttachArgs) error {
	ctx := commandContext(cmd)

	configPath, err := aa.Resolve()
	if err != nil {
		return err
	}

	stdin, err := readStdin(cmd, aa.Inputs)
	if err != nil {
		return err
	}

	run := func(ctx context.Context) error {
		return attachOnce(ctx, cmd.OutOrStdout(), aa, configPath, stdin)
	}

	err = run(ctx)
	if !aa.Watch {
		return err
	}

	if err != nil {
		slog.Error("attach", slog.Any("error", err))
	}

	watched := []string{configPath}
	for _, in := range aa.Inputs {
		if in != stdinPath {
			watched = append(watched, in)
		}
	}

	w, err := watch.New(watched, func(ctx context.Context, path string) {
		log.WithContext(ctx).InfoContext(ctx, "re-running", slog.String("changed", path))

		err := run(ctx)
		if err != nil {
			log.WithContext(ctx).ErrorContext(ctx, "attach", slog.Any("error", err))
		}
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	defer func() {
		err := w.Close()
		if err != nil {
			slog.Error("close watcher", slog.Any("error", err))
		}
	}()

	slog.Info("watching for changes", slog.Any("paths", watched))

	return w.Run(ctx) //nolint:wrapcheck // Already wrapped.
}

func readStdin(cmd *cobra.Command, inputs []string) ([]byte, error) {
	for _, in := range inputs {
		if in != stdinPath {
			continue
		}

		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return b, nil
	}

	return nil, nil
}

func attachOnce(ctx context.Context, w io.Writer, aa *AttachArgs, configPath string, stdin []byte) error {
	ctx, span := otel.Tracer("github.com/macropower/nodefields/internal/cli").Start(ctx, "attach",
		trace.WithAttributes(
			attribute.String("config", configPath),
			attribute.StringSlice("inputs", aa.Inputs),
		),
	)
	defer span.End()

	cfg, err := config.LoadFile(configPath, config.WithColor(isTerminal(w)))
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped with the path.
	}

	input, err := readNodes(aa.Inputs, stdin)
	if err != nil {
		return err
	}

	p := nodes.NewProcessor(cfg.Descriptors(),
		nodes.WithAttacher(cfg.NewAttacher(fields.WithLogger(log.WithContext(ctx)))),
		nodes.WithContext(cfg.Context()),
		nodes.WithNamespace(aa.Namespace),
	)

	results, err := p.ProcessAll(ctx, input)
	if err != nil {
		return fmt.Errorf("attach fields: %w", err)
	}

	switch {
	case aa.Calls:
		return writeCalls(w, results)
	case aa.Diff:
		return writeDiffs(w, results)
	}

	out := make([]fields.Node, 0, len(results))
	for _, r := range results {
		out = append(out, r.Output)
	}

	var buf bytes.Buffer

	err = nodes.Encode(&buf, out)
	if err != nil {
		return fmt.Errorf("encode nodes: %w", err)
	}

	return writeHighlighted(w, buf.String(), "yaml")
}

func readNodes(inputs []string, stdin []byte) ([]fields.Node, error) {
	all := []fields.Node{}

	for _, in := range inputs {
		var (
			data []byte
			err  error
		)

		if in == stdinPath {
			data = stdin
		} else {
			data, err = api.ReadFile(in)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", in, err)
			}
		}

		ns, err := nodes.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in, err)
		}

		all = append(all, ns...)
	}

	return all, nil
}

func writeCalls(w io.Writer, results []*nodes.Result) error {
	type call struct {
		Value any    `yaml:"value"`
		Name  string `yaml:"name"`
		Node  int    `yaml:"node"`
	}

	calls := []call{}
	for i, r := range results {
		for _, c := range r.Calls {
			calls = append(calls, call{Node: i, Name: c.Name, Value: c.Value})
		}
	}

	data, err := api.MarshalYAML(calls)
	if err != nil {
		return fmt.Errorf("encode calls: %w", err)
	}

	return writeHighlighted(w, string(data), "yaml")
}

func writeDiffs(w io.Writer, results []*nodes.Result) error {
	var buf bytes.Buffer

	for i, r := range results {
		diff, err := r.Diff(fmt.Sprintf("node %d", i))
		if err != nil {
			return fmt.Errorf("diff node %d: %w", i, err)
		}

		buf.WriteString(diff)
	}

	return writeHighlighted(w, buf.String(), "diff")
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isTerminalFd(f.Fd())
}
