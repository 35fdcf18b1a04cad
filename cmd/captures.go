package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/josephlewis42/shellmock/core/match"
	"github.com/josephlewis42/shellmock/core/mock"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	colorNormal  = color.New(color.FgGreen, color.Bold)
	colorForward = color.New(color.FgBlue, color.Bold)
	colorSource  = color.New(color.FgCyan, color.Bold)
)

// newCapturesCmd lists the expectations registered for a command
func newCapturesCmd(opts *rootOptions) *cobra.Command {
	var (
		colorMode string
		asYAML    bool
	)

	cmd := &cobra.Command{
		Use:   "captures COMMAND",
		Short: "Show the expectations and replay cursors of a stubbed command.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := opts.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			backend, _, closer, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closer()

			captures, err := backend.LoadCaptures(args[0])
			if err != nil {
				return err
			}
			states, err := backend.LoadStates(args[0])
			if err != nil {
				return err
			}

			if asYAML {
				out, err := yaml.Marshal(map[string]interface{}{
					"captures": captures,
					"states":   states,
				})
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}

			switch colorMode {
			case colorAlways:
				setColor(true)
			case colorNever:
				setColor(false)
			case colorAuto:
			default:
				return fmt.Errorf("--color must be one of %s, %s, %s", colorAlways, colorAuto, colorNever)
			}

			return printCaptures(cmd.OutOrStdout(), captures, states)
		},
	}

	cmd.Flags().StringVar(&colorMode, "color", colorAuto, "colorize the output (always|auto|never)")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the raw records as YAML")

	return cmd
}

func setColor(enabled bool) {
	for _, c := range []*color.Color{colorNormal, colorForward, colorSource} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

func printCaptures(w io.Writer, captures []mock.Capture, states []mock.State) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, "#\tTYPE\tARGS\tSTDIN\tRESPONSE")
	for i, c := range captures {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			i,
			stubType(c.Action),
			matcher(c.ArgsMatchType, c.MatchArgs),
			matcher(c.StdinMatchType, c.MatchStdin),
			response(c.Action))
	}

	if len(states) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "NEXT\tARGS\tSTDIN")
		for _, s := range states {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", s.NextIdx, s.MatchArgs, s.MatchStdin)
		}
	}

	return tw.Flush()
}

func matcher(t match.Type, expected string) string {
	if expected == "" {
		return t.String()
	}
	return t.String() + " " + expected
}

func stubType(a mock.Action) string {
	switch a.(type) {
	case mock.Forward:
		return colorForward.Sprint(a.StubType())
	case mock.Source:
		return colorSource.Sprint(a.StubType())
	default:
		return colorNormal.Sprint(a.StubType())
	}
}

func response(a mock.Action) string {
	switch act := a.(type) {
	case mock.Forward:
		return "exec " + act.Script
	case mock.Source:
		return "source " + act.Script
	case mock.Output:
		status := "-"
		if act.Status != nil {
			status = fmt.Sprint(*act.Status)
		}
		output := "-"
		if act.Output != nil {
			output = fmt.Sprintf("%q", *act.Output)
		}
		return fmt.Sprintf("status %s output %s", status, output)
	default:
		return fmt.Sprintf("%T", a)
	}
}
