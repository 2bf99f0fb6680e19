package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/aixgo-dev/agentviz"
	"github.com/aixgo-dev/agentviz/internal/backend"
	"github.com/aixgo-dev/agentviz/internal/events"
	"github.com/aixgo-dev/agentviz/internal/render"
	"github.com/aixgo-dev/agentviz/internal/transcript"
)

var consoleCommands = []string{"refresh", "graph", "emphasize", "tools", "transcript", "help", "quit"}

// toolLister lists the tools the orchestrator can hand out.
type toolLister interface {
	Tools(ctx context.Context) ([]backend.Tool, error)
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive console over a live viewer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sub, err := events.NewSubscriber(cfg)
		if err != nil {
			return err
		}
		client := newBackendClient(cfg)
		viewer, err := agentviz.New(cfg, agentviz.Options{
			Source:     client,
			Subscriber: sub,
		})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := viewer.Run(ctx); err != nil {
				log.Printf("[Console] event stream stopped: %v", err)
			}
		}()

		return runConsole(ctx, viewer, client)
	},
}

func runConsole(ctx context.Context, viewer *agentviz.Viewer, tools toolLister) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) []string {
		var out []string
		for _, c := range consoleCommands {
			if strings.HasPrefix(c, strings.ToLower(input)) {
				out = append(out, c)
			}
		}
		return out
	})

	fmt.Println("agentviz console; type help for commands")
	for {
		input, err := line.Prompt("agentviz> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		quit, err := execConsole(ctx, viewer, tools, input, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stdout, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// execConsole runs one console command line. It reports whether the console
// should exit.
func execConsole(ctx context.Context, viewer *agentviz.Viewer, tools toolLister, input string, w io.Writer) (bool, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "refresh":
		if err := viewer.FetchAndRenderAgents(ctx); err != nil {
			return false, err
		}
		fmt.Fprint(w, render.FormatTree(viewer.Data()))
	case "graph":
		fmt.Fprint(w, render.FormatTree(viewer.Data()))
	case "emphasize":
		if len(fields) != 2 {
			return false, errors.New("usage: emphasize <agent-id>")
		}
		if !viewer.OnAgentTaskCompleted(fields[1]) {
			return false, fmt.Errorf("agent %s is not in the graph", fields[1])
		}
		fmt.Fprintf(w, "emphasized %s\n", fields[1])
	case "tools":
		list, err := tools.Tools(ctx)
		if err != nil {
			return false, err
		}
		for _, t := range list {
			fmt.Fprintf(w, "%-20s %s\n", t.Name, t.Description)
		}
	case "transcript":
		for _, e := range viewer.Transcript().Entries() {
			fmt.Fprintln(w, formatEntry(e))
		}
	case "help":
		fmt.Fprintln(w, "commands:")
		fmt.Fprintln(w, "  refresh              fetch agents and redraw")
		fmt.Fprintln(w, "  graph                print the current graph")
		fmt.Fprintln(w, "  emphasize <agent>    highlight the agent's edge")
		fmt.Fprintln(w, "  tools                list the orchestrator's tools")
		fmt.Fprintln(w, "  transcript           print the communication log")
		fmt.Fprintln(w, "  quit                 exit")
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	return false, nil
}

func formatEntry(e transcript.Entry) string {
	return fmt.Sprintf("%s [%s] %s", e.At.Format("15:04:05"), e.Direction, e.Text)
}
