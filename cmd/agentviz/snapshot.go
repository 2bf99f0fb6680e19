package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aixgo-dev/agentviz"
	"github.com/aixgo-dev/agentviz/internal/render"
	"github.com/aixgo-dev/agentviz/internal/snapshot"
	"github.com/aixgo-dev/agentviz/pkg/config"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch the agents once and print the graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return printSnapshot(cmd.Context(), cfg, newBackendClient(cfg), os.Stdout, jsonOutput)
	},
}

func printSnapshot(ctx context.Context, cfg *config.Config, source snapshot.Source, w io.Writer, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	viewer, err := agentviz.New(cfg, agentviz.Options{Source: source})
	if err != nil {
		return err
	}
	if err := viewer.FetchAndRenderAgents(ctx); err != nil {
		return err
	}

	data := viewer.Data()
	if !asJSON {
		_, err := io.WriteString(w, render.FormatTree(data))
		return err
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling graph: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
