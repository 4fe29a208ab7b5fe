package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowkit-dev/flowkit/pkg/log"
	"github.com/flowkit-dev/flowkit/pkg/models"
	"github.com/flowkit-dev/flowkit/pkg/parser"
	"github.com/flowkit-dev/flowkit/pkg/versioning"
)

// NewValidateCommand validates one or more workflow document files and
// prints every diagnostic. The exit code is nonzero when any file has
// errors.
func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate workflow document files",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Treat accumulated errors as fatal",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			files := command.Args().Slice()
			if len(files) == 0 {
				return fmt.Errorf("at least one workflow file is required")
			}

			p := parser.New(log.WithModule("parser"))
			strict := command.Bool("strict")
			failed := 0

			for _, file := range files {
				raw, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading %s: %w", file, err)
				}

				fmt.Printf("%s:\n", file)

				schemaDiags, err := parser.ValidateDocument(raw)
				if err != nil {
					fmt.Printf("  ❌ %v\n", err)

					failed++

					continue
				}

				for _, diag := range schemaDiags {
					fmt.Printf("  %s\n", diag)
				}

				parsed, diags, err := p.Parse(raw, strict)
				for _, diag := range diags {
					fmt.Printf("  %s\n", diag)
				}

				if err != nil {
					fmt.Printf("  ❌ INVALID: %v\n", err)

					failed++

					continue
				}

				if parser.HasErrors(diags) {
					failed++
				} else {
					fmt.Printf("  ✅ VALID: %d node(s), %d trigger(s), execution order: %v\n",
						len(parsed.Nodes), len(parsed.TriggerNodes), parsed.ExecutionOrder)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed validation", failed, len(files))
			}

			return nil
		},
	}
}

// NewDiffCommand prints the unified diff and change summary between two
// workflow document files.
func NewDiffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Compare two workflow document files",
		ArgsUsage: "FILE_A FILE_B",
		Action: func(ctx context.Context, command *cli.Command) error {
			args := command.Args().Slice()
			if len(args) != 2 {
				return fmt.Errorf("expected exactly two workflow files")
			}

			a, err := readWorkflow(args[0])
			if err != nil {
				return err
			}

			b, err := readWorkflow(args[1])
			if err != nil {
				return err
			}

			diff, err := versioning.GenerateDiff(a, b, args[0], args[1])
			if err != nil {
				return err
			}

			if diff == "" {
				fmt.Println("No semantic differences.")

				return nil
			}

			fmt.Print(diff)

			changes := versioning.DetectChanges(a, b)
			fmt.Printf("\nNodes added: %v\n", changes.NodesAdded)
			fmt.Printf("Nodes removed: %v\n", changes.NodesRemoved)
			fmt.Printf("Nodes modified: %v\n", changes.NodesModified)
			fmt.Printf("Connections changed: %v\n", changes.ConnectionsChanged)
			fmt.Printf("Settings changed: %v\n", changes.SettingsChanged)
			fmt.Printf("Suggested bump: %s\n", versioning.SuggestVersionBump(a, b))

			return nil
		},
	}
}

// NewBumpCommand creates a bumped version of a workflow file inside a
// history file.
func NewBumpCommand() *cli.Command {
	return &cli.Command{
		Name:      "bump",
		Usage:     "Store a bumped version snapshot of a workflow file",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "history",
				Usage:    "Path of the version-history file",
				Required: true,
				Sources:  cli.EnvVars("HISTORY_PATH"),
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "Bump type (major, minor, patch)",
				Value: "patch",
			},
			&cli.StringFlag{
				Name:  "workflow-id",
				Usage: "Workflow ID (defaults to the document id field)",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			args := command.Args().Slice()
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one workflow file")
			}

			wf, err := readWorkflow(args[0])
			if err != nil {
				return err
			}

			workflowID := command.String("workflow-id")
			if workflowID == "" {
				workflowID = wf.ID
			}

			if workflowID == "" {
				return fmt.Errorf("workflow has no id field; pass --workflow-id")
			}

			store := versioning.NewStore(versioning.WithLogger(log.WithModule("versioning")))

			historyPath := command.String("history")
			if err := store.LoadFromDisk(historyPath, false); err != nil && !versioning.IsHistoryNotFound(err) {
				return err
			}

			record, err := store.VersionBump(ctx, wf, versioning.BumpType(command.String("type")), workflowID)
			if err != nil {
				return err
			}

			if err := store.SaveToDisk(historyPath); err != nil {
				return err
			}

			fmt.Printf("Created version %s (%s) for workflow %s\n", record.Version, record.VersionID, workflowID)
			fmt.Printf("Checksum: %s\n", record.Checksum)

			return nil
		},
	}
}

// NewHistoryCommand lists the stored versions of a workflow from a history
// file, latest (by semver) last.
func NewHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "List stored versions of a workflow",
		ArgsUsage: "WORKFLOW_ID",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "history",
				Usage:    "Path of the version-history file",
				Required: true,
				Sources:  cli.EnvVars("HISTORY_PATH"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			args := command.Args().Slice()
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one workflow ID")
			}

			store := versioning.NewStore(versioning.WithLogger(log.WithModule("versioning")))
			if err := store.LoadFromDisk(command.String("history"), false); err != nil {
				return err
			}

			workflowID := args[0]

			history := store.Versions(workflowID)
			if len(history) == 0 {
				return fmt.Errorf("no versions stored for workflow %q", workflowID)
			}

			for _, record := range history {
				fmt.Printf("%-12s %s  %s\n", record.Version, record.CreatedAt.Format("2006-01-02 15:04:05"), shortChecksum(record.Checksum))

				for _, entry := range record.Changelog {
					fmt.Printf("             - %s\n", entry)
				}
			}

			if latest := store.Latest(workflowID); latest != nil {
				fmt.Printf("\nLatest: %s\n", latest.Version)
			}

			return nil
		},
	}
}

func shortChecksum(checksum string) string {
	if len(checksum) > 12 {
		return checksum[:12]
	}

	return checksum
}

func readWorkflow(path string) (*models.Workflow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var wf models.Workflow
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &wf, nil
}
