package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/osaze/moneyflow/internal/engine"
	"github.com/osaze/moneyflow/internal/model"
	"github.com/osaze/moneyflow/internal/service"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage automation rules",
	}
	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesPauseCmd())
	cmd.AddCommand(rulesResumeCmd())
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesTemplatesCmd())
	return cmd
}

func rulesListCmd() *cobra.Command {
	var category string
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules sorted by priority",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter := service.RuleFilter{}
			if category != "" {
				c := model.RuleCategory(category)
				filter.Category = &c
			}
			if activeOnly {
				filter.IsActive = &activeOnly
			}

			rules, err := store.GetRules(ctx, filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PRIORITY\tID\tNAME\tCATEGORY\tTRIGGER\tACTIVE\tSTATUS\tRUNS")
			for _, r := range rules {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\t%s\t%d\n",
					r.Priority, r.ID, r.Name, r.Category, r.Trigger.Type,
					r.IsActive, r.Execution.Status, r.Execution.ExecutionCount)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active rules")
	return cmd
}

func rulesAddCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a rule from a JSON definition",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(file) // #nosec G304 -- user-supplied definition file
			if err != nil {
				return fmt.Errorf("failed to read rule file: %w", err)
			}

			var input engine.RuleInput
			if err := json.Unmarshal(data, &input); err != nil {
				return fmt.Errorf("failed to parse rule file: %w", err)
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng, err := buildEngine(store)
			if err != nil {
				return err
			}

			rule, err := eng.CreateRule(ctx, input)
			if err != nil {
				return err
			}

			cmd.Printf("Created rule %s (%s)\n", rule.ID, rule.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON rule definition file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func rulesPauseCmd() *cobra.Command {
	return toggleCmd("pause", "Pause a rule (stops scheduling without altering status)", false)
}

func rulesResumeCmd() *cobra.Command {
	return toggleCmd("resume", "Resume a paused rule", true)
}

func toggleCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <rule-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng, err := buildEngine(store)
			if err != nil {
				return err
			}

			rule, err := eng.UpdateRule(ctx, args[0], engine.RuleUpdate{IsActive: &active})
			if err != nil {
				return err
			}
			cmd.Printf("Rule %s active=%t\n", rule.ID, rule.IsActive)
			return nil
		},
	}
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete a rule and purge its pending schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng, err := buildEngine(store)
			if err != nil {
				return err
			}

			if err := eng.DeleteRule(ctx, args[0]); err != nil {
				return err
			}
			cmd.Printf("Deleted rule %s\n", args[0])
			return nil
		},
	}
}

func rulesTemplatesCmd() *cobra.Command {
	var install bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Show or install the predefined rule templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if !install {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "PRIORITY\tNAME\tCATEGORY\tTRIGGER\tACTION")
				for _, t := range model.Templates() {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
						t.Priority, t.Name, t.Category, t.Trigger.Type, t.Action.Type)
				}
				return w.Flush()
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng, err := buildEngine(store)
			if err != nil {
				return err
			}

			seeded, err := eng.SeedTemplates(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("Installed %d templates (inactive until enabled)\n", seeded)
			return nil
		},
	}

	cmd.Flags().BoolVar(&install, "install", false, "install templates as inactive rules")
	return cmd
}
