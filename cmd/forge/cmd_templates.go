package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var templatesCategory string

// templatesCmd groups template inspection commands
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect the prompt template library",
}

// templatesListCmd lists registered templates
var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates, optionally filtered by category",
	Args:  cobra.NoArgs,
	RunE:  listTemplates,
}

// templatesShowCmd shows one template's variables and prompts
var templatesShowCmd = &cobra.Command{
	Use:   "show [template-id]",
	Short: "Show a template's variables and prompts",
	Args:  cobra.ExactArgs(1),
	RunE:  showTemplate,
}

func init() {
	templatesListCmd.Flags().StringVar(&templatesCategory, "category", "", "Only list templates in this category")
}

func listTemplates(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	list := a.registry.List()
	if templatesCategory != "" {
		list = a.registry.ListByCategory(templatesCategory)
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No templates found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tNAME\tREQUIRED")
	for _, t := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Category, t.Name, strings.Join(t.RequiredVariables(), ", "))
	}
	return w.Flush()
}

func showTemplate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.registry.Lookup(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", t.Name, t.ID)
	fmt.Fprintf(out, "Category: %s\n", t.Category)
	if t.Description != "" {
		fmt.Fprintf(out, "%s\n", t.Description)
	}

	fmt.Fprintln(out, "\nVariables:")
	for _, v := range t.Variables {
		marker := "optional"
		if v.Required {
			marker = "required"
		}
		line := fmt.Sprintf("  %-20s %-7s %s", v.Name, v.Type, marker)
		if v.Default != nil {
			line += fmt.Sprintf(" (default: %s)", v.Default.String())
		}
		if v.Description != "" {
			line += "  " + v.Description
		}
		fmt.Fprintln(out, line)
	}

	fmt.Fprintf(out, "\nSystem prompt:\n%s\n", t.SystemPrompt)
	fmt.Fprintf(out, "\nUser prompt:\n%s\n", t.UserPromptTemplate)
	if len(t.Examples) > 0 {
		fmt.Fprintf(out, "\nExamples: %d\n", len(t.Examples))
	}
	if t.Chainable && len(t.SuggestedNext) > 0 {
		fmt.Fprintf(out, "Suggested next: %s\n", strings.Join(t.SuggestedNext, ", "))
	}
	return nil
}
