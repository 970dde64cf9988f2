package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// NewSpecCmd создаёт группу команд для управления документами развёртывания.
func NewSpecCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Manage deployment specs",
	}

	cmd.AddCommand(
		newSpecListCmd(clientFn, outputFn),
		newSpecCreateCmd(clientFn, outputFn),
		newSpecShowCmd(clientFn, outputFn),
		newSpecDeleteCmd(clientFn, outputFn),
		newSpecVersionsCmd(clientFn, outputFn),
		newSpecPushCmd(clientFn, outputFn),
	)

	return cmd
}

func newSpecListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all specs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			specs, err := client.ListSpecs()
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "CREATED"}
			rows := make([][]string, len(specs))
			for i, s := range specs {
				rows[i] = []string{s.ID, s.Name, s.CreatedAt}
			}

			out.Print(headers, rows, specs)
			return nil
		},
	}
}

func newSpecCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new spec",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			spec, err := client.CreateSpec(name)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Spec created: %s", spec.ID))
			out.Print(
				[]string{"ID", "NAME", "CREATED"},
				[][]string{{spec.ID, spec.Name, spec.CreatedAt}},
				spec,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Spec name (required)")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newSpecShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show spec details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			spec, err := client.GetSpec(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "NAME", "CREATED"},
				[][]string{{spec.ID, spec.Name, spec.CreatedAt}},
				spec,
			)
			return nil
		},
	}
}

func newSpecDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteSpec(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Spec deleted: %s", args[0]))
			return nil
		},
	}
}

func newSpecVersionsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "versions SPEC_ID",
		Short: "List spec versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			versions, err := client.ListSpecVersions(args[0])
			if err != nil {
				return err
			}

			headers := []string{"SPEC_ID", "VERSION", "CREATED"}
			rows := make([][]string, len(versions))
			for i, v := range versions {
				rows[i] = []string{v.SpecID, strconv.Itoa(v.Version), v.CreatedAt}
			}

			out.Print(headers, rows, versions)
			return nil
		},
	}
}

func newSpecPushCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var docFile string

	cmd := &cobra.Command{
		Use:   "push SPEC_ID",
		Short: "Publish a new spec version from a document file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(docFile)
			if err != nil {
				return fmt.Errorf("failed to read document file: %w", err)
			}

			// Грубая проверка формата до похода на сервер
			if !json.Valid(data) {
				return fmt.Errorf("document file is not valid JSON")
			}

			version, err := client.CreateSpecVersion(args[0], json.RawMessage(data))
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Version %d published for spec %s", version.Version, version.SpecID))
			out.Print(
				[]string{"SPEC_ID", "VERSION", "CREATED"},
				[][]string{{version.SpecID, strconv.Itoa(version.Version), version.CreatedAt}},
				version,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&docFile, "file", "", "Path to deployment document JSON file (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}
