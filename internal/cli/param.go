package cli

import (
	"github.com/spf13/cobra"
)

// NewParamCmd создаёт группу команд для каталога параметров обнаружения.
func NewParamCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "param",
		Short: "Inspect the endpoint discovery parameter directory",
	}

	cmd.AddCommand(newParamListCmd(clientFn, outputFn))

	return cmd
}

func newParamListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			params, err := client.ListParams(prefix)
			if err != nil {
				return err
			}

			headers := []string{"PATH", "VALUE"}
			rows := make([][]string, len(params))
			for i, p := range params {
				rows[i] = []string{p.Path, p.Value}
			}

			out.Print(headers, rows, params)
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Path prefix filter (e.g. '/my-dependency-key/')")

	return cmd
}
