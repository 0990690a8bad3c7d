package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Daunte502/RNG/internal/domain"
)

var errRecordFailed = errors.New("update was not recorded")

func NewRecordCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "record <json>",
		Short:   "Insert one update document",
		Example: `  elet2415 record '{"number": 7, "ledA": 1, "ledB": 0}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := domain.DecodeUpdate([]byte(args[0]))
			if err != nil {
				return err
			}

			ctx := contextOrBackground(cmd)
			store, err := root.OpenStore(ctx, root.Config, root.Logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if !store.Record(ctx, update) {
				return errRecordFailed
			}
			fmt.Fprintln(cmd.OutOrStdout(), "complete")
			return nil
		},
	}
}

func NewFrequencyCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "frequency",
		Short: "Print how often each number was reported",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOrBackground(cmd)
			store, err := root.OpenStore(ctx, root.Config, root.Logger)
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := store.FrequencyReport(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

func NewOnCountCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "oncount <field>",
		Short: "Print how many updates had the given LED field on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOrBackground(cmd)
			store, err := root.OpenStore(ctx, root.Config, root.Logger)
			if err != nil {
				return err
			}
			defer store.Close()

			count, err := store.OnCount(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}
}
