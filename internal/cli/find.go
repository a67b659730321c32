package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/friendlyid"
	"github.com/dmitrymomot/friendlyid/pkg/slug"
)

func newFindCommand(st *state) *cobra.Command {
	var (
		typeName string
		scope    string
	)

	cmd := &cobra.Command{
		Use:   "find <friendly-id-or-id>...",
		Short: "Resolve friendly ids to record ids",
		Long: `Resolve friendly ids to record ids, one per line.

A numeric value matches a slug first and falls back to the primary key.

Examples:
  friendlyid find --type posts hello-world
  friendlyid find --type pages --scope acme about contact
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, st.cfg, st.log)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.lookup(typeName)
			if err != nil {
				return err
			}

			var opts []friendlyid.FindOption
			if cmd.Flags().Changed("scope") {
				opts = append(opts, friendlyid.InScope(scope))
			}

			values := make([]any, len(args))
			for i, arg := range args {
				values[i] = arg
			}

			ids, err := a.engine.FindMany(ctx, t, values, opts...)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Type to search")
	cmd.Flags().StringVar(&scope, "scope", "", "Scope value of a scoped type")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newNormalizeCommand(st *state) *cobra.Command {
	var typeName string

	cmd := &cobra.Command{
		Use:   "normalize <text>...",
		Short: "Print the slug candidate for each text",
		Long: `Print the slug candidate for each text without touching the database.

With --type the type's normalizer, length limit and reserved words apply.
Collisions are not resolved, so the stored slug may carry a sequence suffix.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if typeName == "" {
				for _, arg := range args {
					fmt.Fprintln(cmd.OutOrStdout(), slug.Make(arg))
				}
				return nil
			}

			reg, err := st.cfg.Registry()
			if err != nil {
				return err
			}
			t, err := reg.Lookup(typeName)
			if err != nil {
				return err
			}

			for _, arg := range args {
				candidate, err := t.Normalize(arg)
				if err != nil {
					return err
				}
				if t.IsReserved(candidate) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (reserved)\n", candidate)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), candidate)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Normalize the way this type does")
	return cmd
}
