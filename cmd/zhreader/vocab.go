package main

import (
	"fmt"
	"strings"

	"github.com/japaniel/zhreader/pkg/db"
	"github.com/spf13/cobra"
)

func newVocabCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Manage a reader's saved vocabulary",
	}

	var fromDoc string
	var fromSandbox bool
	save := &cobra.Command{
		Use:   "save <username> <uid>",
		Short: "Save a phrase by its dictionary uid (e.g. 你好ni3hao3)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.maintainer(cmd.Context())
			if err != nil {
				return err
			}
			v, err := m.Save(cmd.Context(), args[0], args[1], fromDoc, fromSandbox)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s [%s]\n", v.Phrase, v.PhrasePhonetics)
			return nil
		},
	}
	save.Flags().StringVar(&fromDoc, "from-doc", "", "title of the document the phrase came from")
	save.Flags().BoolVar(&fromSandbox, "sandbox", false, "the phrase came from a sandbox document")

	del := &cobra.Command{
		Use:   "delete <username> <uid>",
		Short: "Delete a saved phrase",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.maintainer(cmd.Context())
			if err != nil {
				return err
			}
			if err := m.Delete(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[1])
			return nil
		},
	}

	var verbose bool
	list := &cobra.Command{
		Use:   "list <username>",
		Short: "Show a reader's vocabulary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.maintainer(ctx)
			if err != nil {
				return err
			}
			set, err := m.List(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Characters (%d): %s\n", len(set.Chars()), strings.Join(set.Chars(), " "))
			fmt.Fprintf(out, "Phrases (%d): %s\n", set.Len(), strings.Join(set.Phrases(), " "))
			if !verbose {
				return nil
			}

			user, err := db.GetUser(ctx, a.conn, args[0])
			if err != nil {
				return err
			}
			items, err := db.ListVocab(ctx, a.conn, user.Username, user.CnType)
			if err != nil {
				return err
			}
			for _, v := range items {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", v.UID, v.Phrase, v.PhrasePhonetics, v.Defn)
			}
			return nil
		},
	}
	list.Flags().BoolVarP(&verbose, "verbose", "v", false, "also list every saved item")

	cmd.AddCommand(save, del, list)
	return cmd
}
