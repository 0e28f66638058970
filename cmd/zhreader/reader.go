package main

import (
	"fmt"
	"io"
	"os"

	"github.com/japaniel/zhreader/pkg/db"
	"github.com/japaniel/zhreader/pkg/dictionary"
	"github.com/spf13/cobra"
)

func newRenderCommand(a *app) *cobra.Command {
	var file, url, variant, phonetics, sandboxID string
	var sandbox bool
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render text from stdin, a file or a URL as annotated HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			if sandboxID != "" {
				doc, err := svc.SandboxDocument(ctx, sandboxID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), doc.BodyHTML)
				return nil
			}

			v := dictionary.ParseScriptVariant(variant)
			p := dictionary.ParsePhoneticSystem(phonetics)
			if sandbox {
				body := ""
				if url == "" {
					if body, err = readBody(cmd, file); err != nil {
						return err
					}
				}
				doc, err := svc.CreateSandboxDocument(ctx, body, v, p, url)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Sandbox document saved with ID: %s\n", doc.DocID)
				fmt.Fprintln(cmd.OutOrStdout(), doc.BodyHTML)
				return nil
			}

			var text string
			if url != "" {
				_, text, err = a.fetcher().FetchFromURL(ctx, url)
			} else {
				text, err = readBody(cmd, file)
			}
			if err != nil {
				return err
			}
			out, err := svc.Render(ctx, text, v, p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read text from file instead of stdin")
	cmd.Flags().StringVar(&url, "url", "", "fetch the article at URL")
	cmd.Flags().StringVar(&variant, "variant", "simplified", "script variant: simplified or traditional")
	cmd.Flags().StringVar(&phonetics, "phonetics", "pinyin", "phonetic system: pinyin or zhuyin")
	cmd.Flags().BoolVar(&sandbox, "sandbox", false, "store the result as a sandbox document")
	cmd.Flags().StringVar(&sandboxID, "sandbox-id", "", "print the stored sandbox document with this ID")
	cmd.MarkFlagsMutuallyExclusive("file", "url")
	cmd.MarkFlagsMutuallyExclusive("sandbox", "sandbox-id")
	return cmd
}

// readBody reads file, or stdin when file is empty.
func readBody(cmd *cobra.Command, file string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return string(b), nil
}

func newUserCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage readers",
	}

	var email, variant, phonetics string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a reader",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := a.database(cmd.Context())
			if err != nil {
				return err
			}
			id, err := db.CreateUser(cmd.Context(), conn, db.User{
				Username:    args[0],
				Email:       email,
				CnType:      string(dictionary.ParseScriptVariant(variant)),
				CnPhonetics: string(dictionary.ParsePhoneticSystem(phonetics)),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s saved with ID: %d\n", args[0], id)
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "email address")
	add.Flags().StringVar(&variant, "variant", "simplified", "script variant: simplified or traditional")
	add.Flags().StringVar(&phonetics, "phonetics", "pinyin", "phonetic system: pinyin or zhuyin")

	var setVariant, setPhonetics string
	set := &cobra.Command{
		Use:   "set <username>",
		Short: "Change a reader's script variant and phonetic system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := a.database(cmd.Context())
			if err != nil {
				return err
			}
			v := string(dictionary.ParseScriptVariant(setVariant))
			p := string(dictionary.ParsePhoneticSystem(setPhonetics))
			if err := db.UpdateUserSettings(cmd.Context(), conn, args[0], v, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s now reads %s with %s.\n", args[0], v, p)
			return nil
		},
	}
	set.Flags().StringVar(&setVariant, "variant", "simplified", "script variant: simplified or traditional")
	set.Flags().StringVar(&setPhonetics, "phonetics", "pinyin", "phonetic system: pinyin or zhuyin")

	cmd.AddCommand(add, set)
	return cmd
}

func newDocCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Manage saved documents",
	}

	var file string
	add := &cobra.Command{
		Use:   "add <username> <title>",
		Short: "Render text from stdin or a file and save it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd, file)
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()
			doc, err := svc.CreateDocument(cmd.Context(), args[0], args[1], body, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Document saved as %q\n", doc.Title)
			return nil
		},
	}
	add.Flags().StringVarP(&file, "file", "f", "", "read text from file instead of stdin")

	addURL := &cobra.Command{
		Use:   "add-url <username> <url>",
		Short: "Fetch an article and save it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()
			fmt.Fprintf(cmd.ErrOrStderr(), "Fetching %s...\n", args[1])
			doc, err := svc.CreateDocumentFromURL(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Document saved as %q\n", doc.Title)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list <username>",
		Short: "List a reader's documents for their current settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := a.database(ctx)
			if err != nil {
				return err
			}
			user, err := db.GetUser(ctx, conn, args[0])
			if err != nil {
				return err
			}
			docs, err := db.ListDocuments(ctx, conn, user.Username, user.CnType, user.CnPhonetics)
			if err != nil {
				return err
			}
			for _, d := range docs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", d.Title, d.CreatedOn.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <username> <title>",
		Short: "Print a saved document's annotated HTML",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()
			doc, err := svc.Document(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), doc.BodyHTML)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <username> <title>",
		Short: "Delete a saved document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()
			if err := svc.DeleteDocument(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Document %q deleted\n", args[1])
			return nil
		},
	}

	cmd.AddCommand(add, addURL, list, show, del)
	return cmd
}
