package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/cexll/kanban-mcp/internal/config"
	"github.com/cexll/kanban-mcp/internal/docpatch"
	"github.com/cexll/kanban-mcp/internal/store"
	"github.com/cexll/kanban-mcp/internal/vcs"
)

var (
	credentials config.TokenStore = config.NewCredentialStore()
	now                           = time.Now
)

type options struct {
	dir     string
	file    string
	preview bool
	commit  bool
	style   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "docpatch",
		Short:         "Patch README and CHANGELOG files in place",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "Repository root")
	root.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "Document to patch, relative to --dir")
	root.PersistentFlags().BoolVar(&opts.preview, "preview", false, "Render the patched document instead of writing it")
	root.PersistentFlags().BoolVar(&opts.commit, "commit", false, "Commit the patched document with git")
	root.PersistentFlags().StringVar(&opts.style, "style", "dark", "Glamour style used by --preview")

	root.AddCommand(newSectionCmd(opts), newBadgeCmd(opts), newChangelogCmd(opts), newTokenCmd())
	return root
}

func newSectionCmd(opts *options) *cobra.Command {
	var content string
	cmd := &cobra.Command{
		Use:   "section NAME",
		Short: "Replace a section body, or append the section when missing",
		Long:  "Replace the body of the first heading starting with NAME. Content is read from stdin when --content is not given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("content") {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read content: %w", err)
				}
				content = string(data)
			}
			name := args[0]
			return apply(cmd, opts, "README.md", "", "Update README.md - "+name+" section",
				func(doc string) string { return docpatch.UpdateSection(doc, name, content) })
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "New section body")
	return cmd
}

func newBadgeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "badge TYPE MARKDOWN",
		Short: "Insert a badge line next to the existing badges",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			badge := strings.TrimSpace(args[1])
			if badge == "" || strings.ContainsAny(badge, "\r\n") {
				return errors.New("badge must be a single non-empty line")
			}
			return apply(cmd, opts, "README.md", "", "Add "+args[0]+" badge to README.md",
				func(doc string) string { return docpatch.InsertBadge(doc, badge) })
		},
	}
}

func newChangelogCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "changelog VERSION [CHANGE...]",
		Short: "Add a dated entry above the newest changelog entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry := docpatch.ChangelogEntry{Version: args[0], Date: now(), Changes: args[1:]}
			return apply(cmd, opts, "CHANGELOG.md", "# Changelog\n\n", "Update CHANGELOG.md for "+entry.Version,
				func(doc string) string { return docpatch.InsertChangelogEntry(doc, entry) })
		},
	}
}

// apply reads the target document (seed when missing), patches it and either
// previews or writes it.
func apply(cmd *cobra.Command, opts *options, defaultFile, seed, message string, edit func(string) string) error {
	file := opts.file
	if file == "" {
		file = defaultFile
	}
	docs := store.NewDocumentStore(opts.dir)

	doc, ok, err := docs.Read(file)
	if err != nil {
		return err
	}
	if !ok {
		doc = seed
	}
	patched := edit(doc)

	if opts.preview {
		return render(cmd.OutOrStdout(), patched, opts.style)
	}

	if err := docs.Write(file, patched); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", file)

	if !opts.commit {
		return nil
	}
	hash, err := vcs.NewCommitter(opts.dir, vcs.Author{Name: "docpatch", Email: "docpatch@localhost"}).
		Commit(cmd.Context(), message, file)
	switch {
	case errors.Is(err, vcs.ErrNothingToCommit):
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing to commit for %s\n", file)
	case err != nil:
		// The document is already written; a failed commit only warns.
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not commit %s: %v\n", file, err)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Committed %s\n", shortHash(hash))
	}
	return nil
}

func render(w io.Writer, markdown, style string) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return fmt.Errorf("failed to render preview: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

func newTokenCmd() *cobra.Command {
	token := &cobra.Command{
		Use:   "token",
		Short: "Manage the GitHub token kept in the OS credential store",
	}

	token.AddCommand(
		&cobra.Command{
			Use:   "set TOKEN",
			Short: "Store a GitHub token",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := credentials.StoreGitHubToken(args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "GitHub token stored")
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Remove the stored GitHub token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := credentials.DeleteGitHubToken(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "GitHub token deleted")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report whether a GitHub token is stored",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := credentials.GetGitHubToken()
				switch {
				case errors.Is(err, config.ErrNoToken):
					fmt.Fprintln(cmd.OutOrStdout(), "No GitHub token stored")
				case err != nil:
					return err
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "GitHub token stored")
				}
				return nil
			},
		},
	)
	return token
}
