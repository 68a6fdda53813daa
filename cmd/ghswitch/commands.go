package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/gopasspw/ghswitch/internal/profile"
	"github.com/gopasspw/ghswitch/internal/switcher"
	"github.com/gopasspw/ghswitch/sshconfig"
	"github.com/gopasspw/gopass/pkg/set"
	"github.com/spf13/cobra"
)

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.switcher(true)
			if err != nil {
				return err
			}

			selected, err := s.Selected()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range a.loadProfiles(cmd) {
				marker := "  "
				if p.ID == selected {
					marker = selectedStyle.Render("* ")
				}
				fmt.Fprintf(out, "%s%s %s\n", marker, idStyle.Render(p.ID), p)
				fmt.Fprintln(out, subtitleStyle.Render(fmt.Sprintf("    %s <%s>, hosts: %s, key: %s",
					p.GitUserName, p.GitUserEmail, strings.Join(p.SSHHostAliases, " "), p.SSHIdentityFile)))
			}

			return nil
		},
	}
}

func (a *app) newSwitchCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:               "switch <profile>",
		Short:             "Switch the git identity and SSH key to a profile",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeProfileIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles := a.loadProfiles(cmd)

			p, found := profile.Find(profiles, args[0])
			if !found {
				return fmt.Errorf("%w: %q (known: %s)", switcher.ErrProfileNotFound, args[0], strings.Join(profile.IDs(profiles), ", "))
			}

			s, err := a.switcher(dryRun)
			if err != nil {
				return err
			}

			res, err := s.Switch(p)
			if err != nil {
				return err
			}

			printSwitch(cmd.OutOrStdout(), res, s.SSHConfig, dryRun)

			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would change without writing anything")

	return cmd
}

func (a *app) newCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the selected profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.switcher(true)
			if err != nil {
				return err
			}

			id, err := s.Selected()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if id == "" {
				fmt.Fprintln(out, "no profile selected")

				return nil
			}

			p, found := profile.Find(a.loadProfiles(cmd), id)
			if !found {
				fmt.Fprintf(out, "%s %s\n", idStyle.Render(id), warningStyle.Render("(no longer configured)"))

				return nil
			}

			fmt.Fprintf(out, "%s %s\n", idStyle.Render(p.ID), p)

			return nil
		},
	}
}

func (a *app) newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Re-apply the selected profile (or the first one)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.switcher(false)
			if err != nil {
				return err
			}

			res, err := s.Restore(a.loadProfiles(cmd))
			if err != nil {
				return err
			}

			printSwitch(cmd.OutOrStdout(), res, s.SSHConfig, false)

			return nil
		},
	}
}

func (a *app) newMergeCmd() *cobra.Command {
	var (
		aliases      []string
		identityFile string
		file         string
		write        bool
	)

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Point SSH host aliases at an identity file",
		Long: `Merge sets IdentityFile and IdentitiesOnly in every Host block that
declares one of the aliases. Without --write the merged config is printed.
A missing config file is bootstrapped with one block per alias.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				p, err := a.sshPath()
				if err != nil {
					return err
				}
				file = p
			}

			e := &sshconfig.Editor{Path: file, NoWrites: !write}
			res, err := e.Update(aliases, identityFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !write {
				fmt.Fprint(out, res.Content)

				return nil
			}

			fmt.Fprintf(out, "%s %s\n", successStyle.Render(sshState(res)), file)
			printStats(out, res.Stats)

			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&aliases, "alias", "a", nil, "host alias to update (repeatable)")
	cmd.Flags().StringVarP(&identityFile, "identity-file", "i", "", "identity file to use, written as given")
	cmd.Flags().StringVarP(&file, "file", "f", "", "SSH config to merge into (default --ssh-config)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back instead of printing it")
	_ = cmd.MarkFlagRequired("alias")
	_ = cmd.MarkFlagRequired("identity-file")

	return cmd
}

func (a *app) newHostsCmd() *cobra.Command {
	var aliases []string

	cmd := &cobra.Command{
		Use:   "hosts",
		Short: "List Host blocks and wildcard blocks shadowing profile aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.sshPath()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			buf, err := os.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(out, "no SSH config at %s\n", path)

				return nil
			}
			if err != nil {
				return fmt.Errorf("%w %s: %w", sshconfig.ErrReadConfig, path, err)
			}

			doc := sshconfig.Parse(string(buf))
			blocks := doc.Blocks()

			fmt.Fprintln(out, titleStyle.Render(path))
			for _, b := range blocks {
				fmt.Fprintf(out, "%5d  Host %s\n", b.Line+1, strings.Join(b.Patterns, " "))
			}

			if len(aliases) == 0 {
				for _, p := range a.loadProfiles(cmd) {
					aliases = append(aliases, p.SSHHostAliases...)
				}
			}

			for _, alias := range set.Sorted(aliases) {
				if !slices.ContainsFunc(blocks, func(b sshconfig.Block) bool {
					return slices.Contains(b.Patterns, alias)
				}) {
					fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("%s: no Host block, switching won't configure it", alias)))
				}

				for _, sh := range doc.Shadows(alias) {
					msg := fmt.Sprintf("%s: shadowed by line %d (Host %s, pattern %q)", alias, sh.Line+1, strings.Join(sh.Patterns, " "), sh.Pattern)
					if sh.Managed {
						msg += " which sets its own IdentityFile/IdentitiesOnly"
					}
					fmt.Fprintln(out, warningStyle.Render(msg))
				}
			}

			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&aliases, "alias", "a", nil, "alias to check (default: all profile aliases)")

	return cmd
}
