package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/gopasspw/ghswitch/internal/profile"
	"github.com/gopasspw/ghswitch/internal/switcher"
	"github.com/gopasspw/ghswitch/sshconfig"
	"github.com/gopasspw/gopass/pkg/debug"
	"github.com/spf13/cobra"
)

// app carries the global flags. Empty values mean "use the default
// location".
type app struct {
	sshConfig   string
	gitConfig   string
	profilesDir string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "ghswitch",
		Short: "Switch between GitHub accounts",
		Long: titleStyle.Render("ghswitch") + subtitleStyle.Render(" - switch between GitHub accounts") + `

A profile bundles a git identity (user.name, user.email) with an SSH key.
Switching sets the global git identity and points every Host block of the
profile's aliases in ~/.ssh/config at its key, leaving everything else in
the file alone.

Profiles are read from config.json, config.toml or config.yaml in the
profiles directory (default ` + profile.Dir() + `).

` + subtitleStyle.Render("Examples:") + `
  ghswitch list                List profiles
  ghswitch switch work         Switch to the 'work' profile
  ghswitch switch work -n      Show what switching would change
  ghswitch hosts               Show Host blocks and shadowing wildcards`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.sshConfig, "ssh-config", "", "SSH client config (default ~/.ssh/config)")
	rootCmd.PersistentFlags().StringVar(&a.gitConfig, "git-config", "", "global git config (default ~/.gitconfig)")
	rootCmd.PersistentFlags().StringVar(&a.profilesDir, "profiles-dir", "", "directory holding the profiles file (default "+profile.Dir()+")")

	rootCmd.AddCommand(
		a.newListCmd(),
		a.newSwitchCmd(),
		a.newCurrentCmd(),
		a.newRestoreCmd(),
		a.newMergeCmd(),
		a.newHostsCmd(),
	)

	return rootCmd
}

func (a *app) dir() string {
	if a.profilesDir != "" {
		return a.profilesDir
	}

	return profile.Dir()
}

func (a *app) sshPath() (string, error) {
	if a.sshConfig != "" {
		return a.sshConfig, nil
	}

	return sshconfig.DefaultPath()
}

// loadProfiles falls back to the built-in profiles if the profiles file
// can't be used.
func (a *app) loadProfiles(cmd *cobra.Command) []profile.Profile {
	profiles, err := profile.Load(a.dir())
	if err != nil {
		debug.Log("failed to load profiles: %s", err)
		fmt.Fprintln(cmd.ErrOrStderr(), warningStyle.Render("Warning: ")+err.Error()+", using built-in profiles")

		return profile.Defaults()
	}

	return profiles
}

func (a *app) switcher(noWrites bool) (*switcher.Switcher, error) {
	s, err := switcher.New()
	if err != nil {
		return nil, err
	}

	if a.sshConfig != "" {
		s.SSHConfig = a.sshConfig
	}
	if a.gitConfig != "" {
		s.GitConfig = a.gitConfig
	}
	if a.profilesDir != "" {
		s.StateFile = filepath.Join(a.profilesDir, "state")
	}
	s.NoWrites = noWrites

	debug.V(1).Log("switcher: ssh %s, git %s, state %s, noWrites %t", s.SSHConfig, s.GitConfig, s.StateFile, s.NoWrites)

	return s, nil
}

func (a *app) completeProfileIDs(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	return profile.IDs(a.loadProfiles(cmd)), cobra.ShellCompDirectiveNoFileComp
}

func printSwitch(w io.Writer, res switcher.Result, sshPath string, dryRun bool) {
	verb := "Switched to"
	if dryRun {
		verb = "Would switch to"
	}
	fmt.Fprintf(w, "%s %s (%s)\n", successStyle.Render(verb), res.Profile, idStyle.Render(res.Profile.ID))

	git := "unchanged"
	if res.GitChanged {
		git = fmt.Sprintf("%s <%s>", res.Profile.GitUserName, res.Profile.GitUserEmail)
	}
	fmt.Fprintf(w, "  git identity: %s\n", git)
	fmt.Fprintf(w, "  ssh config:   %s %s\n", sshState(res.SSH), sshPath)
	printStats(w, res.SSH.Stats)
}

func sshState(res sshconfig.Result) string {
	switch {
	case res.Created:
		return "created"
	case res.Changed:
		return "updated"
	default:
		return "unchanged"
	}
}

func printStats(w io.Writer, st sshconfig.Stats) {
	fmt.Fprintln(w, subtitleStyle.Render(fmt.Sprintf("    %d matching blocks, %d lines rewritten, %d lines added",
		st.TargetBlocks, st.Rewritten, st.Appended)))
}
