// Package gitconfig reads and edits single git config files without
// reformatting them. It is used to switch the global git identity
// (user.name and user.email) and to keep small bits of state in the same
// format.
//
// Only the subset of the git-config syntax needed for simple key-value
// settings is understood: sections, subsections, comments, quoted values
// and the common escape sequences. Includes, conditional includes and
// multi-scope lookups are out of scope, use git itself for those.
//
// The reference for this implementation is https://git-scm.com/docs/git-config#_syntax
//
// # Usage
//
//	cfg, err := gitconfig.LoadConfig(gitconfig.GlobalPath())
//	if err != nil {
//		return err
//	}
//	if err := cfg.Set("user.name", "Jane Doe"); err != nil {
//		if errors.Is(err, gitconfig.ErrWriteConfig) {
//			// handle write failure
//		}
//	}
//
// Set writes the file immediately. Call SetNoWrites(true) to keep changes
// in memory only (for tests and dry runs).
package gitconfig
