// Package sshconfig points Host aliases of an OpenSSH client config at an
// identity file while leaving the rest of the file alone.
//
// The file is not fully parsed. It is kept as a list of raw lines and only
// two things are recognized: Host header lines, which start a block, and the
// IdentityFile / IdentitiesOnly directives inside blocks whose header names
// one of the requested aliases. Those directives are rewritten in place (the
// original indentation is kept) or appended to the end of the block. Every
// other line, including comments, blank lines and the presence or absence of
// a final line feed, is reproduced byte for byte. Running the same update
// twice yields the same file.
//
// # Usage
//
//	res, err := sshconfig.Update(path, []string{"github-work"}, "/home/me/.ssh/id_work")
//	if err != nil {
//		if errors.Is(err, sshconfig.ErrWriteConfig) {
//			// handle write failure
//		}
//	}
//	fmt.Println(res.Changed)
//
// Pure, in-memory merges are available through Parse and Document.Merge,
// or the Merge and Bootstrap helpers operating on strings.
//
// # Known limitations
//
//   - Alias matching is exact. "Host github-*" does not match the alias
//     github-work, see Document.Shadows to detect such blocks.
//   - Match blocks and Include directives are treated as ordinary lines.
//   - The "Keyword=value" form is not recognized for the managed directives.
package sshconfig
