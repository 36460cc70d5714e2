// Package gitignore implements gitignore pattern matching as documented at
// https://git-scm.com/docs/gitignore: wildcards (*, ?, **), rooted patterns
// (/build), negation (!keep.log), directory-only patterns (build/), and
// per-directory scoping for nested .gitignore files.
//
//	m := gitignore.New()
//	m.AddPattern("*.log")
//	m.AddPattern("!important.log")
//	m.AddPattern("/build/")
//
//	if m.Match("error.log", false) {
//	    // ignored
//	}
//
// A nested .gitignore is added with AddFromFile, scoped to its directory:
//
//	m.AddFromFile("/repo/.gitignore", "")
//	m.AddFromFile("/repo/src/.gitignore", "src")
package gitignore
