// Package scaffold generates new registry items from embedded templates. It
// powers the "glkit add" command: a stub source file is written for the
// item and its declaration is appended to the category's group file.
package scaffold
