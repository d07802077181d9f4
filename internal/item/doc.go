// Package item defines registry item declarations and the group files they
// are authored in. It parses YAML or JSON group documents into typed Item
// records and checks their raw structure against the embedded group schema
// before any semantic validation runs.
package item
