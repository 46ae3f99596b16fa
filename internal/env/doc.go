// Package env expands ${env.KEY} references in configuration documents.
package env
