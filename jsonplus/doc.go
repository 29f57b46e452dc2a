// Package jsonplus parses the typed values used in directive parameters and arguments.
//
// The accepted language is a superset of JSON:
//
//   - nude strings made of letters, digits, '/', '.', '_' and '-' (notes/intro.md, gpt-4o)
//   - single quoted strings next to double quoted ones
//   - '=' as an alternative to ':' between a key and its value
//   - a key without a value, which denotes a Flag
//
// Escapes \\ \" \' \n \r \t are recognized in quoted strings. Elements are comma separated and
// a trailing separator is rejected. Objects keep their key order, and pretty printing is
// deterministic: containers with at most one element render on a single line, larger ones
// render one element per line.
package jsonplus
