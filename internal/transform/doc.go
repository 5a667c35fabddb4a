// Package transform declares the task payload transform as an external
// collaborator: a pure function from (payload bytes, parameter string) to a
// result, reached only through this interface so the coordination layer
// never depends on any one transform's implementation details.
package transform
