// Package executor runs one task to completion on the server side: invoke
// the transform, answer the requesting connection, wait for the client's
// acknowledgement, and retire the history entry once it arrives.
package executor
