// Package lsb implements transform.Func and transform.InverseFunc by
// least-significant-bit steganography over PNG images: Embed writes a
// length-prefixed parameter string into the low bit of each color
// channel, in row-major pixel order; Extract reverses it.
//
// This is taskmesh's one concrete implementation of the canonical payload
// the coordination layer treats as an opaque external collaborator —
// every other package in the repo reaches it only through the
// transform.Func/transform.InverseFunc interface.
package lsb
