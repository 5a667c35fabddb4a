// Package clientcoord implements the client side of the coordination
// protocol: discover the current coordinator by broadcasting AssignRequest
// to every known server address, execute the assigned task with
// verification via the inverse transform, and fail over to reassignment
// polling whenever a server stops answering.
//
// None of this loop has a hard retry limit: a client keeps polling and
// retrying indefinitely, since the cluster it talks to is assumed to
// eventually recover or reassign.
package clientcoord
