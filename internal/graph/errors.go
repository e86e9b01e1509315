// Package graph is the block graph: blocks with typed anchors, connections
// between them, nested containers, expression extraction and the two-phase
// propagation that keeps anchor types and block validity current after edits.
//
// # Ownership Model
//
// All blocks, containers and connections live in one arena owned by Graph and
// are addressed by ID. Anchors refer to their block and connections by ID, so
// no component holds a pointer into another's state.
//
// # Thread Safety
//
// Graph is NOT safe for concurrent use. Every edit is processed to completion,
// including observer callbacks, before the next edit may start.
package graph

import "errors"

// Sentinel errors for graph edits. A rejected edit leaves the graph unchanged.
var (
	// ErrInputConnected is returned when connecting into an input that already has a connection.
	ErrInputConnected = errors.New("input anchor already connected")

	// ErrSameBlock is returned when both ends of a connection are on one block.
	ErrSameBlock = errors.New("connection endpoints on the same block")

	// ErrContainmentCycle is returned when a block would be moved into one of its own containers.
	ErrContainmentCycle = errors.New("container would contain itself")

	// ErrUnknownBlock is returned for IDs that were never allocated.
	ErrUnknownBlock = errors.New("unknown block")

	// ErrUnknownContainer is returned for container IDs that were never allocated.
	ErrUnknownContainer = errors.New("unknown container")

	// ErrUnknownConnection is returned for connection IDs that do not exist.
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrUnknownAnchor is returned for anchor indices out of range.
	ErrUnknownAnchor = errors.New("unknown anchor")

	// ErrNotCopyable is returned when copying a lambda whose body is not empty.
	ErrNotCopyable = errors.New("block cannot be copied")

	// ErrRemoved is returned when editing a block that was removed.
	ErrRemoved = errors.New("block was removed")

	// ErrWrongKind is returned when an edit does not apply to the block's kind.
	ErrWrongKind = errors.New("operation not supported by block kind")
)

// Reasons a block is invalid in its container, reported by Graph.Errors.
var (
	// ErrOutOfScope marks an input fed from a container that does not enclose it.
	ErrOutOfScope = errors.New("input fed from outside its scope")

	// ErrDetached marks a block that is not attached to the workspace.
	ErrDetached = errors.New("block is not attached to the workspace")
)
