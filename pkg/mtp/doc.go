// Package mtp navigates and transfers the content tree of portable media
// devices.
//
// A device exposes a tree of objects rooted at RootObjectID. Storage areas
// are functional objects below the root; folders and files sit below them.
// Objects are addressed by opaque, session-scoped IDs and described by
// property bags fetched one round trip at a time. This package layers a
// path-based API over that model:
//
//   - Provider lists devices and DeviceInfo.Open starts a session.
//   - Content is a reference-counted handle on the session.
//   - Object is a snapshot of one node with lazy child enumeration and
//     relative path resolution ("Music/../Download", either separator).
//   - ReadStream and WriteStream adapt transfer handles to io.Reader and
//     io.Writer. Writes become final on Commit.
//   - CreateFolder, PushFile, Delete and MoveTo mutate the tree.
//
// Nothing is cached. Every call re-reads the device, which may be modified
// by other processes at any time. Operations block for the duration of their
// round trips and honor only the cancellation the Driver derives from the
// context passed in.
//
// The native protocol stack is supplied through the Driver interface.
// Package emulator provides an in-process implementation.
package mtp
