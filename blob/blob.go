// Package blob provides Blob, an owning byte buffer which transfers its
// storage on move rather than copying it.
package blob

// Blob exclusively owns a contiguous byte buffer. An empty Blob has nil data
// and zero length. Ownership may be moved to another Blob (Move) or handed off
// to the caller entirely (Transfer); in both cases the source is left empty.
//
// A Blob must not be copied after first use.
type Blob struct {
	_    noCopy
	data []byte
}

// New returns a Blob holding a copy of |p|. A nil or empty |p| yields an
// empty Blob.
func New(p []byte) *Blob {
	var b = new(Blob)
	if len(p) != 0 {
		b.data = make([]byte, len(p))
		copy(b.data, p)
	}
	return b
}

// Move returns a new Blob which takes over the buffer of |b|. |b| is left
// empty. No bytes are copied.
func (b *Blob) Move() *Blob {
	var out = &Blob{data: b.data}
	b.data = nil
	return out
}

// Data returns the owned buffer, which the caller must not modify or retain
// beyond the lifetime of the Blob.
func (b *Blob) Data() []byte { return b.data }

// Len returns the length of the owned buffer.
func (b *Blob) Len() int { return len(b.data) }

// Empty is true if the Blob owns no buffer.
func (b *Blob) Empty() bool { return len(b.data) == 0 }

// SetData releases any owned buffer and takes ownership of |p| without
// copying it. The caller must not use |p| afterwards.
func (b *Blob) SetData(p []byte) {
	if len(p) == 0 {
		p = nil
	}
	b.data = p
}

// Clear releases the owned buffer. It's a no-op on an empty Blob.
func (b *Blob) Clear() { b.data = nil }

// Transfer hands the owned buffer to the caller and resets the Blob to empty.
// The length of the returned slice is the length the Blob held.
func (b *Blob) Transfer() []byte {
	var p = b.data
	b.data = nil
	return p
}

// noCopy is flagged by `go vet -copylocks` when a Blob is copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
