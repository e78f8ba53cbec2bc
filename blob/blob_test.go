package blob

import (
	"testing"

	gc "gopkg.in/check.v1"
)

type BlobSuite struct{}

func (s *BlobSuite) TestNewCopiesInput(c *gc.C) {
	var p = []byte("favicon")
	var b = New(p)
	p[0] = 'F'

	c.Check(b.Data(), gc.DeepEquals, []byte("favicon"))
	c.Check(b.Len(), gc.Equals, 7)
	c.Check(New(nil).Empty(), gc.Equals, true)
	c.Check(New([]byte{}).Data(), gc.IsNil)
}

func (s *BlobSuite) TestMoveEmptiesSource(c *gc.C) {
	var src = New([]byte{1, 2, 3})
	var ptr = &src.Data()[0]

	var dst = src.Move()
	c.Check(src.Len(), gc.Equals, 0)
	c.Check(src.Data(), gc.IsNil)
	c.Check(dst.Data(), gc.DeepEquals, []byte{1, 2, 3})
	// The buffer itself moved; no bytes were copied.
	c.Check(&dst.Data()[0], gc.Equals, ptr)
}

func (s *BlobSuite) TestTransferHandsOffBuffer(c *gc.C) {
	var b = New([]byte("abcd"))

	var p = b.Transfer()
	c.Check(p, gc.DeepEquals, []byte("abcd"))
	c.Check(len(p), gc.Equals, 4)
	c.Check(b.Empty(), gc.Equals, true)

	// Transferring an empty Blob yields nothing.
	c.Check(b.Transfer(), gc.IsNil)
}

func (s *BlobSuite) TestSetDataTakesOwnership(c *gc.C) {
	var b = New([]byte("old"))
	var p = []byte("new-buffer")

	b.SetData(p)
	c.Check(b.Len(), gc.Equals, len(p))
	c.Check(&b.Data()[0], gc.Equals, &p[0])

	b.SetData([]byte{})
	c.Check(b.Data(), gc.IsNil)
}

func (s *BlobSuite) TestClearIsIdempotent(c *gc.C) {
	var b = New([]byte("x"))
	b.Clear()
	c.Check(b.Empty(), gc.Equals, true)
	b.Clear()
	c.Check(b.Len(), gc.Equals, 0)
}

var _ = gc.Suite(&BlobSuite{})

func Test(t *testing.T) { gc.TestingT(t) }
