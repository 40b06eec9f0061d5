// Package iocopy provides io.Copy() equivalents that recycle shared buffers and observe cancellation.
package iocopy

import (
	"context"
	"io"
	"sync"
)

const bufSize = 65536

//nolint:gochecknoglobals
var bufferPool = sync.Pool{
	New: func() interface{} {
		p := make([]byte, bufSize)

		return &p
	},
}

// Copy is equivalent to io.Copy().
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	//nolint:forcetypeassert
	bufPtr := bufferPool.Get().(*[]byte)

	defer bufferPool.Put(bufPtr)

	//nolint:wrapcheck
	return io.CopyBuffer(dst, src, *bufPtr)
}

type contextReader struct {
	ctx context.Context //nolint:containedctx
	r   io.Reader
}

func (r contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err //nolint:wrapcheck
	}

	//nolint:wrapcheck
	return r.r.Read(p)
}

// CopyContext is equivalent to Copy() but stops with the context error once the context is canceled.
func CopyContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	return Copy(dst, contextReader{ctx, src})
}
