package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObjectWriter records what reached it and the state of its context
// when Close was called.
type fakeObjectWriter struct {
	ctx        context.Context
	buf        bytes.Buffer
	writeErr   error
	closed     bool
	ctxAtClose error
}

func (f *fakeObjectWriter) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.buf.Write(p)
}

func (f *fakeObjectWriter) Close() error {
	f.closed = true
	f.ctxAtClose = f.ctx.Err()
	return nil
}

func TestUpload(t *testing.T) {
	fw := &fakeObjectWriter{}
	err := upload(context.Background(), func(ctx context.Context) objectWriter {
		fw.ctx = ctx
		return fw
	}, []byte("gauge"))

	require.NoError(t, err)
	assert.Equal(t, "gauge", fw.buf.String())
	assert.True(t, fw.closed)
	assert.NoError(t, fw.ctxAtClose, "a complete upload must be committed")
}

func TestUpload_CopyFailureAbortsObject(t *testing.T) {
	errBroken := errors.New("broken pipe")
	fw := &fakeObjectWriter{writeErr: errBroken}
	err := upload(context.Background(), func(ctx context.Context) objectWriter {
		fw.ctx = ctx
		return fw
	}, []byte("gauge"))

	assert.ErrorIs(t, err, errBroken)
	assert.True(t, fw.closed)
	assert.ErrorIs(t, fw.ctxAtClose, context.Canceled, "context must be cancelled before Close")
}
