package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/pingcap/errors"
	"github.com/siddontang/go-mysql/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIs(t *testing.T) {
	badConn := mysql.ErrBadConn
	err := errors.AddStack(badConn)
	assert.True(t, Is(err, badConn))
	assert.True(t, Is(errors.WithMessage(err, "exec"), badConn))
	assert.False(t, Is(err, io.EOF))
}

func TestIs_StdWrap(t *testing.T) {
	err := fmt.Errorf("read packet: %w", errors.Trace(io.EOF))
	assert.True(t, Is(err, io.EOF))
}

func TestIs_NilTarget(t *testing.T) {
	assert.True(t, Is(nil, nil))
	assert.False(t, Is(io.EOF, nil))
}

func TestCause(t *testing.T) {
	assert.Nil(t, Cause(io.EOF))
	assert.Equal(t, io.EOF, Cause(fmt.Errorf("x: %w", io.EOF)))
}
