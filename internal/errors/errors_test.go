package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsRecoverableByDefault(t *testing.T) {
	err := New(ErrorTypeParse, "parse file", errors.New("bad syntax"))
	assert.True(t, err.IsRecoverable())
	assert.Equal(t, ErrorTypeParse, err.Type)
}

func TestFatalMarksUnrecoverable(t *testing.T) {
	err := New(ErrorTypeIngest, "flush all", errors.New("disk full")).Fatal()
	assert.False(t, err.IsRecoverable())
}

func TestWithFileIncludedInMessage(t *testing.T) {
	err := New(ErrorTypeQuery, "run query", errors.New("no match")).WithFile("main.py")
	assert.Contains(t, err.Error(), "main.py")
	assert.Contains(t, err.Error(), "run query")
}

func TestUnwrapReturnsUnderlying(t *testing.T) {
	underlying := errors.New("root cause")
	err := New(ErrorTypeResolve, "resolve call", underlying)
	assert.Equal(t, underlying, err.Unwrap())
	assert.True(t, errors.Is(err, underlying))
}

func TestMultiErrorFiltersNilAndCollapsesSingle(t *testing.T) {
	single := NewMultiError([]error{nil, errors.New("only one")})
	assert.Equal(t, "only one", single.Error())

	multi := NewMultiError([]error{errors.New("a"), errors.New("b")})
	assert.Contains(t, multi.Error(), "2 errors occurred")
}

func TestNewMultiErrorAllNilReturnsNil(t *testing.T) {
	assert.Nil(t, NewMultiError([]error{nil, nil}))
}
