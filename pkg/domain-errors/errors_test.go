package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite covers the error primitives every layer relies on to
// carry a stable code from the store up to the HTTP response.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorMessage() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeValidation, Message: "Please enter a valid South African ID number"}
		s.Equal("Please enter a valid South African ID number", err.Error())
	})

	s.Run("falls back to code", func() {
		err := &Error{Code: CodeInternal}
		s.Equal("internal_error", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	s.True(errors.Is(New(CodeValidation, "a"), &Error{Code: CodeValidation}))
	s.False(errors.Is(New(CodeValidation, "a"), &Error{Code: CodeInternal}))
	s.False((&Error{Code: CodeNotFound}).Is(errors.New("not_found")))
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("preserves original domain code", func() {
		wrapped := Wrap(New(CodeTimeout, "store timed out"), CodeInternal, "resolve failed")
		s.True(HasCode(wrapped, CodeTimeout))
		s.Equal("resolve failed", wrapped.Error())
	})

	s.Run("uses provided code for plain errors", func() {
		root := errors.New("connection refused")
		wrapped := Wrap(root, CodeInternal, "resolve failed")
		s.True(HasCode(wrapped, CodeInternal))
		s.ErrorIs(wrapped, root)
	})
}

func (s *DomainErrorsSuite) TestWithCause() {
	inner := New(CodeTimeout, "deadline")
	err := WithCause(inner, CodeInternal, "Error processing user data")

	s.Equal(CodeInternal, CodeOf(err))
	s.ErrorIs(err, inner)
}

func (s *DomainErrorsSuite) TestCodeOf() {
	s.Equal(CodeNotFound, CodeOf(New(CodeNotFound, "missing")))
	s.Equal(CodeInternal, CodeOf(errors.New("plain")))
	s.False(HasCode(nil, CodeNotFound))
}
