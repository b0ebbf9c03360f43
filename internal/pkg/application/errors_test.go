package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/matryer/is"
)

func TestThatErrorsCanBeMatchedThroughWrapping(t *testing.T) {
	is := is.New(t)

	err := fmt.Errorf("registration failed: %w", NewError(ErrConflict, "email %s already registered", "a@b.c"))

	is.True(errors.Is(err, ErrConflict))
	is.True(!errors.Is(err, ErrNotFound))
	is.Equal(Detail(err), "email a@b.c already registered")
	is.Equal(Detail(ErrForbidden), "forbidden")
}
