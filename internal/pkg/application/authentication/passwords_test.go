package authentication

import (
	"testing"

	"github.com/matryer/is"
)

func TestThatPasswordsCanBeVerified(t *testing.T) {
	is := is.New(t)

	hash, err := HashPassword("secret")
	is.NoErr(err)
	is.True(hash != "secret")

	is.True(VerifyPassword("secret", hash))
	is.True(!VerifyPassword("wrong", hash))
	is.True(!VerifyPassword("secret", ""))
}
