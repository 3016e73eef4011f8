package login

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/clouddrive/internal/cache"
	"github.com/dropDatabas3/clouddrive/internal/security/secretbox"
)

func TestCodeAuthentication_CreateAndExchange(t *testing.T) {
	ctx := context.Background()
	a := New(Options{})

	code, err := a.CreateCode(ctx, "john", "secret", "http://cmis.example.com/atom")
	require.NoError(t, err)
	require.NotEmpty(t, code)

	id, err := a.ExchangeCode(ctx, code)
	require.NoError(t, err)
	require.Equal(t, "john", id.User)
	require.Equal(t, "secret", id.Password)
	require.Equal(t, "http://cmis.example.com/atom", id.ServiceURL)
	require.Empty(t, id.ServiceContext())

	// uso único
	_, err = a.ExchangeCode(ctx, code)
	var ae *AuthenticationError
	require.True(t, errors.As(err, &ae))
	require.Equal(t, "Invalid code", ae.Message)
	require.ErrorIs(t, err, ErrUnknownCode)

	// el contexto se ve a través del mismo puntero
	require.NoError(t, a.SetCodeContext(code, "repo-1"))
	require.Equal(t, "repo-1", id.ServiceContext())
}

func TestCodeAuthentication_InvalidInput(t *testing.T) {
	a := New(Options{})
	_, err := a.CreateCode(context.Background(), "", "p", "http://x")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = a.CreateCode(context.Background(), "u", "", "http://x")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = a.CreateCode(context.Background(), "u", "p", " ")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCodeAuthentication_SetCodeContextUnknown(t *testing.T) {
	ctx := context.Background()
	a := New(Options{})
	require.ErrorIs(t, a.SetCodeContext("nope", "repo"), ErrUnknownCode)

	// un código pendiente todavía no tiene identidad a la cual asignar contexto
	code, err := a.CreateCode(ctx, "john", "secret", "http://x")
	require.NoError(t, err)
	require.ErrorIs(t, a.SetCodeContext(code, "repo"), ErrUnknownCode)
	require.Error(t, a.SetCodeContext(code, ""))
}

func TestCodeAuthentication_SealsPassword(t *testing.T) {
	ctx := context.Background()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	box, err := secretbox.New(key)
	require.NoError(t, err)

	store := cache.NewMemory("t")
	a := New(Options{Cache: store, Box: box})

	code, err := a.CreateCode(ctx, "john", "secret-pass", "http://x")
	require.NoError(t, err)

	raw, err := store.Get(ctx, codeKeyPrefix+code)
	require.NoError(t, err)
	require.False(t, strings.Contains(raw, "secret-pass"))

	id, err := a.ExchangeCode(ctx, code)
	require.NoError(t, err)
	require.Equal(t, "secret-pass", id.Password)
}

func TestCodeAuthentication_CodeExpires(t *testing.T) {
	ctx := context.Background()
	a := New(Options{CodeTTL: 20 * time.Millisecond})
	code, err := a.CreateCode(ctx, "john", "secret", "http://x")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	_, err = a.ExchangeCode(ctx, code)
	require.ErrorIs(t, err, ErrUnknownCode)
}
