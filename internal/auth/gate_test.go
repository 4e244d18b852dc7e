package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/copytop/printshop/internal/shared"
)

func TestGateVerify(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	gate := NewGate(string(hash), "")

	require.NoError(t, gate.Verify(SectionInvoicing, "s3cret"))
	require.ErrorIs(t, gate.Verify(SectionInvoicing, "wrong"), shared.ErrGateDenied)

	// Unconfigured section stays locked even with a matching password.
	require.Error(t, gate.Verify(SectionAdmin, "s3cret"))
	require.Error(t, gate.Verify("nosuch", "s3cret"))
}

func TestSafeNext(t *testing.T) {
	require.Equal(t, "/invoicing", safeNext("/invoicing"))
	require.Equal(t, "/", safeNext(""))
	require.Equal(t, "/", safeNext("https://evil.example"))
	require.Equal(t, "/", safeNext("//evil.example"))
}
