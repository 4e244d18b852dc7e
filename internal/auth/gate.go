// Package auth implements the password gate protecting sensitive sections.
// There are no user accounts; a shared section password unlocks the section
// for the current session, as with the invoicing page.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/copytop/printshop/internal/shared"
)

// Gated sections.
const (
	SectionInvoicing = "invoicing"
	SectionAdmin     = "admin"
)

// Gate verifies section passwords against configured bcrypt hashes.
type Gate struct {
	hashes map[string]string
}

// NewGate builds a Gate. Sections with an empty hash stay locked for everyone.
func NewGate(invoicingHash, adminHash string) *Gate {
	return &Gate{hashes: map[string]string{
		SectionInvoicing: invoicingHash,
		SectionAdmin:     adminHash,
	}}
}

// KnownSection reports whether section names a configured gate.
func (g *Gate) KnownSection(section string) bool {
	_, ok := g.hashes[section]
	return ok
}

// Verify checks the password for a section.
func (g *Gate) Verify(section, password string) error {
	hash, ok := g.hashes[section]
	if !ok || hash == "" {
		return errors.New("auth: unknown or unconfigured section")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return shared.ErrGateDenied
	}
	return nil
}

// Grant marks the section unlocked on the session.
func Grant(sess *shared.Session, section string) {
	sess.Set(sessionKey(section), "granted")
}

// Granted reports whether the session has unlocked the section.
func Granted(sess *shared.Session, section string) bool {
	return sess != nil && sess.Get(sessionKey(section)) == "granted"
}

func sessionKey(section string) string {
	return "gate:" + section
}
