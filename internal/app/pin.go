/**
 * @description
 * This file implements the PIN hashing scheme used by the access gate. A
 * submitted PIN is concatenated with a single application-wide salt, digested
 * with SHA-256, and hex-encoded; the stored hash is the same derivation run
 * when the owner set the PIN.
 *
 * @notes
 * - The global salt is a documented trade-off inherited from the original
 *   scheme. Moving to per-profile salts would change the stored-hash format
 *   and requires a migration, so it must not happen silently here.
 */

package app

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"regexp"
)

// A PIN is exactly 6 characters, uppercase letters and digits only. The format
// check runs before any identity lookup or rate-limit accounting.
var pinFormatPattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// ValidPinFormat reports whether the submitted value is a well-formed PIN.
func ValidPinFormat(pin string) bool {
	return pinFormatPattern.MatchString(pin)
}

// HashPin derives the stored-hash form of a PIN: lowercase hex SHA-256 over
// pin+salt.
func HashPin(pin, salt string) string {
	sum := sha256.Sum256([]byte(pin + salt))
	return hex.EncodeToString(sum[:])
}

// VerifyPin compares the derived hash of the submitted PIN against the stored
// hash in constant time. A nil stored hash never matches; a profile with PIN
// protection enabled but no hash set is effectively locked.
func VerifyPin(pin, salt string, storedHash *string) bool {
	if storedHash == nil {
		return false
	}
	computed := HashPin(pin, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(*storedHash)) == 1
}
