package handlers

import "crypto/subtle"

// validToken compares the presented token with the configured one in
// constant time. An empty configured token never matches.
func validToken(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
