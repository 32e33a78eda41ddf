package outbound

type PasswordService interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches hash. A mismatch is not an
	// error; the error return is for hashing failures only.
	Verify(password, hash string) (bool, error)
}
