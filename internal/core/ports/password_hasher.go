package ports

// PasswordHasher is the one-way credential hashing contract. Implementations
// are pure and CPU-bound; hashing cost is intentional latency, not I/O wait.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Verify reports a mismatch as false, never as an error.
	Verify(plain, digest string) bool
	// DummyVerify burns one verification against a decoy digest so the
	// unknown-user login path costs the same as the known-user path.
	DummyVerify(plain string)
}
