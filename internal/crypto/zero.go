package crypto

// zeroBytes overwrites b with zeros. Advisory hardening for key buffers that
// have left scope; see the note on [SecretKey].
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
