package models

// AlgorithmFamily classifies an Algorithm by the kind of cryptographic
// primitive it names.
type AlgorithmFamily int

const (
	// Symmetric identifies block-cipher algorithms used for payload and
	// key-wrapping encryption (AES in CBC or GCM mode).
	Symmetric AlgorithmFamily = 1

	// Asymmetric identifies public-key algorithms used for signatures and
	// circle-key wrapping (RSA).
	Asymmetric AlgorithmFamily = 2

	// PasswordBased identifies key-derivation transforms that turn a
	// passphrase and salt into a symmetric key (PBKDF2 family).
	PasswordBased AlgorithmFamily = 3

	// Digest identifies hash algorithms used for checksums and signatures.
	Digest AlgorithmFamily = 4
)

// CipherMode selects the block-cipher mode of operation for symmetric
// algorithms. It is zero for non-symmetric families.
type CipherMode int

const (
	// ModeCBC is cipher-block chaining with PKCS#7 padding and a 16-byte IV.
	ModeCBC CipherMode = 1

	// ModeGCM is Galois/counter mode with a 12-byte nonce and an
	// authentication tag appended to the ciphertext.
	ModeGCM CipherMode = 2
)

// Algorithm describes one entry of the closed algorithm catalogue.
//
// Every key and every ciphertext the system persists is tagged with the Name
// of the Algorithm that produced it, so historical data remains decryptable
// after the configured defaults change. Values are immutable; only the
// catalogue variables below should ever be used.
type Algorithm struct {
	// Name is the stable identifier persisted alongside keys and
	// ciphertexts. It must never change for an existing catalogue entry.
	Name string

	// Family is the primitive class of the algorithm.
	Family AlgorithmFamily

	// KeyBits is the key length in bits. For PasswordBased entries it is
	// the length of the derived symmetric key.
	KeyBits int

	// Mode is the block-cipher mode for Symmetric entries and for the
	// symmetric key a PasswordBased entry derives. Zero otherwise.
	Mode CipherMode
}

// KeyBytes returns the key length in bytes.
func (a Algorithm) KeyBytes() int {
	return a.KeyBits / 8
}

// IVLength returns the required IV/nonce length in bytes for symmetric and
// password-based entries: 16 for CBC, 12 for GCM. It returns 0 for families
// that take no IV.
func (a Algorithm) IVLength() int {
	switch a.Mode {
	case ModeCBC:
		return 16
	case ModeGCM:
		return 12
	default:
		return 0
	}
}

// The algorithm catalogue. Symmetric entries cover AES in CBC and GCM mode at
// all supported lengths; asymmetric entries cover RSA; password-based entries
// derive AES keys via PBKDF2-HMAC-SHA256; digest entries cover the checksum
// and signature hashes.
var (
	AES128CBC = Algorithm{Name: "AES_CBC_128", Family: Symmetric, KeyBits: 128, Mode: ModeCBC}
	AES192CBC = Algorithm{Name: "AES_CBC_192", Family: Symmetric, KeyBits: 192, Mode: ModeCBC}
	AES256CBC = Algorithm{Name: "AES_CBC_256", Family: Symmetric, KeyBits: 256, Mode: ModeCBC}
	AES128GCM = Algorithm{Name: "AES_GCM_128", Family: Symmetric, KeyBits: 128, Mode: ModeGCM}
	AES192GCM = Algorithm{Name: "AES_GCM_192", Family: Symmetric, KeyBits: 192, Mode: ModeGCM}
	AES256GCM = Algorithm{Name: "AES_GCM_256", Family: Symmetric, KeyBits: 256, Mode: ModeGCM}

	RSA2048 = Algorithm{Name: "RSA_2048", Family: Asymmetric, KeyBits: 2048}
	RSA4096 = Algorithm{Name: "RSA_4096", Family: Asymmetric, KeyBits: 4096}
	RSA8192 = Algorithm{Name: "RSA_8192", Family: Asymmetric, KeyBits: 8192}

	PBE128 = Algorithm{Name: "PBE_128", Family: PasswordBased, KeyBits: 128, Mode: ModeCBC}
	PBE192 = Algorithm{Name: "PBE_192", Family: PasswordBased, KeyBits: 192, Mode: ModeCBC}
	PBE256 = Algorithm{Name: "PBE_256", Family: PasswordBased, KeyBits: 256, Mode: ModeCBC}

	SHA256 = Algorithm{Name: "SHA_256", Family: Digest, KeyBits: 256}
	SHA512 = Algorithm{Name: "SHA_512", Family: Digest, KeyBits: 512}
)

// catalogue lists every supported algorithm, keyed for name lookups.
var catalogue = map[string]Algorithm{
	AES128CBC.Name: AES128CBC,
	AES192CBC.Name: AES192CBC,
	AES256CBC.Name: AES256CBC,
	AES128GCM.Name: AES128GCM,
	AES192GCM.Name: AES192GCM,
	AES256GCM.Name: AES256GCM,
	RSA2048.Name:   RSA2048,
	RSA4096.Name:   RSA4096,
	RSA8192.Name:   RSA8192,
	PBE128.Name:    PBE128,
	PBE192.Name:    PBE192,
	PBE256.Name:    PBE256,
	SHA256.Name:    SHA256,
	SHA512.Name:    SHA512,
}

// AlgorithmByName resolves a persisted algorithm tag back to its catalogue
// entry. The ok flag is false for unknown names; callers must treat that as
// unreadable data, not substitute a default.
func AlgorithmByName(name string) (Algorithm, bool) {
	a, ok := catalogue[name]
	return a, ok
}
