package jwtx

// Supported signing algorithms. The algorithm is fixed at startup.
const (
	AlgorithmRS256 = "RS256"
	AlgorithmHS256 = "HS256"
)

// Signer is anything that can sign our claims into a compact JWT.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)

	// VerificationKey is what a KeySet stores to check signatures:
	// *rsa.PublicKey for RS256 and []byte for HS256.
	VerificationKey() any

	Validate() error
}

// Publisher is implemented by signers whose verification key can be
// handed out (asymmetric keys only).
type Publisher interface {
	PublicJWK() JWK
	PublicPEM() (string, error)
}

// NewSignerRS256 creates an RS256 signer from a PKCS1 or PKCS8 PEM key.
func NewSignerRS256(kid string, pemKey []byte) (Signer, error) {
	return newRS256Signer(kid, pemKey)
}

// NewSignerHS256 creates an HS256 signer. The secret must be at least
// MinHMACSecretBytes long.
func NewSignerHS256(kid string, secret []byte) (Signer, error) {
	return newHS256Signer(kid, secret)
}
