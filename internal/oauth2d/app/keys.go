package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aussiebroadwan/oauth2d/pkg/jwtx"
)

// InitAuthKeys builds the KeyManager for the configured algorithm.
//
// RS256 signs with the PEM key at PrivateKeyFile, or with a key generated
// at startup when none is configured. Generated keys live only in memory,
// so tokens do not survive a restart.
//
// HS256 needs a secret of at least 32 bytes, given inline or as a file.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Algorithm:   cfg.Algorithm,
		Issuer:      cfg.Issuer,
		KeyID:       cfg.KeyID,
		RSABits:     cfg.RSABits,
		GracePeriod: cfg.KeyGracePeriod,
	}

	switch cfg.Algorithm {
	case jwtx.AlgorithmRS256:
		if cfg.PrivateKeyFile != "" {
			pemKey, err := os.ReadFile(cfg.PrivateKeyFile)
			if err != nil {
				return nil, fmt.Errorf("read private key: %w", err)
			}
			opts.PrivateKeyPEM = pemKey
		}
	case jwtx.AlgorithmHS256:
		secret, err := hmacSecret(cfg)
		if err != nil {
			return nil, err
		}
		opts.Secret = secret
	}

	km, err := jwtx.NewKeyManager(opts)
	if err != nil {
		return nil, err
	}

	signer := km.Signer()
	logger.Info("signing key loaded",
		"algorithm", signer.Alg(),
		"kid", signer.KID(),
		"issuer", cfg.Issuer,
		"grace_period", cfg.KeyGracePeriod,
	)
	if cfg.Algorithm == jwtx.AlgorithmRS256 && cfg.PrivateKeyFile == "" {
		logger.Warn("using a generated RSA key; tokens will not survive a restart")
	}

	return km, nil
}

func hmacSecret(cfg Config) ([]byte, error) {
	switch {
	case cfg.HMACSecret != "" && cfg.HMACSecretFile != "":
		return nil, fmt.Errorf("set only one of AUTH_HMAC_SECRET and AUTH_HMAC_SECRET_FILE")
	case cfg.HMACSecret != "":
		return []byte(cfg.HMACSecret), nil
	case cfg.HMACSecretFile != "":
		data, err := os.ReadFile(cfg.HMACSecretFile)
		if err != nil {
			return nil, fmt.Errorf("read HMAC secret: %w", err)
		}
		return []byte(strings.TrimSpace(string(data))), nil
	default:
		return nil, fmt.Errorf("HS256 requires AUTH_HMAC_SECRET or AUTH_HMAC_SECRET_FILE")
	}
}
