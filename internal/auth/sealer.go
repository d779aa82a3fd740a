package auth

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/BradenHooton/showcase/internal/models"
)

const sealerKeyInfo = "showcase session v1"

// Sealer encrypts and authenticates session payloads for the cookie.
// The cookie name is bound as associated data so a value cannot be
// replayed under a different cookie.
type Sealer struct {
	aead cipher.AEAD
	aad  []byte
}

// NewSealer derives an XChaCha20-Poly1305 key from the session secret
func NewSealer(secret, cookieName string) (*Sealer, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is empty")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(sealerKeyInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cipher: %w", err)
	}

	return &Sealer{aead: aead, aad: []byte(cookieName)}, nil
}

// Seal returns the cookie-safe encoding of nonce||ciphertext
func (s *Sealer) Seal(session *models.Session) (string, error) {
	plaintext, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, plaintext, s.aad)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Every failure collapses to ErrSessionInvalid.
func (s *Sealer) Open(value string) (*models.Session, error) {
	raw, err := base64.RawURLEncoding.Strict().DecodeString(value)
	if err != nil {
		return nil, models.ErrSessionInvalid
	}

	if len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return nil, models.ErrSessionInvalid
	}

	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, s.aad)
	if err != nil {
		return nil, models.ErrSessionInvalid
	}

	var session models.Session
	if err := json.Unmarshal(plaintext, &session); err != nil {
		return nil, models.ErrSessionInvalid
	}
	if session.Version != models.SessionVersion {
		return nil, models.ErrSessionInvalid
	}

	return &session, nil
}
