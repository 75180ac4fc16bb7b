// Package crypto seals document and photo payloads at rest with AES-GCM.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// sealedPrefix marks payloads written by Seal. Rows stored before a key was
// configured carry no prefix and are returned unchanged by Open.
var sealedPrefix = []byte("ems1:")

var ErrSealedWithoutKey = errors.New("payload is sealed but no encryption key is configured")

type Service struct {
	aead cipher.AEAD
}

// New accepts a 32-byte key as hex, base64 or raw text. An empty key gives a
// pass-through service.
func New(key string) (*Service, error) {
	if key == "" {
		return &Service{}, nil
	}
	decoded := decodeKey(key)
	if len(decoded) != 32 {
		return nil, fmt.Errorf("DATA_ENCRYPTION_KEY must be 32 bytes after decoding")
	}
	block, err := aes.NewCipher(decoded)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Service{aead: aead}, nil
}

func (s *Service) Configured() bool {
	return s != nil && s.aead != nil
}

func (s *Service) Seal(plain []byte) ([]byte, error) {
	if !s.Configured() || len(plain) == 0 {
		return plain, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(sealedPrefix)+len(nonce)+len(plain)+s.aead.Overhead())
	out = append(out, sealedPrefix...)
	out = append(out, nonce...)
	return s.aead.Seal(out, nonce, plain, nil), nil
}

func (s *Service) Open(stored []byte) ([]byte, error) {
	if !bytes.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	if !s.Configured() {
		return nil, ErrSealedWithoutKey
	}
	body := stored[len(sealedPrefix):]
	if len(body) < s.aead.NonceSize() {
		return nil, errors.New("sealed payload too short")
	}
	nonce, data := body[:s.aead.NonceSize()], body[s.aead.NonceSize():]
	return s.aead.Open(nil, nonce, data, nil)
}

func decodeKey(raw string) []byte {
	if len(raw) == 64 {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return decoded
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	return []byte(raw)
}
