// Package secretbox sella secretos en reposo con AES-256-GCM. El formato
// sellado es base64(nonce)|base64(ciphertext).
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// EnvVar es la variable con la clave maestra (base64 o hex de 32 bytes).
	EnvVar            = "CLOUDDRIVE_SECRETBOX_KEY"
	nonceSizeGCM      = 12  // AES-GCM nonce size recomendado (96 bits)
	requiredKeyLength = 32  // 32 bytes => AES-256
	sep               = "|" // nonce|ciphertext (ambos en base64)
)

// ErrNoKey indica que no hay clave maestra configurada.
var ErrNoKey = fmt.Errorf("%s no seteada; genere una clave con: clouddrive keygen", EnvVar)

// GenerateKey retorna una clave nueva de 32 bytes en base64.
func GenerateKey() (string, error) {
	key := make([]byte, requiredKeyLength)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Box sella y abre secretos con una clave fija.
type Box struct {
	aead cipher.AEAD
}

// New crea un Box con una clave cruda de 32 bytes.
func New(key []byte) (*Box, error) {
	if len(key) != requiredKeyLength {
		return nil, fmt.Errorf("clave inválida: %d bytes (requiere %d)", len(key), requiredKeyLength)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Box{aead: aesgcm}, nil
}

// ParseKey decodifica una clave en base64 (con o sin padding) o hex.
func ParseKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if len(key) == 2*requiredKeyLength {
		if h, err := hex.DecodeString(key); err == nil {
			return h, nil
		}
	}
	return nil, fmt.Errorf("clave inválida: se esperan %d bytes en base64 o hex", requiredKeyLength)
}

// FromEnv crea un Box con la clave de CLOUDDRIVE_SECRETBOX_KEY. Retorna
// ErrNoKey si la variable no está seteada.
func FromEnv() (*Box, error) {
	k := strings.TrimSpace(os.Getenv(EnvVar))
	if k == "" {
		return nil, ErrNoKey
	}
	key, err := ParseKey(k)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvVar, err)
	}
	return New(key)
}

// Seal cifra plainText y devuelve base64(nonce)|base64(ciphertext).
func (b *Box) Seal(plainText string) (string, error) {
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := b.aead.Seal(nil, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Open descifra un valor producido por Seal.
func (b *Box) Open(sealed string) (string, error) {
	nonceB64, ctB64, ok := strings.Cut(sealed, sep)
	if !ok {
		return "", errors.New("formato inválido: esperado base64(nonce)|base64(ciphertext)")
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(ctB64)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(nonce) != nonceSizeGCM {
		return "", fmt.Errorf("nonce inválido: esperado %d bytes, obtuvo %d", nonceSizeGCM, len(nonce))
	}
	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("gcm auth/decrypt: %w", err)
	}
	return string(pt), nil
}
