package crypt

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"io"
)

var ErrAuthFailed = errors.New("ciphertext authentication failed")

// SignSHA256RSA signs dataString with RSA PKCS#1 v1.5 over its SHA-256 digest
// and returns the signature base64-encoded.
func SignSHA256RSA(dataString string, privateKey *rsa.PrivateKey) (string, error) {
	sum := sha256.Sum256([]byte(dataString))

	sig, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, sum[:])
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifySHA256RSA verifies a base64 signature produced by SignSHA256RSA.
func VerifySHA256RSA(dataString, signature string, publicKey *rsa.PublicKey) error {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return err
	}

	sum := sha256.Sum256([]byte(dataString))
	return rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, sum[:], sig)
}

// EncryptOAEP encrypts data to the recipient's public key (RSA-OAEP SHA-256),
// base64-encoded. Used for card-sensitive fields that must never travel in clear.
func EncryptOAEP(data string, publicKey *rsa.PublicKey) (string, error) {
	out, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, publicKey, []byte(data), nil)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// HmacSHA256 returns the hex HMAC-SHA256 of data under key.
func HmacSHA256(data, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// SealedPayload is an AES-256-GCM ciphertext with everything needed to open it.
// The GCM tag is split out and persisted separately so tampering with either
// part fails closed.
type SealedPayload struct {
	Cipher []byte `bson:"cipher" json:"cipher"`
	Nonce  []byte `bson:"nonce" json:"nonce"`
	Tag    []byte `bson:"tag" json:"tag"`
}

// SealAESGCM encrypts plaintext under a 32-byte key with a fresh random nonce.
func SealAESGCM(plaintext, key []byte) (SealedPayload, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return SealedPayload{}, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return SealedPayload{}, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return SealedPayload{}, err
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	tagAt := len(sealed) - gcm.Overhead()

	return SealedPayload{
		Cipher: sealed[:tagAt],
		Nonce:  nonce,
		Tag:    sealed[tagAt:],
	}, nil
}

// OpenAESGCM decrypts a sealed payload, failing closed when the tag does not verify.
func OpenAESGCM(payload SealedPayload, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	full := append(append([]byte{}, payload.Cipher...), payload.Tag...)
	plaintext, err := gcm.Open(nil, payload.Nonce, full, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

// ParseRSAPrivateKey accepts a PEM-encoded PKCS#1 or PKCS#8 private key.
func ParseRSAPrivateKey(pemData string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("no PEM block in private key")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return key, nil
}

// ParseRSAPublicKey accepts a PEM-encoded PKIX or PKCS#1 public key.
func ParseRSAPublicKey(pemData string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("no PEM block in public key")
	}

	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return key, nil
}
