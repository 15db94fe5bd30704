package builtin

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"go-nexus/pkg/tools"
	"golang.org/x/crypto/pbkdf2"
	"hash"
	"io"
)

const (
	pbkdf2Iterations = 100000
	saltSize         = 16
	keySize          = 32
)

var hashers = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

type Hash struct {
	tools.Base
}

func NewHash() *Hash {
	return &Hash{Base: tools.NewBase(tools.Descriptor{
		Name:        "hash",
		Description: "Compute a hash digest of text (md5, sha1, sha256, sha512)",
		Parameters: []tools.Parameter{
			{Name: "text", Type: "string", Description: "Text to hash", Required: true},
			{Name: "algorithm", Type: "string", Description: "md5, sha1, sha256 or sha512", Default: "sha256"},
		},
	})}
}

func (h *Hash) Execute(_ context.Context, args map[string]any) (tools.Result, error) {
	text := tools.String(args, "text")
	algorithm := tools.String(args, "algorithm")
	newHash, ok := hashers[algorithm]
	if !ok {
		return tools.Fail("Unsupported algorithm: %s", algorithm), nil
	}
	d := newHash()
	d.Write([]byte(text))

	res := tools.Ok(map[string]any{
		"algorithm":    algorithm,
		"hash":         hex.EncodeToString(d.Sum(nil)),
		"input_length": len(text),
	})
	res.Metadata["algorithm"] = algorithm
	return res, nil
}

type Base64 struct {
	tools.Base
}

func NewBase64() *Base64 {
	return &Base64{Base: tools.NewBase(tools.Descriptor{
		Name:        "base64",
		Description: "Encode or decode base64 text",
		Parameters: []tools.Parameter{
			{Name: "text", Type: "string", Description: "Input text", Required: true},
			{Name: "operation", Type: "string", Description: "encode or decode", Default: "encode"},
		},
	})}
}

func (b *Base64) Execute(_ context.Context, args map[string]any) (tools.Result, error) {
	text := tools.String(args, "text")
	op := tools.String(args, "operation")
	switch op {
	case "encode":
		return tools.Ok(map[string]any{"operation": op, "result": base64.StdEncoding.EncodeToString([]byte(text))}), nil
	case "decode":
		out, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return tools.Result{}, fmt.Errorf("decode: %w", err)
		}
		return tools.Ok(map[string]any{"operation": op, "result": string(out)}), nil
	default:
		return tools.Fail("Unsupported operation: %s", op), nil
	}
}

type Encrypt struct {
	tools.Base
}

func NewEncrypt() *Encrypt {
	return &Encrypt{Base: tools.NewBase(tools.Descriptor{
		Name:        "encrypt",
		Description: "Encrypt text with a password (AES-256-GCM)",
		Parameters: []tools.Parameter{
			{Name: "text", Type: "string", Description: "Plaintext", Required: true},
			{Name: "password", Type: "string", Description: "Password to derive the key from", Required: true},
		},
	})}
}

func (e *Encrypt) Execute(_ context.Context, args map[string]any) (tools.Result, error) {
	out, err := encrypt([]byte(tools.String(args, "text")), tools.String(args, "password"))
	if err != nil {
		return tools.Result{}, err
	}
	return tools.Ok(map[string]any{"ciphertext": out}), nil
}

type Decrypt struct {
	tools.Base
}

func NewDecrypt() *Decrypt {
	return &Decrypt{Base: tools.NewBase(tools.Descriptor{
		Name:        "decrypt",
		Description: "Decrypt text produced by the encrypt tool",
		Parameters: []tools.Parameter{
			{Name: "ciphertext", Type: "string", Description: "Output of encrypt", Required: true},
			{Name: "password", Type: "string", Description: "Password used to encrypt", Required: true},
		},
	})}
}

func (d *Decrypt) Execute(_ context.Context, args map[string]any) (tools.Result, error) {
	out, err := decrypt(tools.String(args, "ciphertext"), tools.String(args, "password"))
	if err != nil {
		return tools.Result{}, err
	}
	return tools.Ok(map[string]any{"plaintext": string(out)}), nil
}

// encrypt returns base64(salt || nonce || sealed).
func encrypt(plaintext []byte, password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}
	gcm, err := newGCM(password, salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	out := append(salt, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

func decrypt(encoded, password string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(raw) < saltSize {
		return nil, errors.New("ciphertext too short")
	}
	gcm, err := newGCM(password, raw[:saltSize])
	if err != nil {
		return nil, err
	}
	rest := raw[saltSize:]
	if len(rest) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	out, err := gcm.Open(nil, rest[:gcm.NonceSize()], rest[gcm.NonceSize():], nil)
	if err != nil {
		return nil, errors.New("decryption failed: wrong password or corrupted data")
	}
	return out, nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
