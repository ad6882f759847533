package app

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
	"github.com/dkeye/Conf/internal/domain"
)

const minRSABits = 2048

// KeyWrapper encrypts a room key for one recipient.
type KeyWrapper interface {
	Algo() string
	Wrap(key []byte) (string, error)
}

// ParsePublicKey accepts an RSA public key in PEM form or an age X25519
// recipient string.
func ParsePublicKey(s string) (KeyWrapper, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "age1") {
		r, err := age.ParseX25519Recipient(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPublicKey, err)
		}
		return ageWrapper{r: r}, nil
	}
	block, _ := pem.Decode([]byte(s))
	if block == nil {
		return nil, domain.ErrInvalidPublicKey
	}
	var pub *rsa.PublicKey
	switch block.Type {
	case "PUBLIC KEY":
		k, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPublicKey, err)
		}
		rk, ok := k.(*rsa.PublicKey)
		if !ok {
			return nil, domain.ErrInvalidPublicKey
		}
		pub = rk
	case "RSA PUBLIC KEY":
		k, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPublicKey, err)
		}
		pub = k
	default:
		return nil, domain.ErrInvalidPublicKey
	}
	if pub.N.BitLen() < minRSABits {
		return nil, fmt.Errorf("%w: rsa key shorter than %d bits", domain.ErrInvalidPublicKey, minRSABits)
	}
	return rsaWrapper{pub: pub}, nil
}

type rsaWrapper struct {
	pub *rsa.PublicKey
}

func (rsaWrapper) Algo() string { return domain.WrapRSAOAEP256 }

// Wrap uses OAEP with SHA-256 for both the digest and MGF1.
func (w rsaWrapper) Wrap(key []byte) (string, error) {
	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, w.pub, key, nil)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

type ageWrapper struct {
	r *age.X25519Recipient
}

func (ageWrapper) Algo() string { return domain.WrapAgeX25519 }

func (w ageWrapper) Wrap(key []byte) (string, error) {
	var buf bytes.Buffer
	wr, err := age.Encrypt(&buf, w.r)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(wr, bytes.NewReader(key)); err != nil {
		return "", err
	}
	if err := wr.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
