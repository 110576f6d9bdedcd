package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
)

type Identity struct {
	UserID    string `json:"user_id"`
	Anonymous bool   `json:"anonymous"`
}

// Provider signs a visitor in. It is the only contract the service uses
// against the identity system.
type Provider interface {
	SignInWithToken(ctx context.Context, token string) (Identity, error)
	SignInAnonymously(ctx context.Context) (Identity, error)
}

var ErrInvalidToken = errors.New("invalid custom token")

// LocalProvider accepts custom tokens of the form "<uid>.<hex hmac-sha256(uid)>"
// and mints random ids for anonymous visitors.
type LocalProvider struct {
	secret []byte
}

func NewLocalProvider(secret string) *LocalProvider {
	return &LocalProvider{secret: []byte(secret)}
}

func (p *LocalProvider) SignInWithToken(_ context.Context, token string) (Identity, error) {
	i := strings.LastIndexByte(token, '.')
	if i <= 0 || len(p.secret) == 0 {
		return Identity{}, ErrInvalidToken
	}
	uid, sig := token[:i], token[i+1:]
	got, err := hex.DecodeString(sig)
	if err != nil || !hmac.Equal(got, sign(p.secret, uid)) {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: uid}, nil
}

func (p *LocalProvider) SignInAnonymously(_ context.Context) (Identity, error) {
	return Identity{UserID: uuid.NewString(), Anonymous: true}, nil
}

// IssueToken mints a custom token for uid that LocalProvider with the same
// secret accepts.
func IssueToken(secret, uid string) string {
	return uid + "." + hex.EncodeToString(sign([]byte(secret), uid))
}

func sign(secret []byte, uid string) []byte {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(uid))
	return m.Sum(nil)
}
