package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrInvalidToken is returned for malformed or forged tokens.
var ErrInvalidToken = errors.New("auth: invalid token")

// CreateSessionToken は subject から署名付きトークンを生成する
func CreateSessionToken(subject string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(subject))
	sig := hex.EncodeToString(mac.Sum(nil))
	return base64.URLEncoding.EncodeToString([]byte(subject)) + "." + sig
}

// VerifySessionToken はトークンを検証し subject を返す
func VerifySessionToken(token string, secret []byte) (string, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", ErrInvalidToken
	}
	payload, err := base64.URLEncoding.DecodeString(parts[0])
	if err != nil || len(payload) == 0 {
		return "", ErrInvalidToken
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(parts[1])) {
		return "", ErrInvalidToken
	}
	return string(payload), nil
}

const sessionCookieName = "portfolio_session"
const minSecretLen = 32

// AdminSubject is the subject carried by admin tokens.
const AdminSubject = "admin"

// SessionCookieName はセッションクッキー名
func SessionCookieName() string {
	return sessionCookieName
}

// SessionSecretBytes は文字列から署名用のバイト列を生成する（最低32バイト）
func SessionSecretBytes(s string) []byte {
	b := []byte(s)
	if len(b) < minSecretLen {
		out := make([]byte, minSecretLen)
		copy(out, b)
		return out
	}
	return b
}
