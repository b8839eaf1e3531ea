package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// nonceSize はsecretboxのnonce長。
const nonceSize = 24

// ErrUnseal は暗号化されたAPIキーを復号できなかったことを表す。
var ErrUnseal = errors.New("APIキーの復号に失敗しました")

// Sealer はセッション外部へ保存するAPIキーを暗号化する。
// 鍵はセッションシークレットのSHA-256から導出する。
type Sealer struct {
	key [32]byte
}

// NewSealer はシークレットから Sealer を生成する。
func NewSealer(secret string) *Sealer {
	return &Sealer{key: sha256.Sum256([]byte(secret))}
}

// Seal は平文を暗号化し、nonceを先頭に付けたbase64文字列を返す。
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("nonceの生成に失敗: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

// Open は Seal で暗号化された文字列を復号する。
func (s *Sealer) Open(sealed string) (string, error) {
	box, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnseal, err)
	}
	if len(box) < nonceSize+secretbox.Overhead {
		return "", ErrUnseal
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrUnseal
	}
	return string(plain), nil
}
