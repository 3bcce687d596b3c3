package webhook

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"

	"github.com/tidwall/gjson"
)

// Open decrypts (when needed) a Feishu callback body and extracts the
// url_verification challenge and the verification token.
func (v *SecurityValidator) Open(body []byte) (Envelope, error) {
	if !gjson.ValidBytes(body) {
		return Envelope{}, ErrInvalidBody
	}

	plain := body
	if enc := gjson.GetBytes(body, "encrypt"); enc.Exists() {
		if v.config.EncryptKey == "" {
			return Envelope{}, ErrEncryptKeyUnset
		}
		var err error
		plain, err = decrypt(enc.String(), v.config.EncryptKey)
		if err != nil {
			return Envelope{}, err
		}
		if !gjson.ValidBytes(plain) {
			return Envelope{}, ErrInvalidCipher
		}
	}

	doc := gjson.ParseBytes(plain)
	env := Envelope{Plain: plain, Token: doc.Get("header.token").String()}
	if env.Token == "" {
		env.Token = doc.Get("token").String()
	}
	if doc.Get("type").String() == "url_verification" || (doc.Get("challenge").Exists() && !doc.Get("header").Exists()) {
		env.Challenge = doc.Get("challenge").String()
	}
	return env, nil
}

// decrypt reverses Feishu event encryption: AES-256-CBC with key
// sha256(encryptKey), the IV prepended to the ciphertext, PKCS#7 padding.
func decrypt(encoded, encryptKey string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCipher
	}
	if len(raw) < 2*aes.BlockSize || len(raw)%aes.BlockSize != 0 {
		return nil, ErrInvalidCipher
	}

	key := sha256.Sum256([]byte(encryptKey))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, ErrInvalidCipher
	}

	iv, data := raw[:aes.BlockSize], raw[aes.BlockSize:]
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)

	pad := int(out[len(out)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(out) {
		return nil, ErrInvalidCipher
	}
	if !bytes.Equal(out[len(out)-pad:], bytes.Repeat([]byte{byte(pad)}, pad)) {
		return nil, ErrInvalidCipher
	}
	return out[:len(out)-pad], nil
}
