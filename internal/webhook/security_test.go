package webhook

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
)

func encryptForTest(t *testing.T, plain []byte, key string) string {
	t.Helper()
	k := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(k[:])
	if err != nil {
		t.Fatal(err)
	}
	pad := aes.BlockSize - len(plain)%aes.BlockSize
	padded := append(append([]byte{}, plain...), bytes.Repeat([]byte{byte(pad)}, pad)...)

	iv := []byte("0123456789abcdef")
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(append(iv, out...))
}

func TestOpen(t *testing.T) {
	t.Run("plain challenge", func(t *testing.T) {
		v := NewSecurityValidator(SecurityConfig{})
		env, err := v.Open([]byte(`{"challenge":"c-1","token":"vt","type":"url_verification"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if env.Challenge != "c-1" || env.Token != "vt" {
			t.Errorf("unexpected envelope %+v", env)
		}
	})

	t.Run("encrypted event", func(t *testing.T) {
		v := NewSecurityValidator(SecurityConfig{EncryptKey: "test key"})
		plain := `{"schema":"2.0","header":{"event_id":"e1","token":"vt2","event_type":"im.message.receive_v1"},"event":{}}`
		body := fmt.Sprintf(`{"encrypt":%q}`, encryptForTest(t, []byte(plain), "test key"))

		env, err := v.Open([]byte(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(env.Plain) != plain || env.Token != "vt2" || env.Challenge != "" {
			t.Errorf("unexpected envelope %+v", env)
		}
	})

	t.Run("encrypted without key", func(t *testing.T) {
		v := NewSecurityValidator(SecurityConfig{})
		if _, err := v.Open([]byte(`{"encrypt":"abc"}`)); !errors.Is(err, ErrEncryptKeyUnset) {
			t.Errorf("expected ErrEncryptKeyUnset, got %v", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		v := NewSecurityValidator(SecurityConfig{EncryptKey: "other"})
		body := fmt.Sprintf(`{"encrypt":%q}`, encryptForTest(t, []byte(`{"a":1}`), "test key"))
		if _, err := v.Open([]byte(body)); !errors.Is(err, ErrInvalidCipher) {
			t.Errorf("expected ErrInvalidCipher, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		v := NewSecurityValidator(SecurityConfig{})
		if _, err := v.Open([]byte(`not json`)); !errors.Is(err, ErrInvalidBody) {
			t.Errorf("expected ErrInvalidBody, got %v", err)
		}
	})
}

func TestValidateFeishuSignature(t *testing.T) {
	body := []byte(`{"encrypt":"x"}`)
	sum := sha256.Sum256([]byte("1700000000" + "nonce" + "key" + string(body)))
	sig := hex.EncodeToString(sum[:])

	v := NewSecurityValidator(SecurityConfig{EncryptKey: "key"})
	if err := v.ValidateFeishuSignature("1700000000", "nonce", sig, body); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}
	if err := v.ValidateFeishuSignature("1700000000", "nonce", sig, []byte(`{}`)); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
	if err := v.ValidateFeishuSignature("1700000000", "nonce", "", body); !errors.Is(err, ErrMissingSignature) {
		t.Errorf("expected ErrMissingSignature, got %v", err)
	}

	unsigned := NewSecurityValidator(SecurityConfig{})
	if err := unsigned.ValidateFeishuSignature("", "", "", body); err != nil {
		t.Errorf("signature check must be skipped without encrypt key: %v", err)
	}
}

func TestValidateVerificationToken(t *testing.T) {
	v := NewSecurityValidator(SecurityConfig{VerificationToken: "vt"})
	if err := v.ValidateVerificationToken("vt"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.ValidateVerificationToken("nope"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
	if err := NewSecurityValidator(SecurityConfig{}).ValidateVerificationToken("any"); err != nil {
		t.Errorf("unset token must accept everything: %v", err)
	}
}

func TestValidateIPAddress(t *testing.T) {
	v := NewSecurityValidator(SecurityConfig{AllowedIPs: []string{"10.0.0.0/8", "192.168.1.5"}})

	tests := []struct {
		name    string
		remote  string
		xff     string
		wantErr bool
	}{
		{"cidr match", "10.1.2.3:5555", "", false},
		{"exact match", "192.168.1.5:80", "", false},
		{"forwarded", "127.0.0.1:1", "10.9.9.9, 127.0.0.1", false},
		{"rejected", "8.8.8.8:53", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/webhook/feishu", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			err := v.ValidateIPAddress(r)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIPAddress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckRateLimit(t *testing.T) {
	v := NewSecurityValidator(SecurityConfig{RateLimitPerMin: 20}) // burst 2

	if err := v.CheckRateLimit("feishu"); err != nil {
		t.Fatalf("first request rejected: %v", err)
	}
	if err := v.CheckRateLimit("feishu"); err != nil {
		t.Fatalf("second request rejected: %v", err)
	}
	if err := v.CheckRateLimit("feishu"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if err := v.CheckRateLimit("telegram"); err != nil {
		t.Errorf("sources must be limited independently: %v", err)
	}

	unlimited := NewSecurityValidator(SecurityConfig{})
	for i := 0; i < 100; i++ {
		if err := unlimited.CheckRateLimit("feishu"); err != nil {
			t.Fatalf("rate limit 0 must disable limiting: %v", err)
		}
	}
}
