package webhook

// SecurityConfig holds webhook security settings
type SecurityConfig struct {
	VerificationToken string   // Feishu verification token (optional)
	EncryptKey        string   // Feishu encrypt key; enables decryption and signature checks
	AllowedIPs        []string // IP whitelist (optional)
	RateLimitPerMin   int      // Max requests per minute per source, 0 disables
}

// Envelope is an opened Feishu callback body.
type Envelope struct {
	// Plain is the decrypted event JSON.
	Plain []byte
	// Challenge is set for url_verification requests.
	Challenge string
	// Token is the verification token carried by the event (v1 or v2 schema).
	Token string
}
