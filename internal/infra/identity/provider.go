package identity

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"rental-billing/internal/domain"
	"rental-billing/internal/domain/model"
	"rental-billing/internal/domain/ports/adapter"
	"rental-billing/internal/infra/security"
)

// Compile-time check
var _ adapter.IdentityProvider = (*Provider)(nil)

// Service codes per provider documentation. The general-auth endpoint and the
// real-name-check endpoint accept different codes and return DI/CI encrypted
// vs in the clear.
const (
	serviceCodeGeneral  = "01001"
	serviceCodeRealName = "01002"

	mTxIDLen = 20
)

// Provider builds outbound verification requests and decodes provider
// callbacks for both request flavors.
type Provider struct {
	merchantID string
	apiKey     string
	decryptKey string
	decryptIV  string
	successURL string
	failURL    string
	now        func() time.Time
}

func NewProvider(merchantID, apiKey, decryptKey, decryptIV, successURL, failURL string) *Provider {
	return &Provider{
		merchantID: merchantID,
		apiKey:     apiKey,
		decryptKey: decryptKey,
		decryptIV:  decryptIV,
		successURL: successURL,
		failURL:    failURL,
		now:        time.Now,
	}
}

// NewMTxID generates a client transaction id: 14 timestamp digits plus a
// random alphanumeric suffix, 20 characters total.
func (p *Provider) NewMTxID() string {
	ts := p.now().Format("20060102150405")
	// ULID entropy tail gives us Crockford-base32 randomness.
	suffix := ulid.Make().String()
	return ts + suffix[len(suffix)-(mTxIDLen-len(ts)):]
}

// BuildRequest generates the transaction id and auth hash for a new attempt.
// Auth hash = SHA-256(merchantID + mTxId + apiKey), per provider docs.
func (p *Provider) BuildRequest(flavor model.VerifyFlavor, userID string) (*model.VerifyRequest, error) {
	if userID == "" {
		return nil, domain.ErrValidation
	}
	svc := serviceCodeGeneral
	if flavor == model.FlavorRealNameCheck {
		svc = serviceCodeRealName
	}
	mTxID := p.NewMTxID()
	return &model.VerifyRequest{
		Flavor:      flavor,
		MerchantID:  p.merchantID,
		MTxID:       mTxID,
		ServiceCode: svc,
		AuthHash:    security.SHA256Hex(p.merchantID + mTxID + p.apiKey),
		SuccessURL:  withUID(p.successURL, userID),
		FailURL:     withUID(p.failURL, userID),
		ReqSVCCd:    "01",
	}, nil
}

// withUID tags the callback URL with the requesting account so the callback
// handler can correlate the provider's response back to a user.
func withUID(raw, userID string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("uid", userID)
	u.RawQuery = q.Encode()
	return u.String()
}

// DecodeResult validates the result code and decrypts the encrypted fields.
// DI/CI arrive encrypted only on the general-auth flavor; the real-name-check
// flavor delivers them in the clear and they must not pass through decrypt.
func (p *Provider) DecodeResult(cb *model.VerifyCallback) (*model.VerificationResult, error) {
	if cb == nil || cb.MTxID == "" {
		return nil, domain.ErrValidation
	}
	if cb.ResultCode != "0000" {
		return nil, fmt.Errorf("%w: code %s msg %s", domain.ErrInvalidResultCode, cb.ResultCode, cb.ResultMsg)
	}

	name, err := p.decryptField(cb.EncName)
	if err != nil {
		return nil, err
	}
	phone, err := p.decryptField(cb.EncPhone)
	if err != nil {
		return nil, err
	}
	birth, err := p.decryptField(cb.EncBirth)
	if err != nil {
		return nil, err
	}
	gender, err := p.decryptField(cb.EncGender)
	if err != nil {
		return nil, err
	}

	isForeign := false
	if cb.EncForeign != "" {
		foreign, err := p.decryptField(cb.EncForeign)
		if err != nil {
			return nil, err
		}
		isForeign = strings.EqualFold(foreign, "Y") || foreign == "1"
	}

	di, ci := cb.DI, cb.CI
	if cb.Flavor == model.FlavorGeneralAuth {
		if di, err = p.decryptField(cb.DI); err != nil {
			return nil, err
		}
		if ci, err = p.decryptField(cb.CI); err != nil {
			return nil, err
		}
	}

	return &model.VerificationResult{
		UserName:     name,
		UserPhone:    digitsOnly(phone),
		UserBirthday: birth,
		UserGender:   gender,
		IsForeign:    isForeign,
		DI:           di,
		CI:           ci,
		MTxID:        cb.MTxID,
		VerifiedAt:   p.now(),
	}, nil
}

func (p *Provider) decryptField(b64 string) (string, error) {
	if b64 == "" {
		return "", fmt.Errorf("%w: empty encrypted field", domain.ErrDecryption)
	}
	return security.DecryptCBC(b64, p.decryptKey, p.decryptIV)
}

// digitsOnly strips formatting from a phone number; providers send either 10
// or 11 digits with optional dashes.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
