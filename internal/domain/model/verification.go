package model

import "time"

// VerifyFlavor selects between the provider's general-auth endpoint and its
// dedicated real-name-check endpoint. They differ in service code and in
// whether DI/CI arrive encrypted.
type VerifyFlavor string

const (
	FlavorGeneralAuth   VerifyFlavor = "general"
	FlavorRealNameCheck VerifyFlavor = "realname"
)

// VerifyOutcome is the failure taxonomy for the identity flow.
type VerifyOutcome string

const (
	OutcomeSuccess               VerifyOutcome = "SUCCESS"
	OutcomeInvalidResultCode     VerifyOutcome = "INVALID_RESULT_CODE"
	OutcomeDecryptError          VerifyOutcome = "DECRYPT_ERROR"
	OutcomeDuplicateVerification VerifyOutcome = "DUPLICATE_VERIFICATION"
	OutcomeServerError           VerifyOutcome = "SERVER_ERROR"
)

// VerifyRequest is the parameter bag the browser relays to the provider's
// auth page via a same-origin popup.
type VerifyRequest struct {
	Flavor      VerifyFlavor `json:"flavor"`
	MerchantID  string       `json:"mid"`
	MTxID       string       `json:"mTxId"`
	ServiceCode string       `json:"serviceCode"`
	AuthHash    string       `json:"authHash"`
	SuccessURL  string       `json:"successUrl"`
	FailURL     string       `json:"failUrl"`
	ReqSVCCd    string       `json:"reqSvcCd"`
}

// VerifyCallback is the provider's form-encoded callback payload. The enc_*
// fields are base64 block-cipher ciphertext; DI and CI may arrive in the clear
// depending on flavor.
type VerifyCallback struct {
	Flavor     VerifyFlavor
	ResultCode string
	ResultMsg  string
	MTxID      string
	TxID       string
	EncName    string
	EncPhone   string
	EncBirth   string
	EncGender  string
	EncForeign string
	DI         string
	CI         string
}

// VerificationResult is the decrypted identity of one natural person. DI and CI
// are provider-issued per-person identifiers and must be globally unique per
// person across accounts.
type VerificationResult struct {
	UserID       string
	UserName     string
	UserPhone    string
	UserBirthday string
	UserGender   string
	IsForeign    bool
	DI           string
	CI           string
	MTxID        string
	VerifiedAt   time.Time
}
