package entity

import "encoding/json"

// Identity is the throwaway account a run registers and logs in with.
type Identity struct {
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"no_whatsapp" validate:"required,phone"`
	Password string `json:"password" validate:"required,password"`
	Name     string `json:"nama" validate:"required,max=100"`
	Type     string `json:"type" validate:"required,alphanum"`
}

type SendOTPRequest struct {
	NoWhatsapp string `json:"no_whatsapp"`
}

// VerifyOTPRequest carries Code as the raw JSON value returned by the
// send-otp step so a string code stays a string and a number stays a number.
type VerifyOTPRequest struct {
	NoWhatsapp string          `json:"no_whatsapp"`
	Code       json.RawMessage `json:"code"`
	Email      string          `json:"email"`
	Nama       string          `json:"nama"`
	Password   string          `json:"password"`
	Type       string          `json:"type"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
