// Package validator checks structs before they leave the process.
//
// Callers depend on the Validator interface; the go-playground/validator v10
// implementation lives here together with the custom rules the auth API
// expects (password length, numeric WhatsApp number).
package validator
