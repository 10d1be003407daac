package usecase

import (
	"fmt"
	"net/mail"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NormalizeEmail é a forma canônica usada em todo lugar: busca no CRM,
// chave do rate limit, auditoria. Minúsculo e sem espaços nas pontas.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// Rejeita formas com display name ("Fulano <a@b.com>"): o campo é só
	// o endereço.
	if addr.Address != email {
		return false
	}
	// ParseAddress aceita domínio sem ponto; pra lead de formulário isso é
	// sempre digitação errada.
	at := strings.LastIndex(email, "@")
	if at < 0 || !strings.Contains(email[at+1:], ".") {
		return false
	}
	return true
}

func ValidateSyncLeadInput(input SyncLeadInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.Email) == "" {
		errors = append(errors, ValidationError{"email", "is required"})
	} else if !IsValidEmail(input.Email) {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}

	if len(input.FirstName) > 200 {
		errors = append(errors, ValidationError{"firstName", "must not exceed 200 characters"})
	}
	if len(input.LastName) > 200 {
		errors = append(errors, ValidationError{"lastName", "must not exceed 200 characters"})
	}

	return errors
}
