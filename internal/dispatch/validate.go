package dispatch

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/xvault-labs/xvault-core/internal/ledgeraddr"
	"github.com/xvault-labs/xvault-core/internal/xvaulterr"
)

// addressPattern, saltPattern, and cidPattern are the format grammars
// for ledger addresses, hex-encoded salts, and content identifiers,
// registered as custom validator tags.
var (
	addressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{25,40}$`)
	saltPattern    = regexp.MustCompile(`^(?:[0-9a-fA-F]{2}){8,128}$`)
	cidPattern     = regexp.MustCompile(`^(Qm[1-9A-HJ-NP-Za-km-z]{44}|b[a-z2-7]{20,}|k[0-9a-z]{20,})$`)
)

// newValidator builds the struct validator used to check every
// operation's payload shape before any cryptographic work runs.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("xladdress", func(fl validator.FieldLevel) bool {
		return validAddress(fl.Field().String())
	})
	_ = v.RegisterValidation("xlsalt", func(fl validator.FieldLevel) bool {
		return saltPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("xlcid", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) >= 10 && len(s) <= 120 && cidPattern.MatchString(s)
	})
	return v
}

func validAddress(s string) bool {
	return addressPattern.MatchString(s) && ledgeraddr.Valid(s)
}

func validSalt(s string) bool {
	return saltPattern.MatchString(s)
}

func validCID(s string) bool {
	return len(s) >= 10 && len(s) <= 120 && cidPattern.MatchString(s)
}

var hexDigits = regexp.MustCompile(`^[0-9a-fA-F]*$`)

func validHex(s string) bool {
	return hexDigits.MatchString(s)
}

// validationError reshapes a *validator.ValidationErrors (or any
// struct-validation failure) into the single contract-error type. The
// failing tag picks a specific error code for address/salt/CID shape
// errors; every other tag falls back to InvalidInput.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "xladdress":
			return xvaulterr.Wrap(xvaulterr.InvalidAddress, "address is not a valid ledger address", err)
		case "xlsalt":
			return xvaulterr.Wrap(xvaulterr.InvalidSalt, "salt is not valid hex", err)
		case "xlcid":
			return xvaulterr.Wrap(xvaulterr.InvalidCid, "cid is not a recognized content identifier", err)
		}
	}
	return xvaulterr.Wrap(xvaulterr.InvalidInput, "payload failed validation", err)
}
