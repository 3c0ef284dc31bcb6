package factory

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dloomlabs/forge/service/txn"
)

const (
	maxNameLength        = 32
	maxSymbolLength      = 10
	maxDescriptionLength = 500
	maxDecimals          = 18
)

var (
	symbolPattern   = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	twitterPattern  = regexp.MustCompile(`^https://(www\.)?(twitter\.com|x\.com)/[A-Za-z0-9_]{1,15}/?$`)
	telegramPattern = regexp.MustCompile(`^https://(www\.)?(t\.me|telegram\.me)/[A-Za-z0-9_]{5,32}/?$`)
)

// ensureProtocol prepends https:// to bare domains so users can paste
// either form.
func ensureProtocol(url string) string {
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + url
}

// Validate checks params and returns every problem found, not just the
// first.
func (p *CreateParams) Validate() error {
	var errs []error

	name := strings.TrimSpace(p.Name)
	if name == "" {
		errs = append(errs, fmt.Errorf("name is required"))
	} else if len(name) > maxNameLength {
		errs = append(errs, fmt.Errorf("name must be at most %d characters", maxNameLength))
	}

	symbol := strings.TrimSpace(p.Symbol)
	if symbol == "" {
		errs = append(errs, fmt.Errorf("symbol is required"))
	} else if len(symbol) > maxSymbolLength {
		errs = append(errs, fmt.Errorf("symbol must be at most %d characters", maxSymbolLength))
	} else if !symbolPattern.MatchString(symbol) {
		errs = append(errs, fmt.Errorf("symbol must be alphanumeric"))
	}

	if len(p.Description) > maxDescriptionLength {
		errs = append(errs, fmt.Errorf("description must be at most %d characters", maxDescriptionLength))
	}

	if p.Decimals > maxDecimals {
		errs = append(errs, fmt.Errorf("decimals must be at most %d", maxDecimals))
	}

	if strings.TrimSpace(p.Supply) == "" {
		errs = append(errs, fmt.Errorf("initial supply is required"))
	}

	if p.Twitter != "" && !twitterPattern.MatchString(ensureProtocol(p.Twitter)) {
		errs = append(errs, fmt.Errorf("twitter must be a twitter.com or x.com profile URL"))
	}
	if p.Telegram != "" && !telegramPattern.MatchString(ensureProtocol(p.Telegram)) {
		errs = append(errs, fmt.Errorf("telegram must be a t.me or telegram.me URL"))
	}

	if p.TransferFeeBasisPoints > 10_000 {
		errs = append(errs, fmt.Errorf("transfer fee cannot exceed 10000 basis points"))
	}

	// Extensions require the 2022 token program.
	if p.Standard == 0 && p.usesExtensions() {
		errs = append(errs, fmt.Errorf("transfer fees, interest, non-transferable, and permanent delegate require the fungible-2022 standard"))
	}

	if p.VanityPrefix != "" && p.MintKey != nil {
		errs = append(errs, fmt.Errorf("vanity prefix and imported mint key are mutually exclusive"))
	}

	if len(errs) > 0 {
		return txn.NewValidationError("%v", errors.Join(errs...))
	}
	return nil
}

func (p *CreateParams) usesExtensions() bool {
	return p.TransferFeeBasisPoints > 0 ||
		p.InterestRate != 0 ||
		p.NonTransferable ||
		p.PermanentDelegate ||
		p.DefaultAccountStateFrozen
}
