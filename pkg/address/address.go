// Package address parses RFC 5322 style "From" header values into a display
// name and an email address.
package address

import (
	"regexp"
	"strings"

	"github.com/emersion/go-message/mail"
)

// used only for values the RFC 5322 parser rejects
var angleAddr = regexp.MustCompile(`(.*)<(.+@.+)>`)

// Address is a parsed sender.
type Address struct {
	Name  string
	Email string
}

// Parse splits a header such as `"Jane Doe" <jane@example.com>` into its parts.
// Encoded words in the display name are decoded. A bare address is used as
// its own name; an empty value yields the name "Unknown".
func Parse(raw string) Address {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Address{Name: "Unknown"}
	}

	var h mail.Header
	h.Set("From", raw)
	if list, err := h.AddressList("From"); err == nil && len(list) > 0 {
		addr := list[0]
		name := addr.Name
		if name == "" && !strings.Contains(raw, "<") {
			name = addr.Address
		}
		return Address{Name: name, Email: addr.Address}
	}

	if m := angleAddr.FindStringSubmatch(raw); m != nil {
		name := strings.TrimSpace(m[1])
		name = strings.TrimSuffix(strings.TrimPrefix(name, `"`), `"`)
		return Address{Name: name, Email: strings.TrimSpace(m[2])}
	}
	return Address{Name: raw, Email: raw}
}
