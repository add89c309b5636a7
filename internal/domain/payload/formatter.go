package payload

import (
	"fmt"
	"strings"
)

// FormatURL trims the input and prepends https:// when no http(s) scheme is present.
// Hosts are not validated.
func FormatURL(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	return "https://" + s
}

// FormatText returns the text verbatim.
func FormatText(input string) string {
	return input
}

// FormatContact renders a vCard 3.0 block. Empty fields keep their line so the
// layout is fixed; an all-empty record yields an empty payload.
func FormatContact(c ContactRecord) string {
	if c.Empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("BEGIN:VCARD\n")
	b.WriteString("VERSION:3.0\n")
	fmt.Fprintf(&b, "FN:%s %s\n", c.FirstName, c.LastName)
	fmt.Fprintf(&b, "N:%s;%s;;;\n", c.LastName, c.FirstName)
	fmt.Fprintf(&b, "ORG:%s\n", c.Organization)
	fmt.Fprintf(&b, "TEL:%s\n", c.Phone)
	fmt.Fprintf(&b, "EMAIL:%s\n", c.Email)
	fmt.Fprintf(&b, "URL:%s\n", c.URL)
	b.WriteString("END:VCARD")
	return b.String()
}

// Format builds the payload for a generative mode.
func Format(mode Mode, in Input) (string, error) {
	switch mode {
	case ModeURL:
		return FormatURL(in.URL), nil
	case ModeText:
		return FormatText(in.Text), nil
	case ModeContact:
		return FormatContact(in.Contact), nil
	default:
		return "", fmt.Errorf("%w: %q does not build payloads", ErrUnknownMode, mode)
	}
}
