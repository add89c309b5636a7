package payload

import (
	"errors"
	"strings"
)

// Mode is the active tab of the workspace. It also names downloaded files.
type Mode string

const (
	ModeURL     Mode = "url"
	ModeText    Mode = "text"
	ModeContact Mode = "contact"
	ModeUpload  Mode = "upload"
	ModeScan    Mode = "scan"
)

var ErrUnknownMode = errors.New("unknown mode")

// ParseMode normalizes a mode name coming from a request or flag.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeURL, ModeText, ModeContact, ModeUpload, ModeScan:
		return m, nil
	default:
		return "", ErrUnknownMode
	}
}

// Generative reports whether the mode builds its payload from form input.
func (m Mode) Generative() bool {
	return m == ModeURL || m == ModeText || m == ModeContact
}

// Renders reports whether a payload held in this mode is drawn into the render target.
func (m Mode) Renders() bool {
	return m != ModeScan
}

// ContactRecord holds the contact form fields. Every field is optional.
type ContactRecord struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
	URL          string `json:"url"`
}

func (c ContactRecord) Empty() bool {
	return c.FirstName == "" && c.LastName == "" && c.Phone == "" &&
		c.Email == "" && c.Organization == "" && c.URL == ""
}

// Input is the form input for one of the generative modes.
type Input struct {
	URL     string        `json:"url,omitempty"`
	Text    string        `json:"text,omitempty"`
	Contact ContactRecord `json:"contact"`
}
