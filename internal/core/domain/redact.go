package domain

import (
	"errors"
	"net/url"
	"regexp"
)

// RedactURL strips credentials, query and fragment for logs and diagnostics.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.User = nil
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

var embeddedURL = regexp.MustCompile(`https?://[^\s"'<>]+`)

// ScrubURLs redacts every http(s) URL embedded in free text such as an error message.
func ScrubURLs(s string) string {
	return embeddedURL.ReplaceAllStringFunc(s, RedactURL)
}

// RedactTransportError rebuilds a *url.Error around the redacted request URL.
// Other errors are returned unchanged.
func RedactTransportError(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: RedactURL(ue.URL), Err: ue.Err}
}
