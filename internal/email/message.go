// Package email defines the email record extracted from a provider and the
// platform model used to pick a provider for a URL.
package email

// Content is an email as returned by a provider. It is not modified after
// extraction.
type Content struct {
	Subject     string
	Body        string
	Sender      string
	SenderEmail string
	Date        string
	// Attachments lists attachment file names in message order.
	Attachments []string
	// RawHTML is the original markup when the body was converted from HTML.
	RawHTML string
}

// ExtractionError reports that a provider could not produce email content.
type ExtractionError struct {
	Platform Platform
	URL      string
	Err      error
}

func (e *ExtractionError) Error() string {
	return "failed to extract " + e.Platform.String() + " email: " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
