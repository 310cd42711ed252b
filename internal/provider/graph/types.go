// Package graph implements an extraction Provider for Outlook messages via
// the Microsoft Graph API.
package graph

// message is the subset of a Graph message resource requested with $select.
type message struct {
	Subject          string       `json:"subject"`
	Body             messageBody  `json:"body"`
	From             *recipient   `json:"from"`
	ReceivedDateTime string       `json:"receivedDateTime"`
	HasAttachments   bool         `json:"hasAttachments"`
	Attachments      []attachment `json:"attachments"`
}

// messageBody represents the body of an email message.
type messageBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// recipient wraps an email address the way Graph returns it.
type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type emailAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type attachment struct {
	Name string `json:"name"`
}

// graphErrorResponse represents an error response from the Graph API.
type graphErrorResponse struct {
	Error graphError `json:"error"`
}

// graphError contains the error details from a Graph API error response.
type graphError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
