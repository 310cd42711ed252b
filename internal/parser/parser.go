// Package parser decodes raw RFC 5322 messages and HTML bodies into
// email.Content.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/shineum/mailtask/internal/email"
)

// Parse parses a raw RFC 5322 message into email content. The plain text
// part is preferred for the body; when only HTML is present it is converted
// to text and kept in RawHTML. Attachment names are collected in order.
func Parse(raw []byte) (*email.Content, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if err != nil {
		slog.Warn("unknown charset in message header", "error", err)
	}
	defer mr.Close()

	result := &email.Content{
		Date: mr.Header.Get("Date"),
	}

	if subject, err := mr.Header.Subject(); err == nil {
		result.Subject = subject
	} else {
		result.Subject = mr.Header.Get("Subject")
	}

	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		result.Sender = from[0].Name
		result.SenderEmail = from[0].Address
	} else {
		result.Sender = mr.Header.Get("From")
	}

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("failed to read next part: %w", err)
		}
		if part == nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			mediaType, params, _ := h.ContentType()
			switch {
			case mediaType == "text/plain" || mediaType == "":
				if textBody == "" {
					textBody = readPart(part.Body, mediaType)
				}
			case mediaType == "text/html":
				if htmlBody == "" {
					htmlBody = readPart(part.Body, mediaType)
				}
			case params["name"] != "":
				result.Attachments = append(result.Attachments, params["name"])
			default:
				slog.Warn("unrecognized MIME part, skipping",
					"content_type", mediaType,
				)
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			if filename == "" {
				filename = fallbackFilename(h.Get("Content-Type"))
			}
			result.Attachments = append(result.Attachments, filename)
		}
	}

	result.Body = textBody
	if htmlBody != "" {
		result.RawHTML = htmlBody
		if result.Body == "" {
			text, err := HTMLToText(htmlBody)
			if err != nil {
				slog.Warn("failed to convert HTML body", "error", err)
			}
			result.Body = text
		}
	}

	return result, nil
}

// readPart reads a decoded MIME part body. Read failures are logged and
// yield an empty string.
func readPart(r io.Reader, mediaType string) string {
	content, err := io.ReadAll(r)
	if err != nil {
		slog.Warn("failed to read part content",
			"content_type", mediaType,
			"error", err,
		)
		return ""
	}
	return string(content)
}

// fallbackFilename names an attachment that carries no filename after its
// media type, e.g. "attachment.pdf".
func fallbackFilename(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	if _, sub, ok := strings.Cut(strings.TrimSpace(mediaType), "/"); ok && sub != "" {
		return "attachment." + sub
	}
	return "attachment"
}
