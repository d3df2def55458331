// Package mailparse extracts the readable parts of an RFC 5322 message so it
// can be handed to the reply generator.
package mailparse

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// ErrNoTextBody is returned when a message carries no text/plain content
var ErrNoTextBody = errors.New("no text content found in message")

// maxDepth bounds multipart nesting
const maxDepth = 5

// Message holds the parts of an email relevant to drafting a reply
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// Parse reads a message and extracts its headers and text body
func Parse(r io.Reader) (*Message, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email message: %w", err)
	}

	body, err := extractText(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body, 0)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrNoTextBody
	}

	subject, err := wordDecoder.DecodeHeader(msg.Header.Get("Subject"))
	if err != nil {
		subject = msg.Header.Get("Subject")
	}

	return &Message{
		From:    decodeAddress(msg.Header.Get("From")),
		To:      decodeAddressList(msg.Header.Get("To")),
		Subject: subject,
		Body:    body,
	}, nil
}

// PromptContent renders the message the way it is sent for generation
func (m *Message) PromptContent() string {
	var sb strings.Builder
	if m.From != "" {
		sb.WriteString("From: " + m.From + "\n")
	}
	if m.Subject != "" {
		sb.WriteString("Subject: " + m.Subject + "\n")
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(m.Body)
	return sb.String()
}

func extractText(contentType, transferEncoding string, body io.Reader, depth int) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || contentType == "" {
		mediaType, params = "text/plain", map[string]string{}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" || depth >= maxDepth {
			return "", nil
		}
		return extractMultipart(multipart.NewReader(body, boundary), depth)
	}

	if mediaType != "text/plain" {
		return "", nil
	}

	decoded, err := decodeBody(transferEncoding, params["charset"], body)
	if err != nil {
		return "", err
	}
	return decoded, nil
}

func extractMultipart(mr *multipart.Reader, depth int) (string, error) {
	var texts []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(texts) > 0 {
				break
			}
			return "", fmt.Errorf("failed to read multipart body: %w", err)
		}

		if disposition, _, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition")); disposition == "attachment" {
			continue
		}

			// multipart.Part already strips quoted-printable encoding
		text, err := extractText(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), part, depth+1)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			texts = append(texts, strings.TrimRight(text, "\r\n"))
		}
	}
	return strings.Join(texts, "\n\n"), nil
}

func decodeBody(transferEncoding, charset string, body io.Reader) (string, error) {
	var r io.Reader = body
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(body)
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, body)
	}

	if charset != "" && !strings.EqualFold(charset, "utf-8") && !strings.EqualFold(charset, "us-ascii") {
		cr, err := charsetReader(charset, r)
		if err == nil {
			r = cr
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode message body: %w", err)
	}
	return string(data), nil
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

func decodeAddress(value string) string {
	if value == "" {
		return ""
	}
	parser := mail.AddressParser{WordDecoder: wordDecoder}
	addr, err := parser.Parse(value)
	if err != nil {
		return value
	}
	return addr.String()
}

func decodeAddressList(value string) []string {
	if value == "" {
		return nil
	}
	parser := mail.AddressParser{WordDecoder: wordDecoder}
	addrs, err := parser.ParseList(value)
	if err != nil {
		return []string{value}
	}
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, addr.Address)
	}
	return out
}

// ParseBytes parses a message held in memory
func ParseBytes(raw []byte) (*Message, error) {
	return Parse(bytes.NewReader(raw))
}
