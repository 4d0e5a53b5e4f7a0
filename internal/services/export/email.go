package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/ternarybob/indago/internal/models"
)

const defaultEmailFrom = "indago@localhost"

// renderEML composes the digest as an RFC 5322 message with plain text and
// HTML alternatives. The file can be opened in a mail client or handed to
// sendmail as is.
func (s *Service) renderEML(run *models.ScanRun, markdown string) ([]byte, error) {
	htmlBody, err := s.renderHTML(markdown)
	if err != nil {
		return nil, err
	}

	fromAddr := s.cfg.EmailFrom
	if fromAddr == "" {
		fromAddr = defaultEmailFrom
	}
	toAddr := s.cfg.EmailTo
	if toAddr == "" {
		toAddr = fromAddr
	}

	var header mail.Header
	header.SetDate(time.Now())
	header.SetAddressList("From", []*mail.Address{{Name: "Indago", Address: fromAddr}})
	header.SetAddressList("To", []*mail.Address{{Address: toAddr}})
	header.SetSubject(fmt.Sprintf("Trend digest: %s", run.Trend().Label()))

	var buf bytes.Buffer
	writer, err := mail.CreateWriter(&buf, header)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail writer: %w", err)
	}

	inline, err := writer.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("failed to create mail body: %w", err)
	}

	var textHeader mail.InlineHeader
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	textPart, err := inline.CreatePart(textHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create text part: %w", err)
	}
	if _, err := io.WriteString(textPart, markdown); err != nil {
		return nil, fmt.Errorf("failed to write text part: %w", err)
	}
	if err := textPart.Close(); err != nil {
		return nil, fmt.Errorf("failed to close text part: %w", err)
	}

	var htmlHeader mail.InlineHeader
	htmlHeader.Set("Content-Type", "text/html; charset=utf-8")
	htmlPart, err := inline.CreatePart(htmlHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create html part: %w", err)
	}
	if _, err := htmlPart.Write(htmlBody); err != nil {
		return nil, fmt.Errorf("failed to write html part: %w", err)
	}
	if err := htmlPart.Close(); err != nil {
		return nil, fmt.Errorf("failed to close html part: %w", err)
	}

	if err := inline.Close(); err != nil {
		return nil, fmt.Errorf("failed to close mail body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close mail writer: %w", err)
	}

	return buf.Bytes(), nil
}
