// Package documents turns uploaded report files into plain text.
package documents

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/feyti/medreport/pkg/errors"
)

// Format is a supported upload format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatDOC  Format = "doc"
	FormatText Format = "txt"
)

var formatsByContentType = map[string]Format{
	"application/pdf": FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
	"application/msword": FormatDOC,
	"text/plain":         FormatText,
}

var formatsByExtension = map[string]Format{
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
	".doc":  FormatDOC,
	".txt":  FormatText,
}

// DefaultMaxTextBytes bounds the text a single document may expand to. It
// is five times the default 10MB upload limit.
const DefaultMaxTextBytes = 50 << 20

// Decoder extracts text from uploaded documents.
type Decoder struct {
	maxTextBytes int64
}

// DecoderOption configures a Decoder
type DecoderOption func(*Decoder)

// WithMaxTextBytes overrides DefaultMaxTextBytes. Values <= 0 are ignored.
func WithMaxTextBytes(n int64) DecoderOption {
	return func(d *Decoder) {
		if n > 0 {
			d.maxTextBytes = n
		}
	}
}

// NewDecoder creates a decoder. A non-empty licenseKey activates the
// metered unipdf license used for PDF extraction.
func NewDecoder(licenseKey string, opts ...DecoderOption) (*Decoder, error) {
	if licenseKey != "" {
		if err := license.SetMeteredKey(licenseKey); err != nil {
			return nil, fmt.Errorf("failed to set PDF license key: %w", err)
		}
	}
	d := &Decoder{maxTextBytes: DefaultMaxTextBytes}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// DetectFormat resolves the upload format from its declared content type,
// falling back to the filename extension for generic types.
func DetectFormat(filename, contentType string) (Format, error) {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if f, ok := formatsByContentType[mediaType]; ok {
			return f, nil
		}
		if mediaType != "application/octet-stream" {
			return "", apperrors.NewValidationError("Invalid file type. Please upload PDF, DOCX, DOC or TXT files.")
		}
	}
	if f, ok := formatsByExtension[strings.ToLower(filepath.Ext(filename))]; ok {
		return f, nil
	}
	return "", apperrors.NewValidationError("Invalid file type. Please upload PDF, DOCX, DOC or TXT files.")
}

// Decode returns the NFC-normalized text of content.
func (d *Decoder) Decode(content []byte, format Format) (string, error) {
	var (
		text string
		err  error
	)

	switch format {
	case FormatPDF:
		text, err = pdfText(content, d.maxTextBytes)
	case FormatDOCX:
		text, err = docxText(content, d.maxTextBytes)
	case FormatDOC, FormatText:
		// Legacy .doc is binary; only its embedded text runs survive.
		text = strings.ToValidUTF8(string(content), "�")
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unsupported document format %q", format))
	}
	if errors.Is(err, errTextTooLarge) {
		return "", apperrors.NewValidationError(fmt.Sprintf("%s document text exceeds %d bytes", format, d.maxTextBytes))
	}
	if err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("could not read %s document: %v", format, err))
	}

	return norm.NFC.String(strings.TrimSpace(text)), nil
}

var errTextTooLarge = errors.New("document text too large")

func pdfText(content []byte, maxBytes int64) (string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	encrypted, err := reader.IsEncrypted()
	if err != nil {
		return "", fmt.Errorf("failed checking encryption: %w", err)
	}
	if encrypted {
		ok, err := reader.Decrypt([]byte(""))
		if err != nil {
			return "", fmt.Errorf("failed to decrypt PDF: %w", err)
		}
		if !ok {
			return "", errors.New("PDF is password-protected")
		}
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		pageText, err := ex.ExtractText()
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
		if int64(sb.Len()) > maxBytes {
			return "", errTextTooLarge
		}
	}
	return sb.String(), nil
}

// docxText reads paragraph text from word/document.xml. Each <w:p> becomes a
// line; <w:tab/> and <w:br/> become a tab and a newline. The decompressed
// XML may not exceed maxBytes.
func docxText(content []byte, maxBytes int64) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("not a DOCX archive: %w", err)
	}

	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			if f.UncompressedSize64 > uint64(maxBytes) {
				return "", errTextTooLarge
			}
			if body, err = f.Open(); err != nil {
				return "", err
			}
			break
		}
	}
	if body == nil {
		return "", errors.New("word/document.xml not found")
	}
	defer body.Close()

	var (
		sb     strings.Builder
		inText bool
	)
	// UncompressedSize64 is not trusted; bound the bytes actually read.
	limited := &io.LimitedReader{R: body, N: maxBytes + 1}
	dec := xml.NewDecoder(limited)
	for {
		tok, err := dec.Token()
		if limited.N <= 0 {
			return "", errTextTooLarge
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
