// Package validate runs structural sanity checks over exported PDF buffers.
package validate

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	// MinLength is the smallest buffer that can hold a usable PDF.
	MinLength = 100

	window = 1024
	// repetitionThreshold is the share of consecutive repeated bytes in the
	// middle window above which a buffer is reported as suspicious.
	repetitionThreshold = 0.8
)

var (
	magic      = []byte("%PDF-")
	eofMarker  = []byte("%%EOF")
	objMarker  = []byte("obj")
	artifacts  = [][]byte{[]byte("undefined"), []byte("NaN"), []byte("[object")}
	byteListRe = regexp.MustCompile(`\b\d{1,3}(?:,\d{1,3}){7,}`)
)

// Report is the outcome of a validation.
type Report struct {
	Label    string   `json:"label"`
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Report) fail(format string, args ...any) {
	r.IsValid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks data for the PDF signature, the trailer marker, object
// markers, corruption and stringification artifacts. Only a missing or short
// signature and stringification artifacts make a buffer invalid.
func Validate(data []byte, label string) Report {
	r := Report{Label: label, IsValid: true}

	if len(data) < MinLength {
		r.fail("%s: buffer too small (%d bytes)", label, len(data))
		return r
	}

	if !bytes.HasPrefix(data, magic) {
		r.fail("%s: missing %%PDF- signature (starts with %q)", label, data[:len(magic)])
		return r
	}

	head := data[:min(window, len(data))]
	tail := data[max(0, len(data)-window):]

	if !bytes.Contains(tail, eofMarker) {
		r.warn("%s: no %%%%EOF marker in the last %d bytes", label, window)
	}
	if !bytes.Contains(head, objMarker) {
		r.warn("%s: no object marker in the first %d bytes", label, window)
	}
	if ratio, ok := middleRepetition(data); ok && ratio > repetitionThreshold {
		r.warn("%s: %.0f%% repeated bytes in the middle of the buffer", label, ratio*100)
	}

	for _, token := range artifacts {
		if bytes.Contains(head, token) {
			r.fail("%s: found %q in the document header, the buffer was stringified upstream", label, token)
		}
	}
	if byteListRe.Match(head) {
		r.fail("%s: document header looks like a comma-separated byte list", label)
	}

	return r
}

// middleRepetition returns the share of bytes equal to their predecessor in a
// window centered on the buffer. ok is false when the buffer is too short to
// have a middle distinct from its head and tail.
func middleRepetition(data []byte) (ratio float64, ok bool) {
	if len(data) < 2*window {
		return 0, false
	}
	start := len(data)/2 - window/2
	sample := data[start : start+window]

	repeated := 0
	for i := 1; i < len(sample); i++ {
		if sample[i] == sample[i-1] {
			repeated++
		}
	}
	return float64(repeated) / float64(len(sample)-1), true
}

// Deep runs Validate and, when the buffer passes, parses it with pdfcpu in
// relaxed mode. Parser failures are reported as warnings: the renderer
// output may still display correctly.
func Deep(data []byte, label string) Report {
	r := Validate(data, label)
	if !r.IsValid {
		return r
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		r.warn("%s: pdfcpu: %v", label, err)
	}
	return r
}
