package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/lehigh-university-libraries/bibtidy/bib"
	"github.com/lehigh-university-libraries/bibtidy/format"
)

// readDocument parses the named BibTeX file, or stdin when path is empty.
// The whole input is consumed before returning, so the same path can
// safely be used for output. Input that is neither named nor shaped like
// BibTeX is rejected before parsing.
func readDocument(path string) (doc *bib.Document, err error) {
	var input io.Reader
	var inputName string
	var detectName string

	if path != "" {
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("opening input file: %w", openErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing input file: %w", cerr)
			}
		}()
		input = f
		inputName = path
		detectName = path
	} else {
		input = os.Stdin
		inputName = "stdin"
	}

	data, err := io.ReadAll(input)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", inputName, err)
	}

	parser, err := format.GetParser("bibtex")
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) > 0 {
		detected, detectErr := format.DetectFormat(detectName, data)
		if detectErr != nil {
			return nil, fmt.Errorf("%s does not look like BibTeX: %w", inputName, detectErr)
		}
		if detected.Name() != parser.Name() {
			return nil, fmt.Errorf("%s is %s, only BibTeX input is supported", inputName, detected.Name())
		}
	}

	opts := format.NewParseOptions()
	opts.SourceName = inputName

	doc, err = parser.Parse(bytes.NewReader(data), opts)
	if err != nil {
		return nil, fmt.Errorf("parsing input: %w", err)
	}
	return doc, nil
}

// writeDocument serializes doc in the named format to path, or stdout
// when path is empty.
func writeDocument(doc *bib.Document, path, toFormat string) (err error) {
	serializer, err := format.GetSerializer(toFormat)
	if err != nil {
		return fmt.Errorf("unknown target format %q: %w", toFormat, err)
	}

	var output io.Writer
	if path != "" {
		f, createErr := os.Create(path)
		if createErr != nil {
			return fmt.Errorf("creating output file: %w", createErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing output file: %w", cerr)
			}
		}()
		output = f
	} else {
		output = os.Stdout
	}

	if err := serializer.Serialize(output, doc, format.NewSerializeOptions()); err != nil {
		return fmt.Errorf("serializing output: %w", err)
	}
	return nil
}
