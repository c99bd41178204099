package httpx

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Record is one blank-line delimited block of a server-sent event stream.
type Record struct {
	// Event is the value of the "event:" field, empty when absent.
	Event string
	// Data holds the "data:" field values joined with newlines.
	Data string
	// ID is the value of the "id:" field, empty when absent.
	ID string
	// Lines are the raw lines of the record, comments and unknown fields included.
	Lines []string
}

// RecordReader is a lazy line-to-record framer.
//
// Non-blank lines accumulate until a blank line closes the record. It has no
// knowledge of the transport, so it can be driven by any io.Reader.
type RecordReader struct {
	reader *bufio.Reader
	lines  []string
}

// NewRecordReader returns a RecordReader reading from r.
func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{reader: bufio.NewReader(r)}
}

// Next returns the next complete record.
//
// It returns io.EOF once the underlying reader is exhausted. A record that was
// not closed by a blank line before EOF is discarded.
func (rr *RecordReader) Next() (Record, error) {
	for {
		line, err := rr.reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Record{}, err
			}
			rr.lines = nil
			return Record{}, io.EOF
		}

		if line != "" {
			rr.lines = append(rr.lines, line)
			continue
		}

		// Repeated blank lines close nothing.
		if len(rr.lines) == 0 {
			continue
		}

		record := parseRecord(rr.lines)
		rr.lines = nil
		return record, nil
	}
}

// parseRecord extracts the known fields from the raw lines of a record.
func parseRecord(lines []string) Record {
	record := Record{Lines: lines}

	var data []string
	for _, line := range lines {
		// Comment line.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			record.Event = value
		case "data":
			data = append(data, value)
		case "id":
			record.ID = value
		}
	}

	record.Data = strings.Join(data, "\n")
	return record
}
