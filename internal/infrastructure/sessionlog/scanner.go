package sessionlog

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"kickpulse/internal/core/domain"
)

const maxRecordSize = 1 << 20 // single chat line, with an embedded thumbnail at most

// Scanner iterates over the typed records of a session log. Malformed,
// unrecognized or oversized lines are skipped and counted, never
// fatal: a partially damaged log still yields every valid record.
type Scanner struct {
	reader  *bufio.Reader
	skipped int
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{reader: bufio.NewReaderSize(r, 64*1024)}
}

// Skipped returns the number of lines skipped so far.
func (s *Scanner) Skipped() int {
	return s.skipped
}

// Next returns the next valid record as one of
// *domain.SessionStartRecord, *domain.SnapshotRecord or
// *domain.MessageRecord. It returns io.EOF at the end of the log.
func (s *Scanner) Next() (interface{}, error) {
	for {
		raw, tooLong, err := s.readLine()
		if err != nil {
			return nil, err
		}
		if tooLong {
			s.skipped++
			continue
		}

		line := strings.TrimSpace(string(raw))
		if line == "" {
			continue
		}

		var envelope domain.RecordEnvelope
		if err := json.Unmarshal([]byte(line), &envelope); err != nil {
			s.skipped++
			continue
		}

		var record interface{}
		switch envelope.Type {
		case domain.RecordTypeSessionStart:
			record = &domain.SessionStartRecord{}
		case domain.RecordTypeSnapshot:
			record = &domain.SnapshotRecord{}
		case domain.RecordTypeMessage:
			record = &domain.MessageRecord{}
		default:
			s.skipped++
			continue
		}

		if err := json.Unmarshal([]byte(line), record); err != nil {
			s.skipped++
			continue
		}
		return record, nil
	}
}

// readLine returns the next line without its terminator. A line longer
// than maxRecordSize is consumed to its end and reported as tooLong so
// the caller can count it and move on.
func (s *Scanner) readLine() (line []byte, tooLong bool, _ error) {
	for {
		chunk, err := s.reader.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			if len(line) > maxRecordSize {
				tooLong = true
				line = nil
			}
		}
		switch err {
		case bufio.ErrBufferFull:
			continue
		case nil:
			return line, tooLong, nil
		case io.EOF:
			if len(line) == 0 && !tooLong {
				return nil, false, io.EOF
			}
			return line, tooLong, nil
		default:
			return nil, false, err
		}
	}
}
