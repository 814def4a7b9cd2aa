package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"iter"
)

// Decoder turns a transcript byte stream into a lazy sequence of records.
// Lines that are blank or fail to parse are skipped without ending the sequence,
// since the file may be mid-append by the agent runtime.
type Decoder struct {
	r       *bufio.Reader
	line    int
	skipped int
	err     error
	started bool
}

// NewDecoder creates a decoder reading from r
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Records returns the sequence of parsed records. A decoder is single-use:
// only the first iteration reads; later ones yield nothing. To read a file
// again, open it again with a new decoder.
func (d *Decoder) Records() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		if d.started {
			return
		}
		d.started = true

		for {
			line, err := d.r.ReadBytes('\n')
			if len(line) > 0 {
				d.line++
				if rec, ok := d.parse(line); ok {
					if !yield(rec) {
						return
					}
				}
			}

			if err != nil {
				if !errors.Is(err, io.EOF) {
					d.err = err
				}
				return
			}
		}
	}
}

// parse decodes one raw line, counting it as skipped when it is not a JSON object
func (d *Decoder) parse(line []byte) (Record, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Record{}, false
	}

	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		d.skipped++
		return Record{}, false
	}
	rec.Line = d.line
	return rec, true
}

// Err returns the first non-EOF read error encountered, if any
func (d *Decoder) Err() error {
	return d.err
}

// Skipped returns the number of non-blank lines that failed to parse
func (d *Decoder) Skipped() int {
	return d.skipped
}

// Lines returns the number of lines read so far
func (d *Decoder) Lines() int {
	return d.line
}
