package lexicon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/bastiangx/tinyime/internal/utils"
	"github.com/charmbracelet/log"
)

// DefaultMarker selects simplified-script records.
const DefaultMarker = "0"

// ctxCheckEvery is how many lines are parsed between cancellation checks.
const ctxCheckEvery = 4096

var (
	// ErrShortRecord means a line has fewer than four fields.
	ErrShortRecord = errors.New("record needs surface, frequency, marker and spelling")
	// ErrBadFrequency means the frequency field is not a finite non-negative number.
	ErrBadFrequency = errors.New("invalid frequency")
)

// ParseError describes a corpus line that was skipped.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseStats counts what happened to the lines of one corpus.
type ParseStats struct {
	Lines     int
	Accepted  int
	Skipped   int
	Malformed int
}

// Record is one accepted corpus line.
type Record struct {
	Entry     Entry
	Syllables []string
}

// Spelling is the concatenation of the syllables.
func (r Record) Spelling() string {
	return utils.NormalizeKey(strings.Join(r.Syllables, ""))
}

// Abbreviation is the first character of every syllable.
func (r Record) Abbreviation() string {
	return utils.NormalizeKey(Abbreviate(r.Syllables))
}

// Abbreviate joins the first character of each syllable.
func Abbreviate(syllables []string) string {
	var b strings.Builder
	for _, s := range syllables {
		b.WriteString(utils.FirstRune(s))
	}
	return b.String()
}

// ParseLine reads one `<surface> <frequency> <marker> <syllable...>` record.
// ok is false with a nil error when the line belongs to another script or
// is blank; those lines are not errors.
func ParseLine(line, marker string) (rec Record, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Record{}, false, nil
	}
	if len(fields) < 4 {
		if len(fields) >= 3 && fields[2] != marker {
			return Record{}, false, nil
		}
		return Record{}, false, ErrShortRecord
	}
	if fields[2] != marker {
		return Record{}, false, nil
	}

	freq, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: %v", ErrBadFrequency, err)
	}
	if math.IsNaN(freq) || math.IsInf(freq, 0) || freq < 0 {
		return Record{}, false, fmt.Errorf("%w: %s", ErrBadFrequency, fields[1])
	}

	return Record{
		Entry: Entry{
			Surface:   utils.NormalizeSurface(fields[0]),
			Frequency: freq,
		},
		Syllables: fields[3:],
	}, true, nil
}

// Register files rec under its spelling and, when non-empty, its abbreviation.
func Register(idx *Index, rec Record) {
	idx.Add(rec.Spelling(), rec.Entry)
	if abbr := rec.Abbreviation(); abbr != "" {
		idx.Add(abbr, rec.Entry)
	}
}

// ParseCorpus indexes every record of r whose marker matches.
// Malformed lines are skipped and counted; the only errors returned come
// from reading r or from ctx.
func ParseCorpus(ctx context.Context, r io.Reader, marker string, idx *Index) (ParseStats, error) {
	var stats ParseStats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		stats.Lines++
		if stats.Lines%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		text := scanner.Text()
		rec, ok, err := ParseLine(text, marker)
		if err != nil {
			stats.Malformed++
			log.Debug("Skipping corpus line", "err", &ParseError{Line: stats.Lines, Text: text, Err: err})
			continue
		}
		if !ok {
			stats.Skipped++
			continue
		}
		Register(idx, rec)
		stats.Accepted++
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read corpus: %w", err)
	}
	return stats, nil
}
