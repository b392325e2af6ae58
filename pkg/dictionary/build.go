package dictionary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bastiangx/tinyime/pkg/lexicon"
	"github.com/charmbracelet/log"
)

const (
	DefaultCorpus       = "pinyin_corpus.txt"
	DefaultWords        = "words.json"
	DefaultAlternatives = "alternatives.json"
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 100 * time.Millisecond
)

// Spec names the resources a lexicon is built from.
// An empty name leaves that source out.
type Spec struct {
	Corpus       string
	Words        string
	Alternatives string
	Marker       string
	MaxRetries   int
	RetryDelay   time.Duration
}

// DefaultSpec returns the stock resource names.
func DefaultSpec() Spec {
	return Spec{
		Corpus:       DefaultCorpus,
		Words:        DefaultWords,
		Alternatives: DefaultAlternatives,
		Marker:       lexicon.DefaultMarker,
		MaxRetries:   DefaultMaxRetries,
		RetryDelay:   DefaultRetryDelay,
	}
}

// Build reads every source of spec into a fresh lexicon.
// Sources that cannot be read or parsed are logged and skipped, so the
// result may be partial or empty. Only cancellation is returned as an error.
func Build(ctx context.Context, src Source, spec Spec) (*lexicon.Lexicon, error) {
	if spec.Marker == "" {
		spec.Marker = lexicon.DefaultMarker
	}

	idx := lexicon.NewIndex()
	var stats lexicon.Stats
	var alternatives map[string][]string

	if spec.Corpus != "" {
		text, err := readWithRetry(ctx, src, spec.Corpus, spec.MaxRetries, spec.RetryDelay)
		if err := checkCancelled(ctx, err); err != nil {
			return nil, err
		}
		if err != nil {
			log.Warnf("Corpus unavailable: %v", err)
			stats.FailedSource++
		} else {
			parsed, err := lexicon.ParseCorpus(ctx, strings.NewReader(text), spec.Marker, idx)
			if err := checkCancelled(ctx, err); err != nil {
				return nil, err
			}
			if err != nil {
				log.Warnf("Corpus %s read failed after %d lines: %v", spec.Corpus, parsed.Lines, err)
				stats.FailedSource++
			} else {
				stats.Sources++
			}
			stats.Corpus = parsed
			log.Debugf("Corpus %s: %d lines, %d accepted, %d skipped, %d malformed",
				spec.Corpus, parsed.Lines, parsed.Accepted, parsed.Skipped, parsed.Malformed)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if spec.Words != "" {
		n, err := loadWords(ctx, src, spec, idx)
		if err := checkCancelled(ctx, err); err != nil {
			return nil, err
		}
		if err != nil {
			log.Warnf("Word map unavailable: %v", err)
			stats.FailedSource++
		} else {
			stats.Words = n
			stats.Sources++
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if spec.Alternatives != "" {
		alts, err := loadAlternatives(ctx, src, spec)
		if err := checkCancelled(ctx, err); err != nil {
			return nil, err
		}
		if err != nil {
			log.Warnf("Alternatives unavailable: %v", err)
			stats.FailedSource++
		} else {
			alternatives = alts
			stats.Sources++
		}
	}

	lex := lexicon.New(idx, alternatives, stats)
	log.Debugf("Lexicon built: %d keys, %d entries, %d alternatives",
		lex.Stats().Keys, lex.Stats().Entries, lex.Stats().Alternatives)
	return lex, nil
}

func loadWords(ctx context.Context, src Source, spec Spec, idx *lexicon.Index) (int, error) {
	text, err := readWithRetry(ctx, src, spec.Words, spec.MaxRetries, spec.RetryDelay)
	if err != nil {
		return 0, err
	}
	words, err := ParseWordMap(text)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", spec.Words, err)
	}

	added := 0
	for i, w := range words {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return added, err
			}
		}
		if lexicon.AddWord(idx, w.Word, w.Frequency) {
			added++
		}
	}
	return added, nil
}

func loadAlternatives(ctx context.Context, src Source, spec Spec) (map[string][]string, error) {
	text, err := readWithRetry(ctx, src, spec.Alternatives, spec.MaxRetries, spec.RetryDelay)
	if err != nil {
		return nil, err
	}
	alts, err := ParseAlternatives(spec.Alternatives, text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Alternatives, err)
	}
	return alts, nil
}

// checkCancelled reports ctx's error when err was caused by cancellation.
func checkCancelled(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return nil
}
