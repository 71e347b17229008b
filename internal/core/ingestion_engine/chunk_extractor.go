package ingestion_engine

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 200
)

// defaultSeparators are tried in priority order: paragraphs, lines, sentences, words,
// and finally single characters.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// TextSplitter recursively splits text into overlapping windows of at most
// chunkSize characters (runes), preferring the highest-priority separator.
type TextSplitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// SplitterOption configures a TextSplitter.
type SplitterOption func(*TextSplitter)

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) SplitterOption {
	return func(s *TextSplitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets how many trailing characters of a chunk seed the next one.
func WithOverlap(overlap int) SplitterOption {
	return func(s *TextSplitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator priority list.
func WithSeparators(seps ...string) SplitterOption {
	return func(s *TextSplitter) {
		if len(seps) > 0 {
			s.separators = seps
		}
	}
}

func NewTextSplitter(opts ...SplitterOption) *TextSplitter {
	s := &TextSplitter{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: defaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}
	return s
}

// Split returns the chunks of text in source order. Empty or blank input yields none.
func (s *TextSplitter) Split(text string) []string {
	return s.split(text, s.separators)
}

func (s *TextSplitter) split(text string, separators []string) []string {
	var (
		final []string
		good  []string
	)

	// Pick the first separator present in the text; "" always matches.
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	for _, piece := range splitKeepingSeparator(text, separator) {
		if runeLen(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// merge packs consecutive pieces into windows of at most chunkSize, carrying up to
// overlap characters of the previous window into the next one.
func (s *TextSplitter) merge(pieces []string) []string {
	var (
		docs    []string
		current []string
		total   int
	)
	for _, p := range pieces {
		n := runeLen(p)
		if total+n > s.chunkSize {
			if total > s.chunkSize {
				slog.Warn("chunk longer than the configured size", "length", total, "chunk_size", s.chunkSize)
			}
			if len(current) > 0 {
				if doc := joinPieces(current); doc != "" {
					docs = append(docs, doc)
				}
				for total > s.overlap || (total+n > s.chunkSize && total > 0) {
					total -= runeLen(current[0])
					current = current[1:]
				}
			}
		}
		current = append(current, p)
		total += n
	}
	if doc := joinPieces(current); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeepingSeparator splits on sep and re-attaches sep to the start of each
// following piece, so joining the pieces restores the input. Empty pieces are dropped.
func splitKeepingSeparator(text, sep string) []string {
	var out []string
	if sep == "" {
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	for i, part := range strings.Split(text, sep) {
		if i > 0 {
			part = sep + part
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinPieces(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
