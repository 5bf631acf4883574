// Package sniffer detects the dialect of CSV/TSV statement exports: the
// delimiter, the header row (bank exports often prepend metadata lines), and
// a fingerprint identifying the column layout.
package sniffer

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"unicode"
)

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoHeadersFound   = errors.New("could not find data headers")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

// Statement header keywords, Russian first since most supported banks export
// in Russian, with English fallbacks for generic exports.
var headerKeywords = []string{
	"дата", "тип", "счет", "счёт", "сумма", "валюта", "категория",
	"подкатегория", "описание", "получатель", "источник", "статус",
	"дата операции", "сумма операции", "номер операции",
	"date", "type", "account", "amount", "currency", "category",
	"description", "merchant", "status", "source", "id",
}

// FileConfig holds the detected configuration of a CSV/TSV file.
type FileConfig struct {
	Delimiter   rune       // field delimiter: ';', ',', '\t' or '|'
	SkipLines   int        // metadata lines before the header row
	Headers     []string   // detected header names
	Fingerprint string     // SHA-256 hash of normalized headers
	SampleRows  [][]string // first few data rows for preview
}

// DetectOptions allows callers to override header row or delimiter detection.
type DetectOptions struct {
	// HeaderRowIndex is a 0-based index for the header row. -1 auto-detects.
	HeaderRowIndex int
	// Delimiter overrides the detected delimiter when non-zero.
	Delimiter rune
}

// ColumnSuggestions maps ledger fields to detected column indices (-1 when
// the column is absent).
type ColumnSuggestions struct {
	DateCol     int
	TypeCol     int
	AccountCol  int
	ToCol       int // transfer destination account
	AmountCol   int
	CurrencyCol int
	CategoryCol int
	SubcatCol   int
	MerchantCol int
	DescCol     int
	TagsCol     int
	SourceCol   int
	SourceIDCol int
	StatusCol   int
	DebitCol    int
	CreditCol   int
}

// IsDoubleEntry reports whether the layout uses separate debit/credit
// columns instead of a single signed amount.
func (s *ColumnSuggestions) IsDoubleEntry() bool {
	return s.AmountCol == -1 && s.DebitCol != -1 && s.CreditCol != -1
}

// DetectConfig analyzes a CSV/TSV file and returns its configuration.
func DetectConfig(data []byte) (*FileConfig, error) {
	return DetectConfigWithOptions(data, nil)
}

// DetectConfigWithOptions analyzes a CSV/TSV file with optional overrides.
func DetectConfigWithOptions(data []byte, opts *DetectOptions) (*FileConfig, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(string(data), "\n")

	var (
		delimiter rune
		skipLines int
		err       error
	)
	if opts != nil && opts.HeaderRowIndex >= 0 {
		if opts.HeaderRowIndex >= len(lines) {
			return nil, ErrNoHeadersFound
		}
		skipLines = opts.HeaderRowIndex
		if opts.Delimiter != 0 {
			delimiter = opts.Delimiter
		} else {
			line := cleanLine(lines[skipLines], skipLines == 0)
			delimiter, _ = detectDelimiter(line)
			if delimiter == 0 {
				return nil, ErrInvalidDelimiter
			}
		}
	} else {
		delimiter, skipLines, err = findHeaderRow(lines)
		if err != nil {
			return nil, err
		}
	}

	headerLine := cleanLine(lines[skipLines], skipLines == 0)
	reader := csv.NewReader(strings.NewReader(headerLine))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	return &FileConfig{
		Delimiter:   delimiter,
		SkipLines:   skipLines,
		Headers:     headers,
		Fingerprint: generateFingerprint(headers),
		SampleRows:  getSampleRows(data, delimiter, skipLines+1, 5),
	}, nil
}

// SuggestColumns matches ledger fields against header names.
func SuggestColumns(headers []string) *ColumnSuggestions {
	s := &ColumnSuggestions{
		DateCol: -1, TypeCol: -1, AccountCol: -1, ToCol: -1, AmountCol: -1,
		CurrencyCol: -1, CategoryCol: -1, SubcatCol: -1, MerchantCol: -1,
		DescCol: -1, TagsCol: -1, SourceCol: -1, SourceIDCol: -1, StatusCol: -1,
		DebitCol: -1, CreditCol: -1,
	}

	oneOf := func(h string, names ...string) bool {
		for _, n := range names {
			if h == n {
				return true
			}
		}
		return false
	}

	for i, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		h = strings.TrimPrefix(h, "\uFEFF")

		switch {
		case s.DateCol == -1 && (oneOf(h, "дата", "date") || strings.Contains(h, "дата операции")):
			s.DateCol = i
		case s.TypeCol == -1 && oneOf(h, "тип", "type"):
			s.TypeCol = i
		case s.ToCol == -1 && oneOf(h, "на счет", "на счёт", "счет зачисления", "account_to", "to"):
			s.ToCol = i
		case s.AccountCol == -1 && oneOf(h, "счет", "счёт", "account"):
			s.AccountCol = i
		case s.AmountCol == -1 && (oneOf(h, "сумма", "amount") || strings.Contains(h, "сумма операции")):
			s.AmountCol = i
		case s.CurrencyCol == -1 && oneOf(h, "валюта", "currency"):
			s.CurrencyCol = i
		case s.SubcatCol == -1 && oneOf(h, "подкатегория", "subcategory"):
			s.SubcatCol = i
		case s.CategoryCol == -1 && oneOf(h, "категория", "category"):
			s.CategoryCol = i
		case s.MerchantCol == -1 && oneOf(h, "получатель", "merchant", "payee"):
			s.MerchantCol = i
		case s.DescCol == -1 && oneOf(h, "описание", "description", "комментарий"):
			s.DescCol = i
		case s.TagsCol == -1 && oneOf(h, "теги", "метки", "tags"):
			s.TagsCol = i
		case s.SourceIDCol == -1 && (oneOf(h, "source_id", "id") || strings.Contains(h, "номер операции")):
			s.SourceIDCol = i
		case s.SourceCol == -1 && oneOf(h, "источник", "source"):
			s.SourceCol = i
		case s.StatusCol == -1 && oneOf(h, "статус", "status"):
			s.StatusCol = i
		case s.DebitCol == -1 && oneOf(h, "расход", "списание", "debit"):
			s.DebitCol = i
		case s.CreditCol == -1 && oneOf(h, "доход", "приход", "зачисление", "credit"):
			s.CreditCol = i
		}
	}

	return s
}

// findHeaderRow locates the header row and its delimiter. Lines containing
// known header keywords win; otherwise the line with the most columns does.
func findHeaderRow(lines []string) (rune, int, error) {
	fallbackIndex := -1
	fallbackDelimiter := rune(0)
	fallbackCount := 0

	keywordIndex := -1
	keywordDelimiter := rune(0)
	keywordCount := 0
	keywordBestScore := 0

	for i, line := range lines {
		if i > 20 { // metadata preambles are short
			break
		}

		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}
		lineLower := strings.ToLower(line)

		delimiter, count := detectDelimiter(line)
		if count < 1 {
			continue
		}

		keywordMatches := 0
		for _, kw := range headerKeywords {
			if strings.Contains(lineLower, kw) {
				keywordMatches++
			}
		}

		if keywordMatches > 0 {
			score := count*10 + keywordMatches
			if keywordIndex == -1 || score > keywordBestScore {
				keywordBestScore = score
				keywordCount = count
				keywordDelimiter = delimiter
				keywordIndex = i
			}
		} else if count > fallbackCount {
			fallbackCount = count
			fallbackDelimiter = delimiter
			fallbackIndex = i
		}
	}

	if keywordIndex >= 0 && keywordCount >= 2 {
		return keywordDelimiter, keywordIndex, nil
	}
	if fallbackCount >= 2 {
		return fallbackDelimiter, fallbackIndex, nil
	}
	return 0, 0, ErrNoHeadersFound
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

func detectDelimiter(line string) (rune, int) {
	delimiters := []rune{';', '\t', ',', '|'}
	bestDelimiter := rune(0)
	bestCount := 0
	for _, d := range delimiters {
		count := strings.Count(line, string(d))
		if count > bestCount {
			bestCount = count
			bestDelimiter = d
		}
	}
	return bestDelimiter, bestCount
}

// generateFingerprint creates a stable hash from normalized header names so
// a previously seen column layout can be recognized.
func generateFingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}

	joined := strings.Join(normalized, "|")
	hash := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(hash[:])
}

func getSampleRows(data []byte, delimiter rune, startLine, maxRows int) [][]string {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	lineNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if lineNum >= startLine {
			rows = append(rows, record)
			if len(rows) >= maxRows {
				break
			}
		}
		lineNum++
	}
	return rows
}
