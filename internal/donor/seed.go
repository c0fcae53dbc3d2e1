package donor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// Seed CSV headers, matched after trimming whitespace and a UTF-8 BOM.
const (
	HeaderPIN          = "pin-code"
	HeaderFullName     = "full name"
	HeaderAmount       = "amount"
	HeaderDonationLink = "donation link"
)

type SeedRecord struct {
	Line         int
	PIN          string
	FullName     string
	PledgeAmount decimal.Decimal
	DonationLink string
}

// SeedConflict is a row that was skipped because its PIN is already taken.
type SeedConflict struct {
	Line   int    `json:"line"`
	PIN    string `json:"pin"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

type SeedReport struct {
	Inserted  int            `json:"inserted"`
	Conflicts []SeedConflict `json:"conflicts"`
	Invalid   []SeedConflict `json:"invalid"`
}

// ParseSeedCSV reads donor rows. Malformed rows land in invalid instead of
// aborting the whole file.
func ParseSeedCSV(r io.Reader) (records []SeedRecord, invalid []SeedConflict, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("seed file is empty")
		}
		return nil, nil, fmt.Errorf("read seed header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{HeaderPIN, HeaderFullName, HeaderAmount} {
		if _, ok := index[required]; !ok {
			return nil, nil, fmt.Errorf("seed header is missing %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	line := 1
	for {
		row, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		line++
		if readErr != nil {
			invalid = append(invalid, SeedConflict{Line: line, Reason: readErr.Error(), Err: readErr})
			continue
		}

		pin := NormalizePIN(field(row, HeaderPIN))
		name := field(row, HeaderFullName)
		if pin == "" || name == "" {
			invalid = append(invalid, SeedConflict{Line: line, PIN: pin, Reason: "pin and full name are required"})
			continue
		}

		amountText := strings.ReplaceAll(NormalizePIN(field(row, HeaderAmount)), ",", "")
		amount, parseErr := decimal.NewFromString(amountText)
		if parseErr != nil || amount.IsNegative() {
			invalid = append(invalid, SeedConflict{Line: line, PIN: pin, Reason: fmt.Sprintf("invalid amount %q", amountText)})
			continue
		}

		records = append(records, SeedRecord{
			Line:         line,
			PIN:          pin,
			FullName:     name,
			PledgeAmount: amount,
			DonationLink: field(row, HeaderDonationLink),
		})
	}

	return records, invalid, nil
}
