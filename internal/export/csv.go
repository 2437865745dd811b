// Package export renders ledger rows for spreadsheet consumers.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"ledger/internal/core"
)

const bom = "\ufeff"

// Header is the fixed column set of every export.
var Header = []string{"id", "date", "direction", "amount", "category", "note"}

// ToCSV writes rows in the order given, preceded by a UTF-8 byte-order mark
// and the header. Records end in CRLF and amounts carry exactly two
// fractional digits.
func ToCSV(rows []core.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(bom)

	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range rows {
		record := []string{
			strconv.FormatInt(t.ID, 10),
			t.Date.String(),
			string(t.Direction),
			core.FormatCents(t.AmountCents),
			t.Category,
			t.Note,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", t.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename names an export file after its account and date range. A zero
// accountID stands for every account.
func Filename(accountID int64, start, end core.Date) string {
	if accountID == 0 {
		return fmt.Sprintf("ledger-all-accounts-%s-to-%s.csv", start, end)
	}
	return fmt.Sprintf("ledger-account-%d-%s-to-%s.csv", accountID, start, end)
}
