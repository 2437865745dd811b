package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	Income  Direction = "income"
	Expense Direction = "expense"

	// DateLayout is the ISO 8601 calendar date layout used for storage and I/O.
	DateLayout = "2006-01-02"

	// DefaultAccountID identifies the account that always exists.
	DefaultAccountID int64 = 1

	maxAccountNameLength = 100
)

var errBadBound = errors.New("malformed date bound")

type (
	Direction string

	Date struct {
		time.Time
	}

	// Transaction is a stored ledger entry.
	Transaction struct {
		ID          int64
		AccountID   int64
		Date        Date
		Direction   Direction
		AmountCents int64
		Category    string
		Note        string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// TransactionInput carries raw user supplied fields.
	TransactionInput struct {
		AccountID int64
		Date      string
		Direction string
		Amount    string
		Category  string
		Note      string
	}

	// NewTransaction holds validated fields ready to be persisted.
	NewTransaction struct {
		AccountID   int64
		Date        Date
		Direction   Direction
		AmountCents int64
		Category    string
		Note        string
	}

	// ValidationOptions resolves policy choices left to the caller.
	ValidationOptions struct {
		// NoteRequired rejects blank notes when set.
		NoteRequired bool
	}

	// Filter selects transactions with Start <= date <= End.
	// A zero AccountID matches every account.
	Filter struct {
		Start     Date
		End       Date
		AccountID int64
	}

	Account struct {
		ID        int64
		Name      string
		Archived  bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, invalid("date", "date must be a valid YYYY-MM-DD calendar date")
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return invalid("date", "date required")
	}
	return nil
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON shadows the promoted time.Time encoder so dates stay YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	return d.UnmarshalText([]byte(s))
}

// ValidateDirection accepts exactly "income" or "expense".
func ValidateDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Income, Expense:
		return Direction(s), nil
	default:
		return "", invalid("direction", "direction must be income or expense")
	}
}

// ValidateCategory trims the category and rejects it when blank.
func ValidateCategory(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid("category", "category required")
	}
	return s, nil
}

// ValidateNote trims the note; blank notes are rejected only when
// opts.NoteRequired is set.
func ValidateNote(s string, opts ValidationOptions) (string, error) {
	s = strings.TrimSpace(s)
	if opts.NoteRequired && s == "" {
		return "", invalid("note", "note required")
	}
	return s, nil
}

// ParseTransaction validates every raw field and returns a value the
// repository can persist. A zero AccountID selects the default account.
func ParseTransaction(in TransactionInput, opts ValidationOptions) (NewTransaction, error) {
	date, err := ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return NewTransaction{}, err
	}
	direction, err := ValidateDirection(in.Direction)
	if err != nil {
		return NewTransaction{}, err
	}
	cents, err := ParseAmountToCents(in.Amount)
	if err != nil {
		return NewTransaction{}, err
	}
	category, err := ValidateCategory(in.Category)
	if err != nil {
		return NewTransaction{}, err
	}
	note, err := ValidateNote(in.Note, opts)
	if err != nil {
		return NewTransaction{}, err
	}

	accountID := in.AccountID
	if accountID == 0 {
		accountID = DefaultAccountID
	}

	nt := NewTransaction{
		AccountID:   accountID,
		Date:        date,
		Direction:   direction,
		AmountCents: cents,
		Category:    category,
		Note:        note,
	}
	return nt, nt.Validate()
}

// Validate re-checks every field rule on an already typed value.
func (t NewTransaction) Validate() error {
	if t.AccountID < 1 {
		return invalid("account_id", "account id must be positive")
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if _, err := ValidateDirection(string(t.Direction)); err != nil {
		return err
	}
	if t.AmountCents < 0 {
		return invalid("amount", "amount must be non-negative")
	}
	if strings.TrimSpace(t.Category) == "" {
		return invalid("category", "category required")
	}
	return nil
}

// NewFilter parses an inclusive date range. An inverted range is valid and
// simply matches nothing. Bounds follow calendar order rather than calendar
// validity: a day past the end of its month, such as 2026-02-29, still
// bounds the range as if it were compared as text.
func NewFilter(start, end string, accountID int64) (Filter, error) {
	s, err := parseBound(strings.TrimSpace(start), false)
	if err != nil {
		return Filter{}, invalid("start", "start must be a YYYY-MM-DD date")
	}
	e, err := parseBound(strings.TrimSpace(end), true)
	if err != nil {
		return Filter{}, invalid("end", "end must be a YYYY-MM-DD date")
	}
	if accountID < 0 {
		return Filter{}, invalid("account_id", "account id must not be negative")
	}
	return Filter{Start: s, End: e, AccountID: accountID}, nil
}

// parseBound accepts days 1-31 in any month. An overflowing end bound
// clamps to the month's last day; an overflowing start bound moves to the
// first day of the next month.
func parseBound(s string, isEnd bool) (Date, error) {
	if d, err := ParseDate(s); err == nil {
		return d, nil
	}
	if len(s) != len(DateLayout) || s[4] != '-' || s[7] != '-' {
		return Date{}, errBadBound
	}
	year, err1 := strconv.Atoi(s[0:4])
	month, err2 := strconv.Atoi(s[5:7])
	day, err3 := strconv.Atoi(s[8:10])
	if err1 != nil || err2 != nil || err3 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, errBadBound
	}
	first := NewDate(year, month, 1)
	if isEnd {
		return Date{Time: first.AddDate(0, 1, -1)}, nil
	}
	return Date{Time: first.AddDate(0, 1, 0)}, nil
}

// Inverted reports whether Start is after End.
func (f Filter) Inverted() bool {
	return f.Start.After(f.End.Time)
}

// Matches applies the same inclusive predicate the repository uses.
func (f Filter) Matches(t Transaction) bool {
	if f.AccountID != 0 && t.AccountID != f.AccountID {
		return false
	}
	return !t.Date.Before(f.Start.Time) && !t.Date.After(f.End.Time)
}

// ValidateAccountName trims the name and enforces presence and length.
func ValidateAccountName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "account name required")
	}
	if len([]rune(name)) > maxAccountNameLength {
		return "", invalid("name", "account name too long (max 100 characters)")
	}
	return name, nil
}

// CurrentMonthRange returns the first and last calendar day of today's month.
func CurrentMonthRange(today time.Time) (Date, Date) {
	start := NewDate(today.Year(), int(today.Month()), 1)
	end := Date{Time: start.AddDate(0, 1, -1)}
	return start, end
}
