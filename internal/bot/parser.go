package bot

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var (
	// ErrMissingFields is returned when name, price or location is absent.
	ErrMissingFields = errors.New("missing fields")
	// ErrInvalidPrice is returned for prices that are not non-negative amounts.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrInvalidDate is returned when the "on" date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
)

// maxPrice is the largest value a NUMERIC(12,2) column holds.
var maxPrice = decimal.RequireFromString("9999999999.99")

// priceRegex matches amounts like "5", "5.50", "5,50" or "$5.50".
var priceRegex = regexp.MustCompile(`^\$?(\d+(?:[.,]\d{1,2})?)$`)

// dateSuffixRegex matches a trailing "on 2024-03-05". Other words after
// "on" stay part of the location.
var dateSuffixRegex = regexp.MustCompile(`(?i)(?:^|\s)on\s+(\d{4}-\d{2}-\d{2})$`)

// ParsedExpense represents the fields of an /add command.
type ParsedExpense struct {
	Price    decimal.Decimal
	Name     string
	Location string
	Date     time.Time
}

// ParseAddCommand parses "<price> <name> @ <location> [on YYYY-MM-DD]".
// Without an explicit date the expense is dated today.
func ParseAddCommand(args string, today time.Time) (*ParsedExpense, error) {
	args = strings.TrimSpace(args)

	head, location, found := strings.Cut(args, "@")
	if !found {
		return nil, ErrMissingFields
	}

	priceStr, name, _ := strings.Cut(strings.TrimSpace(head), " ")
	name = strings.TrimSpace(name)
	if priceStr == "" || name == "" {
		return nil, ErrMissingFields
	}

	price, err := parsePrice(priceStr)
	if err != nil {
		return nil, err
	}

	location = strings.TrimSpace(location)
	date := today
	if m := dateSuffixRegex.FindStringSubmatchIndex(location); m != nil {
		dateStr := location[m[2]:m[3]]
		parsed, err := time.ParseInLocation(dateLayout, dateStr, today.Location())
		if err != nil {
			return nil, ErrInvalidDate
		}
		date = parsed
		location = strings.TrimSpace(location[:m[0]])
	}
	if location == "" {
		return nil, ErrMissingFields
	}

	return &ParsedExpense{
		Price:    price,
		Name:     name,
		Location: location,
		Date:     date,
	}, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	match := priceRegex.FindStringSubmatch(s)
	if match == nil {
		return decimal.Zero, ErrInvalidPrice
	}

	price, err := decimal.NewFromString(strings.ReplaceAll(match[1], ",", "."))
	if err != nil || price.GreaterThan(maxPrice) {
		return decimal.Zero, ErrInvalidPrice
	}
	return price, nil
}

// extractCommandArgs returns the text after the command, dropping an
// optional @botname suffix.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.Index(args, " "); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}
