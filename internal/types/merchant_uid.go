package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/samber/lo"
)

const (
	merchantUidPrefix     = "ORDER-"
	merchantUidTimeLayout = "20060102-150405"
	merchantUidSuffixLen  = 6
)

var (
	merchantUidPattern = regexp.MustCompile(`^ORDER-\d{8}-\d{6}-[A-Z0-9]{6}$`)
	suffixCharset      = append(append([]rune{}, lo.UpperCaseLettersCharset...), lo.NumbersCharset...)

	ErrInvalidMerchantUid = errors.New("invalid merchant uid")
)

// MerchantUid is the order reference shared with the gateway: ORDER-yyyyMMdd-HHmmss-XXXXXX
type MerchantUid struct {
	value string
}

// ParseMerchantUid validates s against the format and the embedded timestamp
func ParseMerchantUid(s string) (MerchantUid, error) {
	if !merchantUidPattern.MatchString(s) {
		return MerchantUid{}, fmt.Errorf("%w: %q", ErrInvalidMerchantUid, s)
	}

	stamp := s[len(merchantUidPrefix) : len(merchantUidPrefix)+len(merchantUidTimeLayout)]
	if _, err := time.Parse(merchantUidTimeLayout, stamp); err != nil {
		return MerchantUid{}, fmt.Errorf("%w: bad timestamp %q", ErrInvalidMerchantUid, stamp)
	}

	return MerchantUid{value: s}, nil
}

func MustParseMerchantUid(s string) MerchantUid {
	uid, err := ParseMerchantUid(s)
	if err != nil {
		panic(err)
	}
	return uid
}

// NewMerchantUid generates a fresh identifier stamped with now
func NewMerchantUid(now time.Time) MerchantUid {
	suffix := lo.RandomString(merchantUidSuffixLen, suffixCharset)
	return MerchantUid{value: merchantUidPrefix + now.Format(merchantUidTimeLayout) + "-" + suffix}
}

func (m MerchantUid) String() string {
	return m.value
}

func (m MerchantUid) IsZero() bool {
	return m.value == ""
}

// IssuedAt returns the timestamp embedded in the identifier, in loc
func (m MerchantUid) IssuedAt(loc *time.Location) time.Time {
	if m.IsZero() {
		return time.Time{}
	}
	stamp := m.value[len(merchantUidPrefix) : len(merchantUidPrefix)+len(merchantUidTimeLayout)]
	t, _ := time.ParseInLocation(merchantUidTimeLayout, stamp, loc)
	return t
}

// Date returns the yyyyMMdd part
func (m MerchantUid) Date() string {
	if m.IsZero() {
		return ""
	}
	return m.value[len(merchantUidPrefix) : len(merchantUidPrefix)+8]
}

func (m MerchantUid) Value() (driver.Value, error) {
	return m.value, nil
}

func (m *MerchantUid) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*m = MerchantUid{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into MerchantUid", src)
	}

	parsed, err := ParseMerchantUid(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m MerchantUid) MarshalText() ([]byte, error) {
	return []byte(m.value), nil
}

func (m *MerchantUid) UnmarshalText(text []byte) error {
	parsed, err := ParseMerchantUid(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
