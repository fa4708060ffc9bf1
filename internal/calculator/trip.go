package calculator

import (
	"fmt"
	"strconv"
	"strings"
)

// Trip is one reimbursement request as seen by the legacy system.
type Trip struct {
	Days     int     `json:"trip_duration_days" yaml:"trip_duration_days"`
	Miles    float64 `json:"miles_traveled" yaml:"miles_traveled"`
	Receipts float64 `json:"total_receipts_amount" yaml:"total_receipts_amount"`
}

// Bucket is the duration class a trip is routed to.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketSingleDay
	BucketTwoDay
	BucketThreeDay
	BucketMid
	BucketLong
)

// Buckets lists the routable buckets in dispatch order.
var Buckets = []Bucket{BucketSingleDay, BucketTwoDay, BucketThreeDay, BucketMid, BucketLong}

func BucketFor(days int) Bucket {
	switch {
	case days == 1:
		return BucketSingleDay
	case days == 2:
		return BucketTwoDay
	case days == 3:
		return BucketThreeDay
	case days >= 4 && days <= 6:
		return BucketMid
	case days >= 7:
		return BucketLong
	default:
		return BucketNone
	}
}

func (b Bucket) String() string {
	switch b {
	case BucketSingleDay:
		return "1d"
	case BucketTwoDay:
		return "2d"
	case BucketThreeDay:
		return "3d"
	case BucketMid:
		return "4-6d"
	case BucketLong:
		return "7+d"
	default:
		return "none"
	}
}

func (t Trip) Bucket() Bucket { return BucketFor(t.Days) }

// MilesPerReceipt is the hustle ratio; zero receipts yield 0.
func (t Trip) MilesPerReceipt() float64 {
	if t.Receipts > 0 {
		return t.Miles / t.Receipts
	}
	return 0
}

func (t Trip) String() string {
	return fmt.Sprintf("%dd, %gmi, $%.2f", t.Days, t.Miles, t.Receipts)
}

// Key is the lookup key "days_miles_receipts" with shortest decimal numbers.
// Case files carry miles as integers and receipts as money, so a whole
// receipt amount keeps a ".0" suffix: 5 receipts key as "5.0".
func (t Trip) Key() string {
	receipts := strconv.FormatFloat(t.Receipts, 'f', -1, 64)
	if !strings.Contains(receipts, ".") {
		receipts += ".0"
	}
	return strconv.Itoa(t.Days) + "_" +
		strconv.FormatFloat(t.Miles, 'f', -1, 64) + "_" + receipts
}
