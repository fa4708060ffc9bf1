package calculator

// Branch computes the unrounded amount for trips of one bucket. Adjustments
// multiply the running value in a fixed order; reordering changes results.
type Branch interface {
	Bucket() Bucket
	Amount(t Trip) float64
}

// Branch returns the strategy for b, or nil for BucketNone.
func (p *Parameters) Branch(b Bucket) Branch {
	switch b {
	case BucketSingleDay:
		return p.SingleDay
	case BucketTwoDay:
		return p.TwoDay
	case BucketThreeDay:
		return p.ThreeDay
	case BucketMid:
		return p.Mid
	case BucketLong:
		return p.Long
	default:
		return nil
	}
}

func (SingleDayParams) Bucket() Bucket { return BucketSingleDay }

func (p SingleDayParams) Amount(t Trip) float64 {
	v := t.Miles*p.MileRate + t.Receipts*p.ReceiptRate
	if t.Miles > p.HighMilesThreshold {
		v *= p.HighMilesPenalty
	}
	if t.Receipts > p.HighReceiptsThreshold {
		v *= p.HighReceiptsPenalty
	}
	if t.MilesPerReceipt() > p.RatioThreshold {
		v *= p.RatioPenalty
	}
	return v
}

func (TwoDayParams) Bucket() Bucket { return BucketTwoDay }

func (p TwoDayParams) Amount(t Trip) float64 {
	v := p.BaseAmount + t.Miles*p.MileRate + t.Receipts*p.ReceiptRate
	if t.Miles < p.LowMilesThreshold {
		v *= p.LowMilesBonus
	}
	if t.Miles > p.HighMilesThreshold {
		v *= p.HighMilesPenalty
	}
	return v
}

func (ThreeDayParams) Bucket() Bucket { return BucketThreeDay }

func (p ThreeDayParams) Amount(t Trip) float64 {
	v := p.BaseAmount + t.Miles*p.MileRate + t.Receipts*p.ReceiptRate
	if t.Receipts < p.LowReceiptsThreshold {
		v *= p.LowReceiptsBonus
	}
	if t.Miles > p.HighMilesThreshold {
		v *= p.HighMilesPenalty
	}
	if t.Receipts > p.HighReceiptsThreshold {
		v *= p.HighReceiptsPenalty
	}
	return v
}

func (MidParams) Bucket() Bucket { return BucketMid }

func (p MidParams) Amount(t Trip) float64 {
	v := float64(t.Days)*p.DailyRate + t.Miles*p.MileRate + t.Receipts*p.ReceiptRate
	if t.Miles < p.LowMilesThreshold {
		v *= p.LowMilesBonus
	}
	if t.Miles > p.HighMilesThreshold {
		v *= p.HighMilesPenalty
	}
	if t.Receipts > p.HighReceiptsThreshold {
		v *= p.HighReceiptsPenalty
	}
	return v
}

func (LongParams) Bucket() Bucket { return BucketLong }

// Amount adjusts the rates first and applies them once; only the cap acts on
// the total.
func (p LongParams) Amount(t Trip) float64 {
	days := float64(t.Days)
	dailyRate, mileRate, receiptRate, bonus := p.DailyRate, p.MileRate, p.ReceiptRate, p.Bonus

	if t.MilesPerReceipt() > p.HustleRatioThreshold {
		mileRate *= p.HustleMileBonus
		bonus += p.HustleBonusAmount
	}
	if t.Receipts/days > p.HighDailySpendingThreshold {
		receiptRate *= p.HighDailySpendingPenalty
		if t.Days >= 8 {
			receiptRate *= p.VacationPenalty
		}
	}
	if t.Miles > p.HighMilesThreshold {
		mileRate *= p.HighMilesPenalty
	}
	if t.Receipts > p.HighReceiptsThreshold {
		receiptRate *= p.HighReceiptsPenalty
	}

	v := days*dailyRate + t.Miles*mileRate + t.Receipts*receiptRate + bonus
	if c := p.Cap(t.Days); v > c {
		v = c
	}
	return v
}

// Cap is the ceiling for a trip of the given length.
func (p LongParams) Cap(days int) float64 {
	switch {
	case days >= 10:
		return p.Cap10Plus
	case days >= 7:
		return p.Cap7to9Base + float64(days)*p.CapPerDay
	default:
		return p.CapDefault
	}
}
