package domain

// FareBasis identifies which tariff mode produced a fare.
type FareBasis string

const (
	FareBasisFixed         FareBasis = "fixed"
	FareBasisDistanceBased FareBasis = "distanceBased"
)

// TariffRecord is the raw, externally configured tariff row.
// Values are kept as text; they are validated when resolved.
type TariffRecord struct {
	Kind         FareBasis
	Fee          *string
	BaseFare     *string
	TierDistance *string
	TierFare     *string
}

// FixedTariff is a validated flat fare.
type FixedTariff struct {
	Fee float64
}

// DistanceTariff is a validated tiered distance fare.
// TierDistance is in kilometers.
type DistanceTariff struct {
	BaseFare     float64
	TierDistance float64
	TierFare     float64
}
