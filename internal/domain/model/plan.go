package model

// PlanTier is a named subscription level controlling how many tenant records
// an account may manage.
type PlanTier string

const (
	TierFree       PlanTier = "free"
	TierStarter    PlanTier = "starter"
	TierBasic      PlanTier = "basic"
	TierStandard   PlanTier = "standard"
	TierPro        PlanTier = "pro"
	TierProPlus    PlanTier = "proplus"
	TierEnterprise PlanTier = "enterprise"
)

// PlanMeta is static per-tier metadata. TenantLimit 0 means unlimited.
type PlanMeta struct {
	Tier        PlanTier
	TenantLimit int
	Premium     bool
}

// planTable is the single source of truth for tier capabilities.
var planTable = map[PlanTier]PlanMeta{
	TierFree:       {Tier: TierFree, TenantLimit: 3, Premium: false},
	TierStarter:    {Tier: TierStarter, TenantLimit: 5, Premium: false},
	TierBasic:      {Tier: TierBasic, TenantLimit: 10, Premium: false},
	TierStandard:   {Tier: TierStandard, TenantLimit: 30, Premium: true},
	TierPro:        {Tier: TierPro, TenantLimit: 50, Premium: true},
	TierProPlus:    {Tier: TierProPlus, TenantLimit: 70, Premium: true},
	TierEnterprise: {Tier: TierEnterprise, TenantLimit: 0, Premium: true},
}

// MetaFor returns tier metadata, falling back to the free tier for unknown names.
func MetaFor(tier PlanTier) PlanMeta {
	if m, ok := planTable[tier]; ok {
		return m
	}
	return planTable[TierFree]
}

// PriceBand maps a paid amount (minor currency unit, KRW) to a plan. Desktop
// checkout labels plans with Korean display names plus a numeric level; mobile
// checkout identifies plans by tier id only.
type PriceBand struct {
	MinAmount int64
	Tier      PlanTier
	Name      string // display name shown on the gateway receipt
	Level     int    // desktop plan level
}

// Bands are ordered ascending; lookup picks the highest band whose MinAmount
// is <= the paid amount (boundary amounts land on the band itself).
var desktopBands = []PriceBand{
	{MinAmount: 33000, Tier: TierBasic, Name: "베이직", Level: 1},
	{MinAmount: 55000, Tier: TierStandard, Name: "스탠다드", Level: 2},
	{MinAmount: 99000, Tier: TierPro, Name: "프리미엄", Level: 3},
	{MinAmount: 165000, Tier: TierEnterprise, Name: "엔터프라이즈", Level: 4},
}

var mobileBands = []PriceBand{
	{MinAmount: 4900, Tier: TierStarter, Name: "스타터", Level: 1},
	{MinAmount: 9900, Tier: TierBasic, Name: "베이직", Level: 2},
	{MinAmount: 29900, Tier: TierStandard, Name: "스탠다드", Level: 3},
	{MinAmount: 49900, Tier: TierPro, Name: "프리미엄", Level: 4},
	{MinAmount: 69900, Tier: TierProPlus, Name: "프리미엄플러스", Level: 5},
	{MinAmount: 99900, Tier: TierEnterprise, Name: "엔터프라이즈", Level: 6},
}

// BandForAmount resolves the plan band for a paid amount on the given channel.
// Returns false when the amount is below the cheapest band.
func BandForAmount(channel Channel, amount int64) (PriceBand, bool) {
	bands := desktopBands
	if channel == ChannelMobile {
		bands = mobileBands
	}
	var found PriceBand
	ok := false
	for _, b := range bands {
		if amount >= b.MinAmount {
			found = b
			ok = true
		}
	}
	return found, ok
}
