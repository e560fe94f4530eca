package model

import "fmt"

type Tier string

const (
	TierBasic   Tier = "BASIC"
	TierPro     Tier = "PRO"
	TierPremium Tier = "PREMIUM"
)

type Module string

const (
	ModulePOS            Module = "pos"
	ModuleQRAccess       Module = "qr_access"
	ModuleGamification   Module = "gamification"
	ModuleClasses        Module = "classes"
	ModuleBiometrics     Module = "biometrics"
	ModuleAdvancedReport Module = "advanced_reports"
)

// ModuleSet is the fixed set of feature flags a tier unlocks.
type ModuleSet struct {
	POS             bool `json:"pos"`
	QRAccess        bool `json:"qr_access"`
	Gamification    bool `json:"gamification"`
	Classes         bool `json:"classes"`
	Biometrics      bool `json:"biometrics"`
	AdvancedReports bool `json:"advanced_reports"`
}

var tierModules = map[Tier]ModuleSet{
	TierBasic: {
		POS: true,
	},
	TierPro: {
		POS:          true,
		QRAccess:     true,
		Gamification: true,
		Classes:      true,
	},
	TierPremium: {
		POS:             true,
		QRAccess:        true,
		Gamification:    true,
		Classes:         true,
		Biometrics:      true,
		AdvancedReports: true,
	},
}

// ModulesFor returns the module set for a tier. Unknown tiers are an error,
// never an empty set.
func ModulesFor(t Tier) (ModuleSet, error) {
	m, ok := tierModules[t]
	if !ok {
		return ModuleSet{}, fmt.Errorf("tier desconocido: %q", t)
	}
	return m, nil
}

func (t Tier) Valid() bool {
	_, ok := tierModules[t]
	return ok
}

// Enabled reports whether the named module is on.
func (m ModuleSet) Enabled(mod Module) bool {
	switch mod {
	case ModulePOS:
		return m.POS
	case ModuleQRAccess:
		return m.QRAccess
	case ModuleGamification:
		return m.Gamification
	case ModuleClasses:
		return m.Classes
	case ModuleBiometrics:
		return m.Biometrics
	case ModuleAdvancedReport:
		return m.AdvancedReports
	}
	return false
}
