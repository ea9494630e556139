package solar

import (
	"github.com/joeblew999/plat-solar/internal/errors"
)

// Defaults used by the dashboard when the household leaves a field blank.
const (
	DefaultMonthlyBill      = 300.0
	DefaultEnergyCostPerKwh = 0.36
	DefaultPanelWatts       = 425.0
	DefaultDcToAcDerate     = 0.90
)

// FindSolarConfig returns the index of the first configuration whose AC
// output (DC output scaled by capacityRatio and derate) covers yearlyKwh.
// Configurations are assumed ordered by ascending panel count. When none
// suffices the last (largest) configuration is returned.
func FindSolarConfig(configs []SolarPanelConfig, yearlyKwh, capacityRatio, derate float64) (int, error) {
	if len(configs) == 0 {
		return 0, errors.New(errors.ErrCodeEmptyConfigList, "no solar panel configurations")
	}
	for i, c := range configs {
		if ACKwh(c, capacityRatio, derate) >= yearlyKwh {
			return i, nil
		}
	}
	return len(configs) - 1, nil
}

// ACKwh is the yearly AC energy of a configuration.
func ACKwh(c SolarPanelConfig, capacityRatio, derate float64) float64 {
	return c.YearlyEnergyDcKwh * capacityRatio * derate
}

// YearlyKwhConsumption converts an average monthly bill into yearly kWh.
func YearlyKwhConsumption(monthlyBill, costPerKwh float64) (float64, error) {
	if costPerKwh <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "energy cost per kWh must be positive, got %v", costPerKwh)
	}
	if monthlyBill < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "monthly bill must not be negative, got %v", monthlyBill)
	}
	return monthlyBill / costPerKwh * 12, nil
}

// PanelCapacityRatio scales the provider's panel wattage to the panel the
// household intends to install.
func PanelCapacityRatio(userWatts, defaultWatts float64) (float64, error) {
	if defaultWatts <= 0 || userWatts <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "panel capacity must be positive (user %v, default %v)", userWatts, defaultWatts)
	}
	return userWatts / defaultWatts, nil
}

// Consumption is what a household tells the dashboard about itself.
type Consumption struct {
	MonthlyBill        float64 `json:"monthlyBill,omitempty" doc:"Average monthly energy bill" default:"300"`
	EnergyCostPerKwh   float64 `json:"energyCostPerKwh,omitempty" doc:"Energy cost per kWh" default:"0.36"`
	PanelCapacityWatts float64 `json:"panelCapacityWatts,omitempty" doc:"Capacity of the panel to install; 0 uses the provider's panel"`
	DcToAcDerate       float64 `json:"dcToAcDerate,omitempty" doc:"Inverter DC to AC efficiency" default:"0.9"`
}

// withDefaults fills blank fields.
func (c Consumption) withDefaults(sp SolarPotential) Consumption {
	if c.MonthlyBill == 0 {
		c.MonthlyBill = DefaultMonthlyBill
	}
	if c.EnergyCostPerKwh == 0 {
		c.EnergyCostPerKwh = DefaultEnergyCostPerKwh
	}
	if c.PanelCapacityWatts == 0 {
		c.PanelCapacityWatts = sp.PanelCapacityWatts
	}
	if c.DcToAcDerate == 0 {
		c.DcToAcDerate = DefaultDcToAcDerate
	}
	return c
}

// Selection is the configuration chosen for a household.
type Selection struct {
	ConfigIndex          int     `json:"configIndex"`
	PanelsCount          int     `json:"panelsCount"`
	YearlyEnergyDcKwh    float64 `json:"yearlyEnergyDcKwh"`
	YearlyEnergyAcKwh    float64 `json:"yearlyEnergyAcKwh"`
	YearlyKwhConsumption float64 `json:"yearlyKwhConsumption"`
	PanelCapacityRatio   float64 `json:"panelCapacityRatio"`
	Covered              bool    `json:"covered" doc:"Whether the chosen configuration meets the consumption"`
}

// Select runs the dashboard's sizing flow: bill to yearly kWh, capacity
// ratio, then FindSolarConfig.
func Select(sp SolarPotential, c Consumption) (Selection, error) {
	c = c.withDefaults(sp)
	if c.DcToAcDerate < 0 || c.DcToAcDerate > 1 {
		return Selection{}, errors.New(errors.ErrCodeInvalidInput, "dcToAcDerate must be within [0,1], got %v", c.DcToAcDerate)
	}
	yearly, err := YearlyKwhConsumption(c.MonthlyBill, c.EnergyCostPerKwh)
	if err != nil {
		return Selection{}, err
	}
	ratio, err := PanelCapacityRatio(c.PanelCapacityWatts, sp.PanelCapacityWatts)
	if err != nil {
		return Selection{}, err
	}
	idx, err := FindSolarConfig(sp.SolarPanelConfigs, yearly, ratio, c.DcToAcDerate)
	if err != nil {
		return Selection{}, err
	}

	cfg := sp.SolarPanelConfigs[idx]
	ac := ACKwh(cfg, ratio, c.DcToAcDerate)
	return Selection{
		ConfigIndex:          idx,
		PanelsCount:          cfg.PanelsCount,
		YearlyEnergyDcKwh:    cfg.YearlyEnergyDcKwh,
		YearlyEnergyAcKwh:    ac,
		YearlyKwhConsumption: yearly,
		PanelCapacityRatio:   ratio,
		Covered:              ac >= yearly,
	}, nil
}
