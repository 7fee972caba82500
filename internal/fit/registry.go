package fit

import "fmt"

// registry maps a model name to its constructor.
var registry = map[ModelName]func() Model{
	LogNormal:         func() Model { return lognormalModel{} },
	LogNormalPowerLaw: func() Model { return lognormalPowerLawModel{} },
	PowerLaw:          func() Model { return powerLawModel{} },
	TruncatedPowerLaw: func() Model { return truncatedPowerLawModel{} },
	GaussianPowerLaw:  func() Model { return gaussianPowerLawModel{} },
}

// registryOrder is the order Names reports models in.
var registryOrder = []ModelName{
	LogNormal,
	LogNormalPowerLaw,
	PowerLaw,
	TruncatedPowerLaw,
	GaussianPowerLaw,
}

// Lookup returns the model registered under name.
func Lookup(name ModelName) (Model, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q", name)
	}
	return ctor(), nil
}

// Names lists every registered model.
func Names() []ModelName {
	return append([]ModelName(nil), registryOrder...)
}
