package models

// Preset vectors over the five game positions (metal, energy, credits, research, population)

// Empty returns a game vector with every position at zero
func Empty() Resources {
	return Zeros(GameDimension)
}

// FullValue returns a game vector with every position set
func FullValue(metal, energy, credits, research, population float64) Resources {
	return NewResources(metal, energy, credits, research, population)
}

// BasicValue returns a game vector holding metal, energy and credits only
func BasicValue(metal, energy, credits float64) Resources {
	return FullValue(metal, energy, credits, 0, 0)
}

// MetalValue returns a game vector holding only metal
func MetalValue(metal float64) Resources {
	return Single(Metal, metal)
}

// EnergyValue returns a game vector holding only energy
func EnergyValue(energy float64) Resources {
	return Single(Energy, energy)
}

// CreditsValue returns a game vector holding only credits
func CreditsValue(credits float64) Resources {
	return Single(Credits, credits)
}

// ResearchValue returns a game vector holding only research points
func ResearchValue(research float64) Resources {
	return Single(Research, research)
}

// PopulationValue returns a game vector holding only inhabitants
func PopulationValue(population float64) Resources {
	return Single(Population, population)
}

// Single returns a game vector with one position set
func Single(rt ResourceType, amount float64) Resources {
	r := Empty()
	r.values[rt] = amount
	return r
}

// FromMap builds a game vector from named amounts, missing names stay at zero
func FromMap(amounts map[ResourceType]float64) Resources {
	r := Empty()
	for rt, v := range amounts {
		r.values[rt] = v
	}
	return r
}
