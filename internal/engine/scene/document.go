package scene

// document is the engine state tree and the snapshot format
type document struct {
	Version         int              `json:"version"`
	Data            *dataCell        `json:"data,omitempty"`
	Trajectory      *trajectory      `json:"trajectory,omitempty"`
	Structure       *structureCell   `json:"structure,omitempty"`
	Representations []representation `json:"representations,omitempty"`
	Canvas          canvas           `json:"canvas"`
	Counters        map[string]int   `json:"counters,omitempty"`
}

const documentVersion = 1

type dataCell struct {
	Ref   string `json:"ref"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

type trajectory struct {
	Ref      string `json:"ref"`
	Format   string `json:"format"`
	Models   int    `json:"models"`
	Atoms    int    `json:"atoms"`
	HetAtoms int    `json:"het_atoms"`
}

type structureCell struct {
	Ref      string `json:"ref"`
	Preset   string `json:"preset"`
	Revision int    `json:"revision"`
}

type representation struct {
	Ref      string `json:"ref"`
	Type     string `json:"type"`
	Selector string `json:"selector"`
	Revision int    `json:"revision"`
}

type canvas struct {
	Revision   int     `json:"revision"`
	Background string  `json:"background"`
	Zoom       float64 `json:"zoom"`
}

func newDocument() *document {
	return &document{
		Version: documentVersion,
		Canvas:  canvas{Background: "white", Zoom: 1},
	}
}
