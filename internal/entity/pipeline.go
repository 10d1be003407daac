package entity

// Pipeline é o funil de vendas como o CRM devolve: nome legível + estágios
// ordenados. Nós nunca criamos nem alteramos pipelines, só lemos.
type Pipeline struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Stages []Stage `json:"stages"`
}

// Stage é um passo dentro de um pipeline.
type Stage struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// FirstStage devolve o primeiro estágio (menor position) ou ok=false se o
// pipeline veio sem estágios.
func (p Pipeline) FirstStage() (Stage, bool) {
	if len(p.Stages) == 0 {
		return Stage{}, false
	}
	first := p.Stages[0]
	for _, s := range p.Stages[1:] {
		if s.Position < first.Position {
			first = s
		}
	}
	return first, true
}
