package highlevel

// ContactMatch é o que o search devolve pro resto do sistema: o ID opaco do
// CRM e as tags já existentes (precisamos delas pro merge no update).
type ContactMatch struct {
	ID   string
	Tags []string
}

// CreateContactInput / UpdateContactInput são propositalmente dois tipos
// distintos. A API v2 EXIGE locationId no create e REJEITA (422) no update,
// então a assimetria fica visível no tipo e não escondida num if.
type CreateContactInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Source    string
	Tags      []string
}

type UpdateContactInput struct {
	FirstName string
	LastName  string
	Phone     string
	Source    string
	Tags      []string
}

type CreateOpportunityInput struct {
	ContactID       string
	PipelineID      string
	PipelineStageID string
	Name            string
}

// --- PAYLOADS INTERNOS: o que mandamos pro HighLevel ---

// Repare: só o create carrega locationId.
type createContactRequest struct {
	LocationID string   `json:"locationId"`
	Email      string   `json:"email"`
	FirstName  string   `json:"firstName,omitempty"`
	LastName   string   `json:"lastName,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Source     string   `json:"source,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

type updateContactRequest struct {
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Source    string   `json:"source,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// A v2 renomeou os campos: é pipelineStageId (não stageId) e name (não
// title). Com os nomes antigos o CRM descarta silenciosamente.
type createOpportunityRequest struct {
	LocationID      string `json:"locationId"`
	ContactID       string `json:"contactId"`
	PipelineID      string `json:"pipelineId"`
	PipelineStageID string `json:"pipelineStageId"`
	Name            string `json:"name"`
	Status          string `json:"status"`
}

// --- RESPONSES: o que o HighLevel devolve ---

type contactSearchResponse struct {
	Contacts []struct {
		ID   string   `json:"id"`
		Tags []string `json:"tags"`
	} `json:"contacts"`
}

type contactResponse struct {
	Contact struct {
		ID string `json:"id"`
	} `json:"contact"`
}

type pipelinesResponse struct {
	Pipelines []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Stages []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Position int    `json:"position"`
		} `json:"stages"`
	} `json:"pipelines"`
}

type opportunityResponse struct {
	Opportunity struct {
		ID string `json:"id"`
	} `json:"opportunity"`
}
