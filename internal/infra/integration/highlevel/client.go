package highlevel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/xavierca1/lead-sync/internal/entity"
)

const defaultBaseURL = "https://services.leadconnectorhq.com"

// apiVersion é o header obrigatório da segunda geração da API.
const apiVersion = "2021-07-28"

type Client struct {
	apiToken   string
	locationID string
	baseURL    string
	http       *http.Client
}

func NewClient(apiToken, locationID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiToken:   apiToken,
		locationID: locationID,
		baseURL:    baseURL,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) LocationID() string {
	return c.locationID
}

// SearchContactByEmail busca o contato pelo email normalizado.
// Devolve nil (sem erro) quando não existe — erro aqui significa "não sei",
// e quem chama NÃO pode tratar "não sei" como "não existe", senão cria
// contato duplicado depois de uma falha transitória.
func (c *Client) SearchContactByEmail(ctx context.Context, email string) (*ContactMatch, error) {
	q := url.Values{}
	q.Set("query", email)
	q.Set("locationId", c.locationID)
	reqURL := fmt.Sprintf("%s/contacts/?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro request highlevel: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("erro ao buscar contato (status %d): %s", resp.StatusCode, string(body))
	}

	var result contactSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("erro decode highlevel: %w", err)
	}

	if len(result.Contacts) == 0 {
		return nil, nil
	}

	// Mais de um match: ficamos com o primeiro (determinístico) e deixamos
	// rastro no log — não temos critério melhor de desempate.
	if len(result.Contacts) > 1 {
		log.Printf("⚠️ HighLevel: busca por %s devolveu %d contatos, usando o primeiro", email, len(result.Contacts))
	}

	first := result.Contacts[0]
	return &ContactMatch{ID: first.ID, Tags: first.Tags}, nil
}

// CreateContact cria o contato no CRM e devolve o ID opaco.
// O locationId vai no corpo — sem ele a API rejeita o create.
func (c *Client) CreateContact(ctx context.Context, input CreateContactInput) (string, error) {
	payload := createContactRequest{
		LocationID: c.locationID,
		Email:      input.Email,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Phone:      input.Phone,
		Source:     input.Source,
		Tags:       input.Tags,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("erro ao marshal contato: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/contacts/", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("erro request highlevel: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("❌ HighLevel: create contato falhou (status %d): %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("erro criar contato (status %d)", resp.StatusCode)
	}

	var result contactResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("erro decode highlevel: %w", err)
	}
	if result.Contact.ID == "" {
		return "", fmt.Errorf("erro ao obter ID do contato criado")
	}

	log.Printf("✅ HighLevel: novo contato criado: %s", result.Contact.ID)
	return result.Contact.ID, nil
}

// UpdateContact atualiza um contato existente.
// O payload de update NUNCA carrega locationId — a API v2 devolve 422 se
// o campo aparecer. Por isso o tipo updateContactRequest nem tem o campo.
func (c *Client) UpdateContact(ctx context.Context, contactID string, input UpdateContactInput) error {
	payload := updateContactRequest{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		Source:    input.Source,
		Tags:      input.Tags,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("erro ao marshal contato: %w", err)
	}

	reqURL := fmt.Sprintf("%s/contacts/%s", c.baseURL, contactID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, reqURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("erro request highlevel: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("❌ HighLevel: update contato %s falhou (status %d): %s", contactID, resp.StatusCode, string(body))
		return fmt.Errorf("erro atualizar contato (status %d)", resp.StatusCode)
	}

	return nil
}

// ListPipelines devolve todos os pipelines (funis) da location, com os
// estágios já embutidos. Quem cacheia é a camada de cima.
func (c *Client) ListPipelines(ctx context.Context) ([]entity.Pipeline, error) {
	q := url.Values{}
	q.Set("locationId", c.locationID)
	reqURL := fmt.Sprintf("%s/pipelines?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro request highlevel: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("erro listar pipelines (status %d): %s", resp.StatusCode, string(body))
	}

	var result pipelinesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("erro decode highlevel: %w", err)
	}

	pipelines := make([]entity.Pipeline, 0, len(result.Pipelines))
	for _, p := range result.Pipelines {
		pipeline := entity.Pipeline{ID: p.ID, Name: p.Name}
		for _, s := range p.Stages {
			pipeline.Stages = append(pipeline.Stages, entity.Stage{
				ID:       s.ID,
				Name:     s.Name,
				Position: s.Position,
			})
		}
		pipelines = append(pipelines, pipeline)
	}

	return pipelines, nil
}

// CreateOpportunity cria a oportunidade já amarrada a contato + estágio.
func (c *Client) CreateOpportunity(ctx context.Context, input CreateOpportunityInput) (string, error) {
	payload := createOpportunityRequest{
		LocationID:      c.locationID,
		ContactID:       input.ContactID,
		PipelineID:      input.PipelineID,
		PipelineStageID: input.PipelineStageID,
		Name:            input.Name,
		Status:          "open",
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("erro ao marshal oportunidade: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/opportunities/", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("erro request highlevel: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("❌ HighLevel: create oportunidade falhou (status %d): %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("erro criar oportunidade (status %d)", resp.StatusCode)
	}

	var result opportunityResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("erro decode highlevel: %w", err)
	}
	if result.Opportunity.ID == "" {
		return "", fmt.Errorf("erro ao obter ID da oportunidade criada")
	}

	log.Printf("✅ HighLevel: oportunidade criada %s (contato %s)", result.Opportunity.ID, input.ContactID)
	return result.Opportunity.ID, nil
}

// setHeaders centraliza os headers obrigatórios
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiToken))
	req.Header.Set("Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
