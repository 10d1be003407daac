package cache

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/lead-sync/internal/entity"
)

// DefaultTTL: metadados de pipeline mudam raramente; 24h de frescor evita
// bater no CRM a cada lead.
const DefaultTTL = 24 * time.Hour

// PipelineFetcher é quem fala com o CRM de verdade.
type PipelineFetcher interface {
	ListPipelines(ctx context.Context) ([]entity.Pipeline, error)
}

type pipelineEntry struct {
	pipelines []entity.Pipeline
	fetchedAt time.Time
}

type stageEntry struct {
	stages    []entity.Stage
	fetchedAt time.Time
}

// PipelineCache resolve nome→ID com janela de frescor. Expiração é checada
// na leitura (sem goroutine de eviction). Chamadas concorrentes num miss
// podem duplicar o fetch upstream: aceito, o dado é idempotente e barato.
type PipelineCache struct {
	mu      sync.RWMutex
	fetcher PipelineFetcher
	ttl     time.Duration

	// pipelines por locationId; stages por pipelineId.
	pipelines map[string]*pipelineEntry
	stages    map[string]*stageEntry

	locationID string

	// OnEvent recebe "hit" / "miss" / "expired" (opcional, usado pra métricas).
	OnEvent func(result string)

	now func() time.Time
}

func NewPipelineCache(fetcher PipelineFetcher, locationID string, ttl time.Duration) *PipelineCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PipelineCache{
		fetcher:    fetcher,
		ttl:        ttl,
		pipelines:  make(map[string]*pipelineEntry),
		stages:     make(map[string]*stageEntry),
		locationID: locationID,
		now:        time.Now,
	}
}

// ResolvePipeline traduz o nome legível (case-insensitive) no ID do CRM.
// ok=false quando a location não tem pipeline com esse nome.
func (c *PipelineCache) ResolvePipeline(ctx context.Context, name string) (string, bool, error) {
	pipelines, err := c.getPipelines(ctx)
	if err != nil {
		return "", false, err
	}

	want := strings.ToLower(strings.TrimSpace(name))
	for _, p := range pipelines {
		if strings.ToLower(strings.TrimSpace(p.Name)) == want {
			return p.ID, true, nil
		}
	}
	return "", false, nil
}

// ResolveStage traduz o nome do estágio dentro de um pipeline. Nome que não
// existe cai no primeiro estágio do pipeline — fallback documentado, não é
// erro. Erro só quando o pipeline em si não dá pra carregar.
func (c *PipelineCache) ResolveStage(ctx context.Context, pipelineID, stageName string) (string, error) {
	stages, err := c.getStages(ctx, pipelineID)
	if err != nil {
		return "", err
	}
	if len(stages) == 0 {
		return "", fmt.Errorf("pipeline %s não tem estágios", pipelineID)
	}

	want := strings.ToLower(strings.TrimSpace(stageName))
	if want != "" {
		for _, s := range stages {
			if strings.ToLower(strings.TrimSpace(s.Name)) == want {
				return s.ID, nil
			}
		}
		log.Printf("⚠️ Estágio %q não existe no pipeline %s, usando o primeiro", stageName, pipelineID)
	}

	first := stages[0]
	for _, s := range stages[1:] {
		if s.Position < first.Position {
			first = s
		}
	}
	return first.ID, nil
}

// ClearAll derruba tudo: próximo acesso re-busca no CRM.
func (c *PipelineCache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pipelines = make(map[string]*pipelineEntry)
	c.stages = make(map[string]*stageEntry)
	log.Println("🧹 Cache de pipelines limpo (tudo)")
}

// ClearStages expira os estágios de UM pipeline, achado pelo nome no que já
// temos em cache (inclusive entradas vencidas). Devolve false se o nome não
// era conhecido.
func (c *PipelineCache) ClearStages(pipelineName string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	want := strings.ToLower(strings.TrimSpace(pipelineName))
	for _, entry := range c.pipelines {
		for _, p := range entry.pipelines {
			if strings.ToLower(strings.TrimSpace(p.Name)) == want {
				delete(c.stages, p.ID)
				log.Printf("🧹 Cache de estágios limpo para pipeline %q", pipelineName)
				return true
			}
		}
	}
	return false
}

func (c *PipelineCache) getPipelines(ctx context.Context) ([]entity.Pipeline, error) {
	c.mu.RLock()
	entry, ok := c.pipelines[c.locationID]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		c.event("hit")
		return entry.pipelines, nil
	}
	if ok {
		c.event("expired")
	} else {
		c.event("miss")
	}

	return c.refresh(ctx)
}

func (c *PipelineCache) getStages(ctx context.Context, pipelineID string) ([]entity.Stage, error) {
	c.mu.RLock()
	entry, ok := c.stages[pipelineID]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		c.event("hit")
		return entry.stages, nil
	}
	if ok {
		c.event("expired")
	} else {
		c.event("miss")
	}

	pipelines, err := c.refresh(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pipelines {
		if p.ID == pipelineID {
			return p.Stages, nil
		}
	}
	return nil, fmt.Errorf("pipeline %s não existe na location", pipelineID)
}

// refresh busca no CRM e regrava pipelines + estágios. Sobrescrita
// concorrente é idempotente, então não seguramos o lock durante o fetch.
func (c *PipelineCache) refresh(ctx context.Context) ([]entity.Pipeline, error) {
	pipelines, err := c.fetcher.ListPipelines(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar pipelines no CRM: %w", err)
	}

	fetchedAt := c.now()

	c.mu.Lock()
	c.pipelines[c.locationID] = &pipelineEntry{pipelines: pipelines, fetchedAt: fetchedAt}
	for _, p := range pipelines {
		c.stages[p.ID] = &stageEntry{stages: p.Stages, fetchedAt: fetchedAt}
	}
	c.mu.Unlock()

	return pipelines, nil
}

func (c *PipelineCache) event(result string) {
	if c.OnEvent != nil {
		c.OnEvent(result)
	}
}
