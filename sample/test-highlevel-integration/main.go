package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/xavierca1/lead-sync/internal/infra/integration/highlevel"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Aviso: arquivo .env não encontrado, usando variáveis de ambiente do sistema")
	}

	if os.Getenv("HL_API_TOKEN") == "" || os.Getenv("HL_LOCATION_ID") == "" {
		log.Fatal("❌ HL_API_TOKEN e HL_LOCATION_ID devem estar configurados no .env")
	}

	client := highlevel.NewClient(
		os.Getenv("HL_API_TOKEN"),
		os.Getenv("HL_LOCATION_ID"),
		os.Getenv("HL_BASE_URL"),
	)

	ctx := context.Background()
	email := "joao.teste@email.com"

	fmt.Println("🔄 Buscando contato no HighLevel...")
	match, err := client.SearchContactByEmail(ctx, email)
	if err != nil {
		log.Fatalf("Erro na busca: %v", err)
	}

	if match != nil {
		fmt.Printf("📱 Contato já existe: %s (tags: %v)\n", match.ID, match.Tags)
	} else {
		fmt.Println("📋 Contato não existe, criando...")
		contactID, err := client.CreateContact(ctx, highlevel.CreateContactInput{
			Email:     email,
			FirstName: "Joao",
			LastName:  "Teste da Silva",
			Phone:     "+556199767638",
			Source:    "smoke-test",
			Tags:      []string{"landing-lead", "smoke-test"},
		})
		if err != nil {
			log.Fatalf("Erro ao criar contato: %v", err)
		}
		fmt.Printf("✅ Contato criado: %s\n", contactID)
	}

	fmt.Println("\n🔄 Listando pipelines da location...")
	pipelines, err := client.ListPipelines(ctx)
	if err != nil {
		log.Fatalf("Erro ao listar pipelines: %v", err)
	}

	for _, p := range pipelines {
		fmt.Printf("   Pipeline %q (%s)\n", p.Name, p.ID)
		for _, s := range p.Stages {
			fmt.Printf("      %d. %s (%s)\n", s.Position, s.Name, s.ID)
		}
	}
}
