package cluster

import (
	"fmt"
	"strings"

	consul "github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// NewConsulClient cria um cliente Consul tentando cada endereço da lista
// (separada por vírgula) até achar um agente saudável com líder. Isso
// torna a conexão inicial tolerante a nós fora do ar.
func NewConsulClient(addrs string, log zerolog.Logger) (*consul.Client, error) {
	nodes := strings.Split(addrs, ",")
	for _, node := range nodes {
		node = strings.TrimSpace(node)
		cfg := consul.DefaultConfig()
		cfg.Address = node

		client, err := consul.NewClient(cfg)
		if err != nil {
			log.Warn().Str("node", node).Err(err).Msg("consul client creation failed")
			continue
		}

		// Teste rápido de saúde antes de aceitar o nó.
		if _, err := client.Status().Leader(); err != nil {
			log.Warn().Str("node", node).Err(err).Msg("consul node failed health check")
			continue
		}

		log.Info().Str("node", node).Msg("connected to consul")
		return client, nil
	}

	return nil, fmt.Errorf("no consul node available in: %s", addrs)
}
