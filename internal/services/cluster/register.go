package cluster

import (
	"fmt"
	"net/http"
	"os"

	consul "github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// RegisterService registra o serviço no Consul com um health check HTTP.
// O id do serviço combina o nome com o hostname, para cada instância ser
// única no catálogo.
func RegisterService(serviceName string, servicePort, healthPort int, consulAddrs string, log zerolog.Logger) error {
	client, err := NewConsulClient(consulAddrs, log)
	if err != nil {
		return err
	}

	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}
	serviceID := fmt.Sprintf("%s-%s", serviceName, hostname)

	registration := &consul.AgentServiceRegistration{
		ID:   serviceID,
		Name: serviceName,
		Port: servicePort,

		// O agente do Consul resolve o endereço da instância sozinho; o
		// check precisa de um host resolvível, e o hostname do contêiner
		// cumpre esse papel.
		Check: &consul.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", hostname, healthPort),
			Timeout:                        "5s",
			Interval:                       "10s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("consul service register: %w", err)
	}

	log.Info().Str("service", serviceName).Str("id", serviceID).Msg("registered in consul")
	return nil
}

// NewBasicHealthHandler é o liveness check genérico que os serviços
// expõem para o Consul.
func NewBasicHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Service is alive.")
	}
}
