package registry

import (
	"fmt"

	"github.com/google/uuid"
	consul "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

// Registration announces the service to Consul when enabled; a no-op handle
// is returned otherwise so callers always defer Deregister.
type Registration struct {
	client *consul.Client
	id     string
	log    *zap.SugaredLogger
}

func Register(addr, serviceName string, port int, log *zap.SugaredLogger) (*Registration, error) {
	if addr == "" {
		return &Registration{log: log}, nil
	}
	cfg := consul.DefaultConfig()
	cfg.Address = addr
	client, err := consul.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	id := serviceName + "-" + uuid.NewString()
	reg := &consul.AgentServiceRegistration{
		ID:   id,
		Name: serviceName,
		Port: port,
		Check: &consul.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://localhost:%d/healthz", port),
			Interval:                       "10s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := client.Agent().ServiceRegister(reg); err != nil {
		return nil, fmt.Errorf("consul register: %w", err)
	}
	log.Infow("registered with consul", "service", serviceName, "id", id)
	return &Registration{client: client, id: id, log: log}, nil
}

func (r *Registration) Deregister() {
	if r == nil || r.client == nil {
		return
	}
	if err := r.client.Agent().ServiceDeregister(r.id); err != nil {
		r.log.Warnw("consul deregister", "id", r.id, "err", err)
	}
}
