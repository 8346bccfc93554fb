package consul

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
)

// NewClient connects to the consul agent at the given address.
func NewClient(address string) (*consulapi.Client, error) {
	config := consulapi.DefaultConfig()
	config.Address = address

	client, err := consulapi.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("creating consul client: %w", err)
	}
	return client, nil
}

// RegisterService registers this instance with consul using an HTTP health
// check against /ping.
func RegisterService(client *consulapi.Client, serviceName, host string, port int) error {
	registration := &consulapi.AgentServiceRegistration{
		ID:      fmt.Sprintf("%s-%s-%d", serviceName, host, port),
		Name:    serviceName,
		Address: host,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", host, port),
			Interval:                       "15s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("registering service %s: %w", serviceName, err)
	}
	return nil
}

// DeregisterService removes this instance from consul during shutdown.
func DeregisterService(client *consulapi.Client, serviceName, host string, port int) error {
	id := fmt.Sprintf("%s-%s-%d", serviceName, host, port)
	if err := client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("deregistering service %s: %w", id, err)
	}
	return nil
}
