package starter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"moff.io/moff-wallet/internal/config"
)

type element struct {
	name    string
	trace   *[]string
	address string
	stopErr error
}

func (e *element) Start(ctx context.Context) {
	*e.trace = append(*e.trace, "start "+e.name)
}

func (e *element) Stop(ctx context.Context) error {
	*e.trace = append(*e.trace, "stop "+e.name)
	return e.stopErr
}

type configurable struct {
	element
}

func (c *configurable) Apply(conf *config.Configuration) {
	c.address = conf.HTTP.Address
}

type startOnly struct{}

func (startOnly) Start(ctx context.Context) {}

func TestStartAndStopOrder(t *testing.T) {
	prev := config.Global
	t.Cleanup(func() { config.Global = prev })
	config.Global = &config.Configuration{HTTP: config.HTTP{Address: ":9999"}}

	var trace []string
	a := &element{name: "a", trace: &trace, stopErr: errors.New("already stopped")}
	b := &configurable{element{name: "b", trace: &trace}}

	Start(context.Background(), a, b, startOnly{})
	assert.Equal(t, ":9999", b.address)

	Stop(context.Background(), a, b, startOnly{})
	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, trace)
}

func TestStartWithoutConfig(t *testing.T) {
	prev := config.Global
	t.Cleanup(func() { config.Global = prev })
	config.Global = nil

	var trace []string
	c := &configurable{element{name: "c", trace: &trace}}
	Start(context.Background(), c)
	assert.Empty(t, c.address)
	assert.Equal(t, []string{"start c"}, trace)
}
