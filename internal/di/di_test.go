package di_test

import (
	"testing"

	"github.com/fd1az/xrpl-liquidity/internal/di"
)

type counter struct{ n int }

var counterToken = di.NewToken[*counter]("test:counter")

func TestContainer_FactoryRunsOnce(t *testing.T) {
	c := di.NewContainer()
	calls := 0
	di.RegisterToken(c, counterToken, func(di.ServiceRegistry) *counter {
		calls++
		return &counter{n: calls}
	})

	first := di.GetToken(c, counterToken)
	second := di.GetToken(c, counterToken)
	if first != second || calls != 1 {
		t.Fatalf("expected a single instance, factory ran %d times", calls)
	}
}

func TestContainer_FactoriesResolveDependencies(t *testing.T) {
	c := di.NewContainer()
	c.Register("base", 41)
	di.RegisterToken(c, counterToken, func(sr di.ServiceRegistry) *counter {
		return &counter{n: sr.Get("base").(int) + 1}
	})

	if got := di.GetToken(c, counterToken).n; got != 42 {
		t.Errorf("n = %d, want 42", got)
	}
	if !c.Has("base") || c.Has("missing") {
		t.Error("Has reported the wrong registrations")
	}
}

func TestContainer_PanicsOnMisuse(t *testing.T) {
	tests := map[string]func(){
		"unknown service": func() { di.NewContainer().Get("nope") },
		"duplicate": func() {
			c := di.NewContainer()
			c.Register("x", 1)
			c.Register("x", 2)
		},
		"wrong type": func() {
			c := di.NewContainer()
			c.Register(counterToken.Name(), "not a counter")
			di.GetToken(c, counterToken)
		},
	}

	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected a panic")
				}
			}()
			fn()
		})
	}
}
