package daemon

import (
	"testing"

	"go.uber.org/fx"
)

func TestModuleGraph(t *testing.T) {
	if err := fx.ValidateApp(Module(Params{DataDir: t.TempDir()})); err != nil {
		t.Fatalf("dependency graph invalid: %v", err)
	}
}
